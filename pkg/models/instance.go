package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Release sources
const (
	SourceStable      = "stable"
	SourceDevelopment = "development"
)

// Release is one installable build listed by the catalog.
type Release struct {
	Version   string `json:"version" yaml:"version"`
	Source    string `json:"source" yaml:"source"`
	BuildHash string `json:"build_hash,omitempty" yaml:"build_hash,omitempty"`
	FetchURL  string `json:"fetch_url" yaml:"fetch_url"`
}

// Label is the human readable name shown in listings
func (r Release) Label() string {
	if r.BuildHash != "" {
		return fmt.Sprintf("%s (%s, %s)", r.Version, r.Source, r.BuildHash)
	}
	return fmt.Sprintf("%s (%s)", r.Version, r.Source)
}

// InstanceConfig is what the operator asked for when installing a server.
type InstanceConfig struct {
	ServerName        string
	Port              uint16
	MaxClients        int
	PrivateClients    int
	GamePassword      string
	PrivatePassword   string
	RconPassword      string
	RefereePassword   string
	ShoutcastPassword string
	Hidden            bool
	InstallRoot       string
	DownloadBaseURL   string
	InstallMaps       bool
	ConfigureFirewall bool
	FTPUser           string
	FTPPassword       string
	Release           Release
}

// ServerDir returns the directory the instance is installed to
func (c InstanceConfig) ServerDir() string {
	return ServerDir(c.InstallRoot, c.Port)
}

// Validate rejects configurations the install workflow cannot represent
func (c InstanceConfig) Validate() error {
	var result *multierror.Error
	if c.Port == 0 {
		result = multierror.Append(result, errors.New("port must be between 1 and 65535"))
	}
	if c.MaxClients <= 0 {
		result = multierror.Append(result, errors.New("max clients must be positive"))
	}
	if c.PrivateClients < 0 {
		result = multierror.Append(result, errors.New("private clients cannot be negative"))
	}
	if c.MaxClients > 0 && c.PrivateClients >= c.MaxClients {
		result = multierror.Append(result, errors.New("private clients must be lower than max clients"))
	}
	if strings.TrimSpace(c.InstallRoot) == "" {
		result = multierror.Append(result, errors.New("install directory is required"))
	}
	if c.Release.FetchURL == "" {
		result = multierror.Append(result, errors.New("no release selected"))
	}
	quoted := map[string]string{
		"server name":        c.ServerName,
		"game password":      c.GamePassword,
		"private password":   c.PrivatePassword,
		"rcon password":      c.RconPassword,
		"referee password":   c.RefereePassword,
		"shoutcast password": c.ShoutcastPassword,
		"download base URL":  c.DownloadBaseURL,
	}
	names := make([]string, 0, len(quoted))
	for name := range quoted {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.ContainsAny(quoted[name], "\"\r\n") {
			result = multierror.Append(result, fmt.Errorf("%s cannot contain quotes or line breaks", name))
		}
	}
	if c.FTPUser != "" && strings.ContainsAny(c.FTPUser, " :/\t\"\r\n") {
		result = multierror.Append(result, errors.New("invalid FTP user name"))
	}
	return result.ErrorOrNil()
}

// Instance is an installed server as observed on the host.
type Instance struct {
	Name        string `json:"name" yaml:"name"`
	Port        uint16 `json:"port" yaml:"port"`
	Version     string `json:"version" yaml:"version"`
	ServerDir   string `json:"server_dir" yaml:"server_dir"`
	InstallRoot string `json:"install_root" yaml:"install_root"`
}

// ConfigPath returns the instance's server config file
func (i Instance) ConfigPath() string {
	return ConfigPath(i.ServerDir)
}
