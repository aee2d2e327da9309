package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/servercfg"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Keys of the instance env file
const (
	KeyServerName        = "servername"
	KeyPort              = "port"
	KeyMaxClients        = "sv_maxclients"
	KeyGamePassword      = "g_password"
	KeyPrivateClients    = "sv_privateclients"
	KeyPrivatePassword   = "sv_privatepassword"
	KeyRconPassword      = "rconpassword"
	KeyRefereePassword   = "refereepassword"
	KeyShoutcastPassword = "ShoutcastPassword"
	KeyDownloadBaseURL   = "sv_wwwBaseURL"
	KeyHidden            = "hidden"
	KeyInstallDir        = "installDir"
	KeyFTPUser           = "ftpuser"
	KeyVersion           = "version"
	KeyVersionURL        = "version_url"
	KeyInstallMaps       = "install_maps"
	KeyConfigureFirewall = "configure_firewall"
)

type section struct {
	title string
	keys  []string
}

// layout is the order keys are written back in
var layout = []section{
	{"Server Information", []string{
		KeyServerName, KeyPort, KeyMaxClients, KeyGamePassword, KeyPrivateClients,
		KeyPrivatePassword, KeyRconPassword, KeyRefereePassword, KeyShoutcastPassword,
		KeyDownloadBaseURL, KeyHidden,
	}},
	{"Installation Information", []string{KeyInstallDir, KeyFTPUser, KeyVersion, KeyVersionURL}},
	{"Additional Options", []string{KeyInstallMaps, KeyConfigureFirewall}},
}

// Defaults fill keys missing from a file being written
var Defaults = map[string]string{
	KeyPort:              strconv.Itoa(models.DefaultPort),
	KeyMaxClients:        "16",
	KeyPrivateClients:    "0",
	KeyInstallDir:        models.DefaultInstall,
	KeyInstallMaps:       "true",
	KeyConfigureFirewall: "true",
	KeyHidden:            "false",
}

// Values is the parsed content of an env file
type Values map[string]string

// Read parses path. Quotes are stripped and # comments ignored.
func Read(path string) (Values, error) {
	env, err := gotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.FSError("read", path, err)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return Values(env), nil
}

func (v Values) get(key string) string {
	if val, ok := v[key]; ok {
		return val
	}
	return Defaults[key]
}

// Write stores v at path in the fixed section order, filling defaults
func Write(path string, v Values) error {
	var b strings.Builder
	b.WriteString("# ET Legacy Server Configuration\n")
	for _, s := range layout {
		fmt.Fprintf(&b, "\n# %s\n", s.title)
		for _, key := range s.keys {
			fmt.Fprintf(&b, "%s=%s\n", key, quote(v.get(key)))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return common.FSError("mkdir", filepath.Dir(path), err)
	}
	// the file holds passwords
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return common.FSError("write", path, err)
	}
	return nil
}

// quote single-quotes values so the reader does not expand $VARS inside
// passwords; values containing a single quote fall back to escaped double
// quotes
func quote(val string) string {
	if val == "" {
		return `""`
	}
	if _, err := strconv.Atoi(val); err == nil || val == "true" || val == "false" {
		return val
	}
	if !strings.Contains(val, "'") {
		return "'" + val + "'"
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(val) + `"`
}

// ToConfig converts the file into an install request. The release is taken
// from version/version_url when present.
func (v Values) ToConfig() (models.InstanceConfig, error) {
	port, err := strconv.ParseUint(v.get(KeyPort), 10, 16)
	if err != nil {
		return models.InstanceConfig{}, fmt.Errorf("invalid %s %q", KeyPort, v.get(KeyPort))
	}
	maxClients, err := strconv.Atoi(v.get(KeyMaxClients))
	if err != nil {
		return models.InstanceConfig{}, fmt.Errorf("invalid %s %q", KeyMaxClients, v.get(KeyMaxClients))
	}
	privateClients, err := strconv.Atoi(v.get(KeyPrivateClients))
	if err != nil {
		return models.InstanceConfig{}, fmt.Errorf("invalid %s %q", KeyPrivateClients, v.get(KeyPrivateClients))
	}

	cfg := models.InstanceConfig{
		ServerName:        v.get(KeyServerName),
		Port:              uint16(port),
		MaxClients:        maxClients,
		PrivateClients:    privateClients,
		GamePassword:      v.get(KeyGamePassword),
		PrivatePassword:   v.get(KeyPrivatePassword),
		RconPassword:      v.get(KeyRconPassword),
		RefereePassword:   v.get(KeyRefereePassword),
		ShoutcastPassword: v.get(KeyShoutcastPassword),
		DownloadBaseURL:   v.get(KeyDownloadBaseURL),
		Hidden:            parseBool(v.get(KeyHidden)),
		InstallRoot:       v.get(KeyInstallDir),
		FTPUser:           v.get(KeyFTPUser),
		InstallMaps:       parseBool(v.get(KeyInstallMaps)),
		ConfigureFirewall: parseBool(v.get(KeyConfigureFirewall)),
	}

	if url := v.get(KeyVersionURL); url != "" {
		cfg.Release = models.Release{
			Version:  v.get(KeyVersion),
			Source:   models.SourceStable,
			FetchURL: url,
		}
		if strings.Contains(cfg.Release.Version, "-") {
			cfg.Release.Source = models.SourceDevelopment
		}
	}
	return cfg, nil
}

// FromConfig is the reverse of ToConfig. FTP passwords are never stored.
func FromConfig(cfg models.InstanceConfig) Values {
	return Values{
		KeyServerName:        cfg.ServerName,
		KeyPort:              strconv.Itoa(int(cfg.Port)),
		KeyMaxClients:        strconv.Itoa(cfg.MaxClients),
		KeyGamePassword:      cfg.GamePassword,
		KeyPrivateClients:    strconv.Itoa(cfg.PrivateClients),
		KeyPrivatePassword:   cfg.PrivatePassword,
		KeyRconPassword:      cfg.RconPassword,
		KeyRefereePassword:   cfg.RefereePassword,
		KeyShoutcastPassword: cfg.ShoutcastPassword,
		KeyDownloadBaseURL:   cfg.DownloadBaseURL,
		KeyHidden:            strconv.FormatBool(cfg.Hidden),
		KeyInstallDir:        cfg.InstallRoot,
		KeyFTPUser:           cfg.FTPUser,
		KeyVersion:           cfg.Release.Version,
		KeyVersionURL:        cfg.Release.FetchURL,
		KeyInstallMaps:       strconv.FormatBool(cfg.InstallMaps),
		KeyConfigureFirewall: strconv.FormatBool(cfg.ConfigureFirewall),
	}
}

// settingKeys maps env keys to the server config directives they mirror
var settingKeys = map[string]string{
	KeyServerName:        servercfg.KeyHostname,
	KeyMaxClients:        servercfg.KeyMaxClients,
	KeyGamePassword:      servercfg.KeyGamePassword,
	KeyPrivateClients:    servercfg.KeyPrivateClients,
	KeyPrivatePassword:   servercfg.KeyPrivatePassword,
	KeyRconPassword:      servercfg.KeyRconPassword,
	KeyRefereePassword:   servercfg.KeyRefereePassword,
	KeyShoutcastPassword: servercfg.KeyShoutcastPassword,
	KeyDownloadBaseURL:   servercfg.KeyDownloadBaseURL,
}

// FromInstance captures an installed instance, reading the values its
// server config carries
func FromInstance(inst models.Instance) (Values, error) {
	v := Values{
		KeyServerName: inst.Name,
		KeyPort:       strconv.Itoa(int(inst.Port)),
		KeyInstallDir: inst.InstallRoot,
	}
	if inst.Version != common.UnknownVersion {
		v[KeyVersion] = inst.Version
	}

	settings, err := servercfg.ReadSettings(inst.ConfigPath())
	if err != nil {
		return v, err
	}
	for envKey, cfgKey := range settingKeys {
		if val, ok := settings[cfgKey]; ok {
			v[envKey] = val
		}
	}
	if hidden, ok := settings[servercfg.KeyHidden]; ok {
		v[KeyHidden] = strconv.FormatBool(hidden == "1")
	}
	return v, nil
}

// ExportName is the default file name for an exported instance
func ExportName(port uint16) string {
	return fmt.Sprintf("etl_server_%d.env", port)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
