package servercfg

import (
	"strconv"

	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Directive names recognized in etl_server.cfg
const (
	KeyHostname          = "sv_hostname"
	KeyGamePassword      = "g_password"
	KeyMaxClients        = "sv_maxclients"
	KeyPrivateClients    = "sv_privateclients"
	KeyPrivatePassword   = "sv_privatepassword"
	KeyRconPassword      = "rconpassword"
	KeyRefereePassword   = "refereePassword"
	KeyShoutcastPassword = "ShoutcastPassword"
	KeyDownloadBaseURL   = "sv_wwwBaseURL"
	KeyHidden            = "sv_hidden"
	KeyPort              = "net_port"
)

// Keys is the table of directives the tool reads and writes, in file order
// of a stock etl_server.cfg.
var Keys = []string{
	KeyHostname,
	KeyGamePassword,
	KeyMaxClients,
	KeyPrivateClients,
	KeyPrivatePassword,
	KeyRconPassword,
	KeyRefereePassword,
	KeyShoutcastPassword,
	KeyDownloadBaseURL,
	KeyHidden,
	KeyPort,
}

// Settings maps directive names to their unquoted values
type Settings map[string]string

// SettingsFor converts an install request into directive values
func SettingsFor(cfg models.InstanceConfig) Settings {
	hidden := "0"
	if cfg.Hidden {
		hidden = "1"
	}
	name := cfg.ServerName
	if name == "" {
		name = models.DefaultHostname
	}
	return Settings{
		KeyHostname:          name,
		KeyGamePassword:      cfg.GamePassword,
		KeyMaxClients:        strconv.Itoa(cfg.MaxClients),
		KeyPrivateClients:    strconv.Itoa(cfg.PrivateClients),
		KeyPrivatePassword:   cfg.PrivatePassword,
		KeyRconPassword:      cfg.RconPassword,
		KeyRefereePassword:   cfg.RefereePassword,
		KeyShoutcastPassword: cfg.ShoutcastPassword,
		KeyDownloadBaseURL:   cfg.DownloadBaseURL,
		KeyHidden:            hidden,
		KeyPort:              strconv.Itoa(int(cfg.Port)),
	}
}

// Hostname returns sv_hostname, falling back to the stock server name
func (s Settings) Hostname() string {
	if v := s[KeyHostname]; v != "" {
		return v
	}
	return models.DefaultHostname
}
