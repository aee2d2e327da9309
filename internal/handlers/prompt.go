package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/CloudNativeWorks/etlctl/internal/envfile"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Prompter collects raw answers from the operator
type Prompter interface {
	Ask(label, def string) (string, error)
	Secret(label string) (string, error)
}

// TermPrompter reads answers line by line. Secrets are read without echo
// when input is a terminal.
type TermPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func NewTermPrompter(in *os.File, out io.Writer) *TermPrompter {
	return &TermPrompter{in: bufio.NewReader(in), out: out, fd: int(in.Fd())}
}

func (p *TermPrompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *TermPrompter) Secret(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.Ask(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// AskInt re-asks until the answer is an integer within [lo, hi]
func AskInt(p Prompter, label string, def, lo, hi int) (int, error) {
	for {
		raw, err := p.Ask(label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err == nil && n >= lo && n <= hi {
			return n, nil
		}
	}
}

func AskPort(p Prompter, label string, def uint16) (uint16, error) {
	n, err := AskInt(p, label, int(def), 1, 65535)
	return uint16(n), err
}

// AskBool accepts y/yes/n/no, case insensitive
func AskBool(p Prompter, label string, def bool) (bool, error) {
	d := "n"
	if def {
		d = "y"
	}
	for {
		raw, err := p.Ask(label+" (y/n)", d)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(raw) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// AskChoice returns the zero based index of a numbered option, or -1 for b
func AskChoice(p Prompter, label string, count int) (int, error) {
	for {
		raw, err := p.Ask(label, "1")
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(raw, "b") {
			return -1, nil
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= count {
			return n - 1, nil
		}
	}
}

// AskInstanceConfig collects an install request, starting from def
func AskInstanceConfig(p Prompter, def models.InstanceConfig) (models.InstanceConfig, error) {
	cfg := def
	var err error

	if cfg.ServerName, err = p.Ask("Server name", orDefault(def.ServerName, models.DefaultHostname)); err != nil {
		return cfg, err
	}
	if cfg.Port, err = AskPort(p, "Server port", orPort(def.Port)); err != nil {
		return cfg, err
	}
	if cfg.MaxClients, err = AskInt(p, "Max clients", orInt(def.MaxClients, 16), 1, 64); err != nil {
		return cfg, err
	}
	if cfg.PrivateClients, err = AskInt(p, "Private slots", def.PrivateClients, 0, cfg.MaxClients-1); err != nil {
		return cfg, err
	}

	secrets := []struct {
		label string
		dst   *string
	}{
		{"Game password (empty for none)", &cfg.GamePassword},
		{"Private slot password", &cfg.PrivatePassword},
		{"RCON password", &cfg.RconPassword},
		{"Referee password", &cfg.RefereePassword},
		{"Shoutcaster password", &cfg.ShoutcastPassword},
	}
	for _, s := range secrets {
		if *s.dst != "" {
			continue
		}
		if *s.dst, err = p.Secret(s.label); err != nil {
			return cfg, err
		}
	}

	if cfg.Hidden, err = AskBool(p, "Hide from the master server list", def.Hidden); err != nil {
		return cfg, err
	}
	if cfg.InstallRoot, err = p.Ask("Install directory", orDefault(def.InstallRoot, models.DefaultInstall)); err != nil {
		return cfg, err
	}
	if cfg.DownloadBaseURL, err = p.Ask("Download base URL (sv_wwwBaseURL)", def.DownloadBaseURL); err != nil {
		return cfg, err
	}
	if cfg.InstallMaps, err = AskBool(p, "Install the standard map pack", def.InstallMaps); err != nil {
		return cfg, err
	}
	if cfg.ConfigureFirewall, err = AskBool(p, "Open the server port in the firewall", def.ConfigureFirewall); err != nil {
		return cfg, err
	}
	if cfg.FTPUser, err = p.Ask("FTP user (empty to skip)", def.FTPUser); err != nil {
		return cfg, err
	}
	if cfg.FTPUser != "" && cfg.FTPPassword == "" {
		if cfg.FTPPassword, err = p.Secret("FTP password (empty to set it interactively)"); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// DefaultInstanceConfig mirrors the env file defaults
func DefaultInstanceConfig(installRoot string) models.InstanceConfig {
	cfg, _ := envfile.Values{}.ToConfig()
	if installRoot != "" {
		cfg.InstallRoot = installRoot
	}
	return cfg
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orPort(v uint16) uint16 {
	if v == 0 {
		return models.DefaultPort
	}
	return v
}
