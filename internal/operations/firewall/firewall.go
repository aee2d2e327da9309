package firewall

import (
	"context"
	"fmt"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// Rule is one inbound port or port range
type Rule struct {
	Port  string
	Proto string
}

func (r Rule) String() string {
	return r.Port + "/" + r.Proto
}

// FTPRules cover FTP control, data, implicit TLS and the passive range
// written into vsftpd.conf
var FTPRules = []Rule{
	{Port: "20", Proto: "tcp"},
	{Port: "21", Proto: "tcp"},
	{Port: "990", Proto: "tcp"},
	{Port: fmt.Sprintf("%d:%d", PassiveMin, PassiveMax), Proto: "tcp"},
}

const (
	PassiveMin = 40000
	PassiveMax = 50000
)

// GameRule is the inbound rule for a server listening on port
func GameRule(port uint16) Rule {
	return Rule{Port: fmt.Sprintf("%d", port), Proto: "udp"}
}

// Firewall opens inbound ports on the host packet filter. Opening a rule that
// already exists is not an error.
type Firewall interface {
	Name() string
	OpenGamePort(ctx context.Context, port uint16) error
	OpenFTPRange(ctx context.Context) error
	EnsureEnabled(ctx context.Context) error
}

// Runner is what the ufw backend needs from cmdrunner
type Runner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
	RunWithOutputSNoErrLog(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// PackageInstaller installs ufw when it is missing
type PackageInstaller interface {
	EnsureCommand(ctx context.Context, binary, pkg string) error
}

// New returns the backend selected in cfg
func New(cfg config.FirewallConfig, runner Runner, pkgs PackageInstaller, log *logger.Logger) (Firewall, error) {
	log = log.WithModule("firewall")
	switch cfg.Backend {
	case "", "ufw":
		return NewUFW(runner, pkgs, cfg.AutoEnable, log), nil
	case "iptables":
		return NewIPTables(log)
	default:
		return nil, fmt.Errorf("unsupported firewall backend %q", cfg.Backend)
	}
}
