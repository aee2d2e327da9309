package firewall

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-iptables/iptables"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

const ruleComment = "etlctl"

type iptablesClient interface {
	AppendUnique(table, chain string, rulespec ...string) error
}

// IPTables appends ACCEPT rules to filter/INPUT
type IPTables struct {
	client iptablesClient
	logger *logger.Logger
}

func NewIPTables(log *logger.Logger) (*IPTables, error) {
	client, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, fmt.Errorf("iptables is not installed in the system or not supported: %w", err)
	}
	return &IPTables{client: client, logger: log}, nil
}

func (t *IPTables) Name() string {
	return "iptables"
}

func ruleSpec(r Rule) []string {
	return []string{
		"-p", r.Proto,
		"--dport", r.Port,
		"-j", "ACCEPT",
		"-m", "comment", "--comment", ruleComment,
	}
}

func (t *IPTables) accept(r Rule) error {
	if err := t.client.AppendUnique("filter", "INPUT", ruleSpec(r)...); err != nil {
		return fmt.Errorf("failed to add rule %s: %w", r, err)
	}
	t.logger.WithField("rule", strings.Join(ruleSpec(r), " ")).Info("Firewall rule allowed")
	return nil
}

func (t *IPTables) OpenGamePort(_ context.Context, port uint16) error {
	return t.accept(GameRule(port))
}

func (t *IPTables) OpenFTPRange(_ context.Context) error {
	for _, r := range FTPRules {
		if err := t.accept(r); err != nil {
			return err
		}
	}
	return nil
}

// EnsureEnabled is a no-op, iptables filters as soon as a rule exists
func (t *IPTables) EnsureEnabled(context.Context) error {
	return nil
}
