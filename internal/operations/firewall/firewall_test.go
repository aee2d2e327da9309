package firewall

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type fakeRunner struct {
	calls  []string
	status string
}

func (f *fakeRunner) RunWithS(_ context.Context, cmd string, args ...string) error {
	f.calls = append(f.calls, strings.Join(append([]string{cmd}, args...), " "))
	return nil
}

func (f *fakeRunner) RunWithOutputSNoErrLog(_ context.Context, cmd string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(append([]string{cmd}, args...), " "))
	return []byte(f.status), nil
}

type fakePackages struct {
	ensured []string
}

func (f *fakePackages) EnsureCommand(_ context.Context, binary, pkg string) error {
	f.ensured = append(f.ensured, binary+"="+pkg)
	return nil
}

type fakeIPTables struct {
	rules map[string]bool
	order []string
}

func (f *fakeIPTables) AppendUnique(table, chain string, rulespec ...string) error {
	key := table + "/" + chain + " " + strings.Join(rulespec, " ")
	if !f.rules[key] {
		f.rules[key] = true
		f.order = append(f.order, key)
	}
	return nil
}

func TestUFW_OpenPorts(t *testing.T) {
	r := &fakeRunner{}
	pkgs := &fakePackages{}
	fw := NewUFW(r, pkgs, true, logger.NewNop())

	require.NoError(t, fw.OpenGamePort(context.Background(), 27960))
	require.NoError(t, fw.OpenFTPRange(context.Background()))

	assert.Equal(t, []string{
		"ufw allow 27960/udp",
		"ufw allow 20/tcp",
		"ufw allow 21/tcp",
		"ufw allow 990/tcp",
		"ufw allow 40000:50000/tcp",
	}, r.calls)
	assert.Equal(t, []string{"ufw=ufw"}, pkgs.ensured)
}

func TestUFW_EnsureEnabled(t *testing.T) {
	r := &fakeRunner{status: "Status: inactive\n"}
	fw := NewUFW(r, &fakePackages{}, true, logger.NewNop())

	require.NoError(t, fw.EnsureEnabled(context.Background()))
	assert.Equal(t, []string{
		"ufw status",
		"ufw allow OpenSSH",
		"ufw --force enable",
	}, r.calls)
}

func TestUFW_EnsureEnabled_AlreadyActive(t *testing.T) {
	r := &fakeRunner{status: "Status: active\n\nTo Action From\n"}
	fw := NewUFW(r, &fakePackages{}, true, logger.NewNop())

	require.NoError(t, fw.EnsureEnabled(context.Background()))
	assert.Equal(t, []string{"ufw status"}, r.calls)
}

func TestUFW_EnsureEnabled_AutoEnableOff(t *testing.T) {
	r := &fakeRunner{status: "Status: inactive\n"}
	fw := NewUFW(r, &fakePackages{}, false, logger.NewNop())

	require.NoError(t, fw.EnsureEnabled(context.Background()))
	assert.Equal(t, []string{"ufw status"}, r.calls)
}

func TestIPTables_ReopeningIsNotAnError(t *testing.T) {
	client := &fakeIPTables{rules: map[string]bool{}}
	fw := &IPTables{client: client, logger: logger.NewNop()}

	require.NoError(t, fw.OpenGamePort(context.Background(), 27960))
	require.NoError(t, fw.OpenGamePort(context.Background(), 27960))
	require.NoError(t, fw.OpenFTPRange(context.Background()))
	require.NoError(t, fw.EnsureEnabled(context.Background()))

	require.Len(t, client.order, 5)
	assert.Equal(t, "filter/INPUT -p udp --dport 27960 -j ACCEPT -m comment --comment etlctl", client.order[0])
	assert.Equal(t, "filter/INPUT -p tcp --dport 40000:50000 -j ACCEPT -m comment --comment etlctl", client.order[4])
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(config.FirewallConfig{Backend: "pf"}, &fakeRunner{}, &fakePackages{}, logger.NewNop())
	assert.Error(t, err)

	fw, err := New(config.FirewallConfig{Backend: "ufw"}, &fakeRunner{}, &fakePackages{}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ufw", fw.Name())
}
