package packages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type recordingRunner struct {
	calls []string
	err   error
}

func (r *recordingRunner) RunWithS(_ context.Context, cmd string, args ...string) error {
	r.calls = append(r.calls, strings.Join(append([]string{cmd}, args...), " "))
	return r.err
}

func TestInstall(t *testing.T) {
	r := &recordingRunner{}
	m := NewManager(r, logger.NewNop())

	require.NoError(t, m.Update(context.Background()))
	require.NoError(t, m.Install(context.Background(), "unzip", "wget"))
	require.NoError(t, m.Install(context.Background()))

	assert.Equal(t, []string{
		"apt-get update -q",
		"apt-get install -y -q unzip wget",
	}, r.calls)
}

func TestInstall_Failure(t *testing.T) {
	m := NewManager(&recordingRunner{err: errors.New("exit status 100")}, logger.NewNop())
	err := m.Install(context.Background(), "ufw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ufw")
}

func TestEnsureCommand(t *testing.T) {
	r := &recordingRunner{}
	m := NewManager(r, logger.NewNop())

	m.lookPath = func(string) (string, error) { return "/usr/sbin/ufw", nil }
	require.NoError(t, m.EnsureCommand(context.Background(), "ufw", "ufw"))
	assert.Empty(t, r.calls)

	m.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	require.NoError(t, m.EnsureCommand(context.Background(), "ufw", "ufw"))
	assert.Equal(t, []string{"apt-get install -y -q ufw"}, r.calls)
}
