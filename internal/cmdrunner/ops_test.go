package cmdrunner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

func TestRunWithOutput_CapturesStdout(t *testing.T) {
	r := NewCommandsRunner(logger.NewNop())

	out, err := r.RunAndTrimmedOutput(context.Background(), "sh", "-c", "echo active")
	require.NoError(t, err)
	assert.Equal(t, "active", out)
}

func TestRun_SubprocessErrorKeepsStderr(t *testing.T) {
	r := NewCommandsRunner(logger.NewNop())

	err := r.Run(context.Background(), "sh", "-c", "echo 'target directory missing' >&2; exit 3")
	require.Error(t, err)

	var subErr *SubprocessError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 3, subErr.ExitCode)
	assert.Equal(t, "target directory missing\n", subErr.Stderr)
	assert.Contains(t, subErr.Error(), "target directory missing")
}

func TestRun_CancelledContext(t *testing.T) {
	r := NewCommandsRunner(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, "sleep", "5")
	require.Error(t, err)
}

func TestSudoArgs(t *testing.T) {
	r := &CommandsRunner{logger: logger.NewNop(), elevate: true}
	name, args := r.sudoArgs("systemctl", []string{"daemon-reload"})
	assert.Equal(t, "sudo", name)
	assert.Equal(t, []string{"systemctl", "daemon-reload"}, args)

	r.elevate = false
	name, args = r.sudoArgs("systemctl", []string{"daemon-reload"})
	assert.Equal(t, "systemctl", name)
	assert.Equal(t, []string{"daemon-reload"}, args)
}
