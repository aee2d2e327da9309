package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/internal/cmdrunner"
	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type fakeRunner struct {
	cmd  string
	args []string
	err  error
}

func (f *fakeRunner) RunWithS(_ context.Context, cmd string, args ...string) error {
	f.cmd, f.args = cmd, args
	return f.err
}

func TestRun(t *testing.T) {
	installer := filepath.Join(t.TempDir(), "etlegacy-2.83.2.sh")
	require.NoError(t, os.WriteFile(installer, []byte("#!/bin/sh\n"), 0755))
	target := filepath.Join(t.TempDir(), "et", "27960")

	r := &fakeRunner{}
	require.NoError(t, NewInstaller(r, logger.NewNop()).Run(context.Background(), installer, target))

	assert.Equal(t, installer, r.cmd)
	assert.Equal(t, []string{"--target-directory=" + target}, r.args)
	assert.DirExists(t, target)
}

func TestRun_SubprocessFailure(t *testing.T) {
	installer := filepath.Join(t.TempDir(), "etlegacy.sh")
	require.NoError(t, os.WriteFile(installer, []byte("#!/bin/sh\n"), 0755))

	subErr := &cmdrunner.SubprocessError{Command: installer, ExitCode: 2, Stderr: "bad archive"}
	err := NewInstaller(&fakeRunner{err: subErr}, logger.NewNop()).Run(context.Background(), installer, t.TempDir())
	require.Error(t, err)

	var got *cmdrunner.SubprocessError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "bad archive", got.Stderr)
}

func TestRun_MissingInstaller(t *testing.T) {
	err := NewInstaller(&fakeRunner{}, logger.NewNop()).Run(context.Background(), "/nonexistent/etl.sh", t.TempDir())
	var fsErr *common.FileSystemError
	assert.True(t, errors.As(err, &fsErr))
}
