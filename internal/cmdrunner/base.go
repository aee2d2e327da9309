package cmdrunner

import (
	"context"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type CommandRunner interface {
	SetCommand(ctx context.Context, cmd string, args ...string) *exec.Cmd
	SetCommandWithS(ctx context.Context, cmd string, args ...string) *exec.Cmd
	Run(ctx context.Context, cmd string, args ...string) error
	RunWithOutput(ctx context.Context, cmd string, args ...string) ([]byte, error)
	RunWithS(ctx context.Context, cmd string, args ...string) error
	RunWithOutputS(ctx context.Context, cmd string, args ...string) ([]byte, error)
	RunAndTrimmedOutput(ctx context.Context, cmd string, args ...string) (string, error)
	RunWithOutputSNoErrLog(ctx context.Context, cmd string, args ...string) ([]byte, error)
	RunWithInputS(ctx context.Context, stdin string, cmd string, args ...string) error
	RunInteractive(ctx context.Context, cmd string, args ...string) error
}

type CommandsRunner struct {
	logger *logger.Logger
	// elevate is false when the process already runs as root
	elevate bool
}

func NewCommandsRunner(log *logger.Logger) *CommandsRunner {
	return &CommandsRunner{
		logger:  log.WithModule("command_runner"),
		elevate: unix.Geteuid() != 0,
	}
}

// sudoArgs prefixes the command with sudo when the runner is not root
func (r *CommandsRunner) sudoArgs(cmd string, args []string) (string, []string) {
	if !r.elevate {
		return cmd, args
	}
	return "sudo", append([]string{cmd}, args...)
}
