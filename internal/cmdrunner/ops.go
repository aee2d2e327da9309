package cmdrunner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
)

func (r *CommandsRunner) SetCommand(ctx context.Context, cmd string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, cmd, args...)
}

func (r *CommandsRunner) SetCommandWithS(ctx context.Context, cmd string, args ...string) *exec.Cmd {
	name, full := r.sudoArgs(cmd, args)
	return exec.CommandContext(ctx, name, full...)
}

func (r *CommandsRunner) Run(ctx context.Context, cmd string, args ...string) error {
	_, err := r.RunWithOutput(ctx, cmd, args...)
	return err
}

func (r *CommandsRunner) RunWithOutput(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Errorf("command failed: %s %v\n%s", cmd, args, stderr.String())
		return stdout.Bytes(), newSubprocessError(cmd, args, stderr.Bytes(), err)
	}
	return stdout.Bytes(), nil
}

func (r *CommandsRunner) RunWithS(ctx context.Context, cmd string, args ...string) error {
	name, full := r.sudoArgs(cmd, args)
	return r.Run(ctx, name, full...)
}

func (r *CommandsRunner) RunWithOutputS(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	name, full := r.sudoArgs(cmd, args)
	return r.RunWithOutput(ctx, name, full...)
}

func (r *CommandsRunner) RunAndTrimmedOutput(ctx context.Context, cmd string, args ...string) (string, error) {
	out, err := r.RunWithOutput(ctx, cmd, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RunWithOutputSNoErrLog runs command with sudo and returns output without logging errors
// Useful for commands like "systemctl is-active" where non-zero exit codes are expected
func (r *CommandsRunner) RunWithOutputSNoErrLog(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	name, full := r.sudoArgs(cmd, args)
	c := exec.CommandContext(ctx, name, full...)
	var stderr bytes.Buffer
	c.Stderr = &stderr
	output, err := c.Output()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return output, newSubprocessError(name, full, stderr.Bytes(), err)
	}
	return output, nil
}

// RunWithInputS feeds stdin to a privileged command, e.g. chpasswd
func (r *CommandsRunner) RunWithInputS(ctx context.Context, stdin string, cmd string, args ...string) error {
	name, full := r.sudoArgs(cmd, args)
	c := exec.CommandContext(ctx, name, full...)
	c.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Errorf("command failed: %s %v\n%s", cmd, args, stderr.String())
		return newSubprocessError(name, full, stderr.Bytes(), err)
	}
	return nil
}

// RunInteractive attaches the command to the terminal. Used for editors and passwd.
func (r *CommandsRunner) RunInteractive(ctx context.Context, cmd string, args ...string) error {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newSubprocessError(cmd, args, nil, err)
	}
	return nil
}
