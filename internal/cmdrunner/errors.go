package cmdrunner

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// SubprocessError is returned when a command exits non-zero. Stderr holds
// what the command printed, untouched.
type SubprocessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("command error: %s: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

func newSubprocessError(cmd string, args []string, stderr []byte, err error) *SubprocessError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &SubprocessError{
		Command:  strings.TrimSpace(cmd + " " + strings.Join(args, " ")),
		ExitCode: code,
		Stderr:   string(stderr),
		Err:      err,
	}
}
