package handlers

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
)

type interactiveRunner interface {
	RunInteractive(ctx context.Context, cmd string, args ...string) error
}

type packageInstaller interface {
	EnsureCommand(ctx context.Context, binary, pkg string) error
}

// fallbackEditors are tried in order when the configured editor is missing
var fallbackEditors = []string{"nano", "vim", "vi"}

// CommandEditor opens files in a terminal text editor
type CommandEditor struct {
	runner    interactiveRunner
	pkgs      packageInstaller
	preferred string
	lookPath  func(string) (string, error)
}

func NewCommandEditor(runner interactiveRunner, pkgs packageInstaller, preferred string) *CommandEditor {
	return &CommandEditor{
		runner:    runner,
		pkgs:      pkgs,
		preferred: preferred,
		lookPath:  exec.LookPath,
	}
}

func (e *CommandEditor) Edit(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return common.FSError("stat", path, err)
	}
	editor, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	return e.runner.RunInteractive(ctx, editor, path)
}

// resolve tries the configured editor first, then the fallbacks, and
// installs nano when none is present
func (e *CommandEditor) resolve(ctx context.Context) (string, error) {
	candidates := fallbackEditors
	if e.preferred != "" {
		candidates = append([]string{e.preferred}, fallbackEditors...)
	}
	for _, c := range candidates {
		if p, err := e.lookPath(c); err == nil {
			return p, nil
		}
	}
	if err := e.pkgs.EnsureCommand(ctx, "nano", "nano"); err != nil {
		return "", fmt.Errorf("no text editor available: %w", err)
	}
	return "nano", nil
}
