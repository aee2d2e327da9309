package packages

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type runner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
}

// Manager installs host packages through apt-get
type Manager struct {
	runner   runner
	lookPath func(string) (string, error)
	logger   *logger.Logger
}

func NewManager(r runner, log *logger.Logger) *Manager {
	return &Manager{
		runner:   r,
		lookPath: exec.LookPath,
		logger:   log.WithModule("packages"),
	}
}

// Update refreshes the package index
func (m *Manager) Update(ctx context.Context) error {
	m.logger.Info("Updating package index")
	if err := m.runner.RunWithS(ctx, "apt-get", "update", "-q"); err != nil {
		return fmt.Errorf("apt-get update failed: %w", err)
	}
	return nil
}

// Install installs pkgs non-interactively. Already installed packages are
// left as they are by apt-get.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	m.logger.WithField("packages", pkgs).Info("Installing packages")
	args := append([]string{"install", "-y", "-q"}, pkgs...)
	if err := m.runner.RunWithS(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("apt-get install %v failed: %w", pkgs, err)
	}
	return nil
}

// EnsureCommand installs pkg when binary is not on PATH
func (m *Manager) EnsureCommand(ctx context.Context, binary, pkg string) error {
	if _, err := m.lookPath(binary); err == nil {
		return nil
	}
	m.logger.Infof("%s not found, installing %s", binary, pkg)
	return m.Install(ctx, pkg)
}
