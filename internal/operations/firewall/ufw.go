package firewall

import (
	"context"
	"fmt"
	"strings"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type UFW struct {
	runner     Runner
	pkgs       PackageInstaller
	autoEnable bool
	ensured    bool
	logger     *logger.Logger
}

func NewUFW(runner Runner, pkgs PackageInstaller, autoEnable bool, log *logger.Logger) *UFW {
	return &UFW{
		runner:     runner,
		pkgs:       pkgs,
		autoEnable: autoEnable,
		logger:     log,
	}
}

func (u *UFW) Name() string {
	return "ufw"
}

func (u *UFW) ensureInstalled(ctx context.Context) error {
	if u.ensured {
		return nil
	}
	if err := u.pkgs.EnsureCommand(ctx, "ufw", "ufw"); err != nil {
		return fmt.Errorf("failed to install ufw: %w", err)
	}
	u.ensured = true
	return nil
}

func (u *UFW) allow(ctx context.Context, target string) error {
	if err := u.ensureInstalled(ctx); err != nil {
		return err
	}
	if err := u.runner.RunWithS(ctx, "ufw", "allow", target); err != nil {
		return fmt.Errorf("ufw allow %s: %w", target, err)
	}
	u.logger.WithField("rule", target).Info("Firewall rule allowed")
	return nil
}

func (u *UFW) OpenGamePort(ctx context.Context, port uint16) error {
	return u.allow(ctx, GameRule(port).String())
}

func (u *UFW) OpenFTPRange(ctx context.Context) error {
	for _, r := range FTPRules {
		if err := u.allow(ctx, r.String()); err != nil {
			return err
		}
	}
	return nil
}

// EnsureEnabled turns ufw on when it is inactive. SSH is allowed first so
// enabling does not cut off the session running the tool.
func (u *UFW) EnsureEnabled(ctx context.Context) error {
	if err := u.ensureInstalled(ctx); err != nil {
		return err
	}

	out, err := u.runner.RunWithOutputSNoErrLog(ctx, "ufw", "status")
	if err != nil {
		return fmt.Errorf("ufw status: %w", err)
	}
	if !strings.Contains(string(out), "inactive") {
		u.logger.Debug("ufw already active")
		return nil
	}

	if !u.autoEnable {
		u.logger.Warn("ufw is inactive, rules take effect once it is enabled")
		return nil
	}

	if err := u.allow(ctx, "OpenSSH"); err != nil {
		return err
	}
	if err := u.runner.RunWithS(ctx, "ufw", "--force", "enable"); err != nil {
		return fmt.Errorf("ufw enable: %w", err)
	}
	u.logger.Info("ufw enabled")
	return nil
}
