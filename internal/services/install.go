package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/files"
	"github.com/CloudNativeWorks/etlctl/internal/operations/servercfg"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// InstallResult summarizes a successful install
type InstallResult struct {
	Instance      models.Instance
	Artifact      string
	MissingKeys   []string
	MapsInstalled int
	MapsFailed    int
	Active        bool
}

// Install provisions a new instance from cfg. The first failing step aborts
// the run and is reported as a *StepError; earlier steps are not undone.
func (s *Services) Install(ctx context.Context, cfg models.InstanceConfig) (*InstallResult, error) {
	log := s.operationLogger("install", cfg.Port)

	s.enter(log, StepPlanned)
	if err := cfg.Validate(); err != nil {
		return nil, stepError(StepPlanned, err)
	}
	if err := s.checkPortFree(cfg.Port); err != nil {
		return nil, stepError(StepPlanned, err)
	}

	serverDir := cfg.ServerDir()
	result := &InstallResult{
		Instance: models.Instance{
			Name:        servercfg.SettingsFor(cfg).Hostname(),
			Port:        cfg.Port,
			Version:     cfg.Release.Version,
			ServerDir:   serverDir,
			InstallRoot: cfg.InstallRoot,
		},
	}
	log.WithFields(logger.Fields{
		"server_dir": serverDir,
		"release":    cfg.Release.Label(),
	}).Info("Starting installation")

	s.enter(log, StepPrepared)
	if err := s.prepare(ctx, serverDir); err != nil {
		return nil, stepError(StepPrepared, err)
	}

	s.enter(log, StepArtifactFetched)
	artifact, err := s.deps.Fetcher.FetchRelease(ctx, cfg.Release)
	if err != nil {
		return nil, stepError(StepArtifactFetched, err)
	}
	result.Artifact = artifact

	s.enter(log, StepVendorInstalled)
	if err := s.deps.Installer.Run(ctx, artifact, serverDir); err != nil {
		return nil, stepError(StepVendorInstalled, err)
	}
	s.cleanupArtifact(log, artifact)

	s.enter(log, StepConfigured)
	missing, err := s.configure(log, cfg, serverDir)
	if err != nil {
		return nil, stepError(StepConfigured, err)
	}
	result.MissingKeys = missing

	if cfg.InstallMaps {
		s.enter(log, StepMapsInstalled)
		report, err := s.deps.Maps.InstallStandard(ctx, serverDir, s.mapProgress)
		if err != nil {
			return nil, stepError(StepMapsInstalled, err)
		}
		result.MapsInstalled = len(report.Installed)
		result.MapsFailed = report.FailedCount()
		if result.MapsFailed > 0 {
			log.WithError(report.Failed).Warnf("%d maps could not be installed", result.MapsFailed)
		}
	}

	s.enter(log, StepServiceRegistered)
	if err := s.deps.Units.WriteUnits(ctx, cfg.Port, serverDir); err != nil {
		return nil, stepError(StepServiceRegistered, err)
	}

	if cfg.FTPUser != "" {
		s.enter(log, StepAccessConfigured)
		if err := s.deps.FTP.Configure(ctx, cfg.FTPUser, cfg.FTPPassword, cfg.InstallRoot); err != nil {
			return nil, stepError(StepAccessConfigured, err)
		}
	}

	if cfg.ConfigureFirewall {
		s.enter(log, StepFirewallOpened)
		if err := s.openFirewall(ctx, cfg); err != nil {
			return nil, stepError(StepFirewallOpened, err)
		}
	}

	s.enter(log, StepPermissionsNormalized)
	if err := s.deps.Permissions.Normalize(ctx, filepath.Join(cfg.InstallRoot, "et")); err != nil {
		return nil, stepError(StepPermissionsNormalized, err)
	}

	s.enter(log, StepStarted)
	active, err := s.start(ctx, cfg.Port)
	if err != nil {
		return nil, stepError(StepStarted, err)
	}
	result.Active = active
	if !active {
		log.Warnf("Server did not report active within %s", s.opts.StartWait)
	}

	log.WithField("active", active).Info("Installation completed")
	return result, nil
}

func (s *Services) checkPortFree(port uint16) error {
	if _, found, err := s.deps.Registry.Find(port); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%w: %d", ErrPortInUse, port)
	}
	exists, err := s.deps.Units.UnitExists(port)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %d (%s present)", ErrPortInUse, port, models.ServerUnitName(port))
	}
	return nil
}

func (s *Services) prepare(ctx context.Context, serverDir string) error {
	if err := s.deps.Permissions.EnsureGroup(ctx); err != nil {
		return err
	}
	for _, dir := range []string{
		serverDir,
		filepath.Join(serverDir, models.BaseGameDir),
		filepath.Join(serverDir, models.ModDir),
	} {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return common.FSError("mkdir", dir, err)
		}
	}
	if len(s.opts.Packages) == 0 {
		return nil
	}
	if err := s.deps.Packages.Update(ctx); err != nil {
		return err
	}
	return s.deps.Packages.Install(ctx, s.opts.Packages...)
}

func (s *Services) configure(log *logger.Logger, cfg models.InstanceConfig, serverDir string) ([]string, error) {
	missing, err := servercfg.PatchFile(models.ConfigPath(serverDir), servercfg.SettingsFor(cfg))
	if err != nil {
		return nil, err
	}
	for _, key := range missing {
		log.WithField("key", key).Warn("Config file has no line for setting")
	}
	if _, err := servercfg.WriteStartScript(serverDir, cfg.Port, s.opts.GOARCH); err != nil {
		return nil, err
	}
	if err := common.WriteVersionMarker(serverDir, cfg.Release.Version); err != nil {
		return nil, err
	}
	return missing, nil
}

func (s *Services) openFirewall(ctx context.Context, cfg models.InstanceConfig) error {
	if err := s.deps.Firewall.OpenGamePort(ctx, cfg.Port); err != nil {
		return err
	}
	if cfg.FTPUser != "" {
		if err := s.deps.Firewall.OpenFTPRange(ctx); err != nil {
			return err
		}
	}
	return s.deps.Firewall.EnsureEnabled(ctx)
}

// start launches the run unit and the restart timer, then waits up to
// StartWait for the run unit to report active
func (s *Services) start(ctx context.Context, port uint16) (bool, error) {
	if err := s.deps.Controller.Start(ctx, models.ServerUnitName(port)); err != nil {
		return false, err
	}
	if err := s.deps.Controller.Start(ctx, models.TimerUnitName(port)); err != nil {
		return false, err
	}
	return s.waitActive(ctx, models.ServerUnitName(port))
}

func (s *Services) waitActive(ctx context.Context, unit string) (bool, error) {
	deadline := s.now().Add(s.opts.StartWait)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		active, err := s.deps.Controller.IsActive(ctx, unit)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
		if !s.now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Services) cleanupArtifact(log *logger.Logger, artifact string) {
	if s.opts.KeepArtifacts {
		return
	}
	result := files.DeleteFiles([]string{artifact}, log)
	if len(result.Errors) > 0 {
		log.Warnf("Installer %s was left in place", artifact)
	}
}
