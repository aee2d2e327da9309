package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/CloudNativeWorks/etlctl/internal/cmdrunner"
	"github.com/CloudNativeWorks/etlctl/internal/handlers"
	"github.com/CloudNativeWorks/etlctl/internal/initializer"
	"github.com/CloudNativeWorks/etlctl/internal/operations/catalog"
	"github.com/CloudNativeWorks/etlctl/internal/operations/fetcher"
	"github.com/CloudNativeWorks/etlctl/internal/operations/firewall"
	"github.com/CloudNativeWorks/etlctl/internal/operations/ftp"
	"github.com/CloudNativeWorks/etlctl/internal/operations/installer"
	"github.com/CloudNativeWorks/etlctl/internal/operations/maps"
	"github.com/CloudNativeWorks/etlctl/internal/operations/packages"
	"github.com/CloudNativeWorks/etlctl/internal/operations/permissions"
	"github.com/CloudNativeWorks/etlctl/internal/operations/registry"
	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/internal/services"
)

// app holds every wired component a command may need
type app struct {
	runner   *cmdrunner.CommandsRunner
	services *services.Services
	catalog  *catalog.Catalog
	packages *packages.Manager
}

// newApp wires the components from the loaded configuration
func newApp() (*app, error) {
	if Cfg == nil || Log == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	init := initializer.NewInitializer(Cfg, Log)
	if err := init.CheckPrivileges(); err != nil {
		return nil, err
	}
	if err := init.PlaceWorkDirs(); err != nil {
		return nil, err
	}

	runner := cmdrunner.NewCommandsRunner(Log)
	controller := systemd.NewController(runner, Log)
	pkgs := packages.NewManager(runner, Log)
	perms := permissions.NewPermissionManager(Cfg.Server.Group, runner, Log)

	fw, err := firewall.New(Cfg.Firewall, runner, pkgs, Log)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewCatalog(Cfg.Catalog, runtime.GOARCH, Log)
	if err != nil {
		return nil, err
	}

	releaseFetcher := fetcher.NewFetcher(Cfg.Paths.DownloadDir, Log)
	releaseFetcher.SetProgress(Console.TransferProgress("Downloading"))

	svc := services.NewServices(services.Deps{
		Fetcher:     releaseFetcher,
		Installer:   installer.NewInstaller(runner, Log),
		Packages:    pkgs,
		Units:       systemd.NewUnitWriter(Cfg.Paths.UnitDir, Cfg.Server.RestartTime, controller, Log),
		Controller:  controller,
		Permissions: perms,
		Firewall:    fw,
		Registry:    registry.NewRegistry(Cfg.Paths.UnitDir, Log),
		Maps:        maps.NewInstaller(Cfg.Maps, fetcher.NewFetcher(Cfg.Paths.DownloadDir, Log), Log),
		FTP: ftp.NewProvisioner(ftp.Paths{
			VsftpdConf: Cfg.Paths.VsftpdConf,
			SshdConf:   Cfg.Paths.SshdConf,
		}, runner, pkgs, perms, controller, Log),
	}, services.Options{
		GOARCH:        runtime.GOARCH,
		Packages:      Cfg.Server.Packages,
		StartWait:     Cfg.Server.StartWait,
		KeepArtifacts: Cfg.Server.KeepArtifacts,
		DownloadDir:   Cfg.Paths.DownloadDir,
	}, Log)
	svc.SetMapProgress(Console.ItemProgress("Maps"))

	return &app{
		runner:   runner,
		services: svc,
		catalog:  cat,
		packages: pkgs,
	}, nil
}

func (a *app) editor() *handlers.CommandEditor {
	return handlers.NewCommandEditor(a.runner, a.packages, Cfg.Server.Editor)
}

func (a *app) prompter() *handlers.TermPrompter {
	return handlers.NewTermPrompter(os.Stdin, os.Stdout)
}
