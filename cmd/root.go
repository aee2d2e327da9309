package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/pkg/console"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	Cfg      *config.Config
	Log      *logger.Logger
	Console  *console.Console
	Version  string
)

var RootCmd = &cobra.Command{
	Use:   "etlctl",
	Short: "etlctl - ET: Legacy dedicated server installer and manager",
	Long: `etlctl installs ET: Legacy dedicated servers from the vendor releases, registers
them as systemd services and manages their lifecycle, maps, firewall rules and FTP access.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute(ctx context.Context, version string) error {
	Version = version
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./etlctl.yaml, /etc/etlctl/etlctl.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config file)")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	var err error

	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration could not be loaded: %w", err)
	}

	if logLevel != "" {
		Cfg.Logging.Level = logLevel
	}

	Log, err = logger.New(Cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("logger could not be initialized: %w", err)
	}
	Console = console.New(os.Stdout, Log)

	Log.WithField("command", cmd.CommandPath()).Debug("Configuration loaded")
	return nil
}
