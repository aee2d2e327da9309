package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/envfile"
	"github.com/CloudNativeWorks/etlctl/internal/initializer"
	"github.com/CloudNativeWorks/etlctl/internal/services"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

var (
	exportFile    string
	editLegacy    string
	editNoRestart bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [FILE]",
	Short: "Write an env file template with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := "etl_server.env"
		if len(args) == 1 {
			dest = args[0]
		}
		written, err := initializer.NewInitializer(Cfg, Log).PlaceEnvTemplate(dest)
		if err != nil {
			return err
		}
		if written {
			Console.Success("Template written to %s", dest)
		} else {
			Console.Warn("%s already exists, left unchanged", dest)
		}
		return nil
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export PORT",
	Short: "Export the settings of an installed server to an env file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := parsePort(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		inst, err := a.services.Instance(port)
		if err != nil {
			return err
		}
		values, err := envfile.FromInstance(inst)
		if err != nil {
			return err
		}
		dest := exportFile
		if dest == "" {
			dest = envfile.ExportName(port)
		}
		if err := envfile.Write(dest, values); err != nil {
			return err
		}
		Console.Success("Settings written to %s", dest)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit PORT",
	Short: "Edit etl_server.cfg or a legacy config in a text editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := parsePort(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		inst, err := a.services.Instance(port)
		if err != nil {
			return err
		}

		target := inst.ConfigPath()
		if editLegacy != "" {
			target = filepath.Join(inst.ServerDir, models.ModDir, "configs", filepath.Base(editLegacy))
		}
		if err := a.editor().Edit(cmd.Context(), target); err != nil {
			return err
		}
		if editNoRestart {
			return nil
		}
		status, err := a.services.ServiceAction(cmd.Context(), port, services.ActionRestart)
		if err != nil {
			return err
		}
		Console.Success("%s restarted: %s", status.Unit, status.Active)
		return nil
	},
}

func init() {
	configExportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "destination (default: etl_server_<port>.env)")
	configEditCmd.Flags().StringVar(&editLegacy, "legacy", "", "edit this file from legacy/configs instead")
	configEditCmd.Flags().BoolVar(&editNoRestart, "no-restart", false, "do not restart the server afterwards")

	configCmd.AddCommand(configInitCmd, configExportCmd, configEditCmd)
	RootCmd.AddCommand(configCmd)
}
