package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/services"
)

var (
	updateVersion string
	updateRestart bool
)

var updateCmd = &cobra.Command{
	Use:   "update PORT",
	Short: "Update a server to another release",
	Long: `Reinstall the server binaries from another release. etl_server.cfg, legacy/configs,
legacy/mapscripts and custom maps are kept and a backup is written next to the server.`,
	Args: cobra.ExactArgs(1),
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
		release, err := pickRelease(cmd.Context(), a, updateVersion)
		if err != nil {
			return err
		}

		Console.Info("Updating %s from %s to %s", inst.Name, inst.Version, release.Label())
		result, err := a.services.Update(cmd.Context(), inst, release)
		if err != nil {
			return err
		}
		Console.Success("Updated to %s", result.ToVersion)
		Console.Muted("Backup saved to: %s", result.BackupDir)

		if !updateRestart {
			Console.Muted("Restart the server to run the new version: etlctl restart %d", port)
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
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "release version or build hash (default: latest stable)")
	updateCmd.Flags().BoolVar(&updateRestart, "restart", false, "restart the server after updating")
	RootCmd.AddCommand(updateCmd)
}
