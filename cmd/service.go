package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/services"
)

var statusOutput string

func newServiceCmd(action services.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " PORT",
		Short: short,
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
			status, err := a.services.ServiceAction(cmd.Context(), port, action)
			if err != nil {
				return err
			}
			if action != services.ActionStatus {
				Console.Success("%s %s: %s", status.Unit, action, status.Active)
				return nil
			}
			if done, err := printStructured(cmd.OutOrStdout(), statusOutput, status); done {
				return err
			}
			Console.Table([]string{"Field", "Value"}, [][]string{
				{"Unit", status.Unit},
				{"Loaded", status.Loaded},
				{"Active", status.Active},
				{"Main PID", status.MainPid},
				{"Tasks", status.Tasks},
				{"Memory", status.Memory},
				{"CPU", status.CPU},
				{"CGroup", strings.Join(status.CGroup, "\n")},
			})
			return nil
		},
	}
}

func init() {
	statusCmd := newServiceCmd(services.ActionStatus, "Show the systemd status of a server")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", outputTable, "output format: table, yaml or json")

	RootCmd.AddCommand(
		newServiceCmd(services.ActionStart, "Start a server"),
		newServiceCmd(services.ActionStop, "Stop a server"),
		newServiceCmd(services.ActionRestart, "Restart a server"),
		statusCmd,
	)
}
