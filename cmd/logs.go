package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/operations/journal"
	"github.com/CloudNativeWorks/etlctl/internal/services"
)

var (
	logsSource string
	logsCount  uint32
	logsOutput string
)

var logsCmd = &cobra.Command{
	Use:   "logs [PORT]",
	Short: "Show server or etlctl logs",
	Long: `Show the last entries of a server's journal or console log. Without a port the
entries of etlctl's own log file are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		var entries []journal.Entry
		if len(args) == 0 {
			entries, err = a.services.ToolLogs(Cfg.Logging.File, logsCount)
		} else {
			port, perr := parsePort(args[0])
			if perr != nil {
				return perr
			}
			entries, err = a.services.InstanceLogs(port, services.LogSource(logsSource), logsCount)
		}
		if err != nil {
			return err
		}

		if done, err := printStructured(cmd.OutOrStdout(), logsOutput, entries); done {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-7s %s\n", e.Timestamp, e.Level, e.Message)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVarP(&logsSource, "source", "s", string(services.LogJournal), "log source: journal or console")
	logsCmd.Flags().Uint32VarP(&logsCount, "lines", "n", 50, "number of entries to show")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", outputTable, "output format: table, yaml or json")
	RootCmd.AddCommand(logsCmd)
}
