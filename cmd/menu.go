package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/handlers"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Open the interactive server manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		wd, err := os.Getwd()
		if err != nil {
			wd = os.TempDir()
		}
		m := handlers.NewMenu(a.services, a.catalog, a.editor(), a.prompter(), Console, handlers.Options{
			InstallRoot: Cfg.Paths.InstallRoot,
			ExportDir:   wd,
		}, Log)
		return m.Run(cmd.Context(), &handlers.State{})
	},
}

func init() {
	RootCmd.AddCommand(menuCmd)
}
