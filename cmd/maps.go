package cmd

import (
	"path"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/operations/maps"
	"github.com/CloudNativeWorks/etlctl/pkg/tools"
)

var (
	mapsURL  string
	mapsName string
	mapsList bool
)

var mapsCmd = &cobra.Command{
	Use:   "maps PORT",
	Short: "Install the standard map pack or a custom map",
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

		if mapsList {
			inst, err := a.services.Instance(port)
			if err != nil {
				return err
			}
			files, err := maps.ListMaps(inst.ServerDir)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{f.Name, tools.HumanSize(f.Size)})
			}
			Console.Table([]string{"Map", "Size"}, rows)
			return nil
		}

		if mapsURL != "" {
			name := mapsName
			if name == "" {
				name = path.Base(mapsURL)
			}
			if err := a.services.InstallCustomMap(cmd.Context(), port, mapsURL, name); err != nil {
				return err
			}
			Console.Success("Installed %s", name)
			return nil
		}

		installed, failed, err := a.services.InstallStandardMaps(cmd.Context(), port)
		if err != nil {
			return err
		}
		if failed > 0 {
			Console.Warn("%d maps installed, %d failed (see log)", installed, failed)
			return nil
		}
		Console.Success("Standard map pack installed (%d new maps)", installed)
		return nil
	},
}

func init() {
	mapsCmd.Flags().StringVar(&mapsURL, "url", "", "download a single map from this URL")
	mapsCmd.Flags().StringVar(&mapsName, "name", "", "file name for --url (default: last URL segment)")
	mapsCmd.Flags().BoolVar(&mapsList, "list", false, "list installed maps")
	RootCmd.AddCommand(mapsCmd)
}
