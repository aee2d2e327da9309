package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		instances, err := a.services.Instances()
		if err != nil {
			return err
		}
		if done, err := printStructured(cmd.OutOrStdout(), listOutput, instances); done {
			return err
		}
		if len(instances) == 0 {
			Console.Warn("No servers installed yet.")
			return nil
		}
		rows := make([][]string, 0, len(instances))
		for _, inst := range instances {
			rows = append(rows, []string{strconv.Itoa(int(inst.Port)), inst.Name, inst.Version, inst.ServerDir})
		}
		Console.Table([]string{"Port", "Name", "Version", "Directory"}, rows)
		return nil
	},
}

var releasesOutput string

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "List installable ET: Legacy releases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		releases, err := a.catalog.ListReleases(cmd.Context())
		if err != nil {
			return err
		}
		if done, err := printStructured(cmd.OutOrStdout(), releasesOutput, releases); done {
			return err
		}
		rows := make([][]string, 0, len(releases))
		for i, r := range releases {
			rows = append(rows, []string{strconv.Itoa(i + 1), r.Version, r.Source, r.BuildHash, r.FetchURL})
		}
		Console.Table([]string{"#", "Version", "Type", "Build", "URL"}, rows)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", outputTable, "output format: table, yaml or json")
	releasesCmd.Flags().StringVarP(&releasesOutput, "output", "o", outputTable, "output format: table, yaml or json")
	RootCmd.AddCommand(listCmd, releasesCmd)
}
