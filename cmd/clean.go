package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cleanBackups string
	cleanKeep    int
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove downloaded installers and old update backups",
	Long: `Remove downloaded installers from the download directory. With --backups PORT the
update snapshots of that server are pruned as well, keeping the newest --keep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		deleted, err := a.services.CleanArtifacts()
		if err != nil {
			Console.Warn("Some installers could not be removed: %v", err)
		}
		Console.Info("Removed %d downloaded installers", len(deleted))

		if cleanBackups == "" {
			return nil
		}
		port, err := parsePort(cleanBackups)
		if err != nil {
			return err
		}
		removed, err := a.services.PruneBackups(port, cleanKeep)
		for _, dir := range removed {
			Console.Muted("%s", dir)
		}
		if err != nil {
			return err
		}
		Console.Success("Removed %d backups of port %d", len(removed), port)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanBackups, "backups", "", "also prune update backups of this server port")
	cleanCmd.Flags().IntVar(&cleanKeep, "keep", 1, "number of backups to keep")
	RootCmd.AddCommand(cleanCmd)
}
