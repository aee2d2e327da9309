package cmd

import (
	"github.com/spf13/cobra"
)

var firewallFTP bool

var firewallCmd = &cobra.Command{
	Use:   "firewall PORT",
	Short: "Open a game port (and optionally the FTP ports) in the firewall",
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
		if err := a.services.OpenFirewall(cmd.Context(), port, firewallFTP); err != nil {
			return err
		}
		Console.Success("Firewall updated for port %d/udp", port)
		return nil
	},
}

func init() {
	firewallCmd.Flags().BoolVar(&firewallFTP, "ftp", false, "also open 20, 21, 990 and 40000:50000 tcp")
	RootCmd.AddCommand(firewallCmd)
}
