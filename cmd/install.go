package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CloudNativeWorks/etlctl/internal/envfile"
	"github.com/CloudNativeWorks/etlctl/internal/handlers"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
	"github.com/CloudNativeWorks/etlctl/pkg/tools"
)

var (
	installEnvFile string
	installVersion string
	installSaveEnv string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a new server",
	Long: `Install a new ET: Legacy server. Settings are read from --env-file when given,
otherwise they are asked for interactively. The release defaults to the latest stable one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		prompt := a.prompter()

		var cfg models.InstanceConfig
		if installEnvFile != "" {
			values, err := envfile.Read(installEnvFile)
			if err != nil {
				return err
			}
			if cfg, err = values.ToConfig(); err != nil {
				return err
			}
			if cfg.FTPUser != "" {
				if cfg.FTPPassword, err = prompt.Secret(fmt.Sprintf("FTP password for %s", cfg.FTPUser)); err != nil {
					return err
				}
			}
		} else {
			if cfg, err = handlers.AskInstanceConfig(prompt, handlers.DefaultInstanceConfig(Cfg.Paths.InstallRoot)); err != nil {
				return err
			}
		}

		if cfg.Release.FetchURL == "" || installVersion != "" {
			release, err := pickRelease(cmd.Context(), a, installVersion)
			if err != nil {
				return err
			}
			cfg.Release = release
		}

		Console.Info("Installing ET: Legacy %s on port %d", cfg.Release.Label(), cfg.Port)
		result, err := a.services.Install(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		Console.Success("Server installation complete!")
		if len(result.MissingKeys) > 0 {
			Console.Warn("Config file has no line for: %s", strings.Join(result.MissingKeys, ", "))
		}
		if !result.Active {
			Console.Warn("The server has not reported active yet, check `etlctl logs %d`.", cfg.Port)
		}
		ip, err := tools.PrimaryIPv4()
		if err != nil {
			Log.WithError(err).Debug("Could not determine host address")
		}
		Console.Info("Connect with: /connect %s", tools.ConnectAddress(ip, cfg.Port))

		if installSaveEnv != "" {
			if err := envfile.Write(installSaveEnv, envfile.FromConfig(cfg)); err != nil {
				return err
			}
			Console.Success("Settings written to %s", installSaveEnv)
		}
		return nil
	},
}

// pickRelease returns the release labelled version, or the first listed one
// (the stable release) when version is empty
func pickRelease(ctx context.Context, a *app, version string) (models.Release, error) {
	releases, err := a.catalog.ListReleases(ctx)
	if err != nil {
		return models.Release{}, err
	}
	if len(releases) == 0 {
		return models.Release{}, fmt.Errorf("no releases available")
	}
	if version == "" {
		return releases[0], nil
	}
	version = strings.TrimPrefix(version, "v")
	for _, r := range releases {
		if r.Version == version || r.BuildHash == version {
			return r, nil
		}
	}
	return models.Release{}, fmt.Errorf("release %s is not available, see `etlctl releases`", version)
}

func init() {
	installCmd.Flags().StringVarP(&installEnvFile, "env-file", "f", "", "read server settings from this env file")
	installCmd.Flags().StringVar(&installVersion, "version", "", "release version or build hash to install")
	installCmd.Flags().StringVar(&installSaveEnv, "save-env", "", "write the settings used to this env file")
	RootCmd.AddCommand(installCmd)
}
