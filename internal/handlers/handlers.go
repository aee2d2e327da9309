package handlers

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/CloudNativeWorks/etlctl/internal/envfile"
	"github.com/CloudNativeWorks/etlctl/internal/operations/maps"
	"github.com/CloudNativeWorks/etlctl/internal/services"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
	"github.com/CloudNativeWorks/etlctl/pkg/tools"
)

func (m *Menu) goTo(screen Screen) ActionFunc {
	return func(_ context.Context, st *State, _ string) error {
		st.Screen = screen
		return nil
	}
}

func (m *Menu) back(_ context.Context, st *State, _ string) error {
	st.Back()
	return nil
}

func (m *Menu) quit(_ context.Context, st *State, _ string) error {
	st.Quit = true
	return nil
}

func (m *Menu) renderServers() {
	instances, err := m.servers.Instances()
	if err != nil {
		m.console.Error("Failed to list servers: %v", err)
		return
	}
	if len(instances) == 0 {
		m.console.Warn("No servers installed yet.")
		return
	}
	rows := make([][]string, 0, len(instances))
	for i, inst := range instances {
		rows = append(rows, []string{strconv.Itoa(i + 1), inst.Name, strconv.Itoa(int(inst.Port)), inst.Version, inst.ServerDir})
	}
	m.console.Table([]string{"#", "Name", "Port", "Version", "Directory"}, rows)
}

func (m *Menu) selectServer(_ context.Context, st *State, choice string) error {
	n, _ := strconv.Atoi(choice)
	instances, err := m.servers.Instances()
	if err != nil {
		return err
	}
	if n < 1 || n > len(instances) {
		m.console.Warn("Invalid server number.")
		return nil
	}
	st.Select(instances[n-1])
	return nil
}

func (m *Menu) serviceAction(action services.Action) ActionFunc {
	return func(ctx context.Context, st *State, _ string) error {
		status, err := m.servers.ServiceAction(ctx, st.Selected.Port, action)
		if err != nil {
			return err
		}
		if action != services.ActionStatus {
			m.console.Success("Server %s: %s", action, status.Active)
			return nil
		}
		m.console.Table([]string{"Field", "Value"}, [][]string{
			{"Unit", status.Unit},
			{"Loaded", status.Loaded},
			{"Active", status.Active},
			{"Main PID", status.MainPid},
			{"Memory", status.Memory},
			{"CPU", status.CPU},
		})
		return nil
	}
}

func (m *Menu) viewLogs(_ context.Context, st *State, _ string) error {
	source, err := m.prompt.Ask("Log source (journal/console)", string(services.LogJournal))
	if err != nil {
		return err
	}
	entries, err := m.servers.InstanceLogs(st.Selected.Port, services.LogSource(source), m.opts.LogCount)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		m.console.Warn("No log entries found.")
		return nil
	}
	for _, e := range entries {
		m.console.Printf("%s %-7s %s\n", e.Timestamp, e.Level, e.Message)
	}
	return nil
}

func (m *Menu) editMainConfig(ctx context.Context, st *State, _ string) error {
	if err := m.editor.Edit(ctx, st.Selected.ConfigPath()); err != nil {
		return err
	}
	return m.offerRestart(ctx, st)
}

func (m *Menu) editLegacyConfig(ctx context.Context, st *State, _ string) error {
	dir := filepath.Join(st.Selected.ServerDir, models.ModDir, "configs")
	matches, err := filepath.Glob(filepath.Join(dir, "*.config"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		m.console.Warn("No legacy config files found in %s", dir)
		return nil
	}
	sort.Strings(matches)
	for i, p := range matches {
		m.console.Printf("  [%d] %s\n", i+1, filepath.Base(p))
	}
	idx, err := AskChoice(m.prompt, "Select config file (b to go back)", len(matches))
	if err != nil || idx < 0 {
		return err
	}
	if err := m.editor.Edit(ctx, matches[idx]); err != nil {
		return err
	}
	return m.offerRestart(ctx, st)
}

func (m *Menu) offerRestart(ctx context.Context, st *State) error {
	restart, err := AskBool(m.prompt, "Restart the server to apply changes", true)
	if err != nil || !restart {
		return err
	}
	_, err = m.servers.ServiceAction(ctx, st.Selected.Port, services.ActionRestart)
	if err == nil {
		m.console.Success("Server restarted.")
	}
	return err
}

func (m *Menu) installStandardMaps(ctx context.Context, st *State, _ string) error {
	installed, failed, err := m.servers.InstallStandardMaps(ctx, st.Selected.Port)
	if err != nil {
		return err
	}
	if failed > 0 {
		m.console.Warn("%d maps installed, %d failed (see log)", installed, failed)
		return nil
	}
	m.console.Success("Standard map pack installed (%d new maps).", installed)
	return nil
}

func (m *Menu) installCustomMap(ctx context.Context, st *State, _ string) error {
	rawURL, err := m.prompt.Ask("Map download URL", "")
	if err != nil || rawURL == "" {
		return err
	}
	name, err := m.prompt.Ask("File name", path.Base(rawURL))
	if err != nil {
		return err
	}
	if err := maps.ValidateMapName(name); err != nil {
		return err
	}
	if err := m.servers.InstallCustomMap(ctx, st.Selected.Port, rawURL, name); err != nil {
		return err
	}
	m.console.Success("Installed %s", name)
	return nil
}

func (m *Menu) listMaps(_ context.Context, st *State, _ string) error {
	files, err := maps.ListMaps(st.Selected.ServerDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		m.console.Warn("No maps installed.")
		return nil
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Name, tools.HumanSize(f.Size)})
	}
	m.console.Table([]string{"Map", "Size"}, rows)
	return nil
}

func (m *Menu) chooseRelease(ctx context.Context) (*models.Release, error) {
	m.console.Info("Retrieving available ET: Legacy versions...")
	releases, err := m.releases.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(releases))
	for i, r := range releases {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Version, r.Source, r.BuildHash})
	}
	m.console.Table([]string{"#", "Version", "Type", "Build"}, rows)

	idx, err := AskChoice(m.prompt, "Select version (b to cancel)", len(releases))
	if err != nil || idx < 0 {
		return nil, err
	}
	return &releases[idx], nil
}

func (m *Menu) updateServer(ctx context.Context, st *State, _ string) error {
	release, err := m.chooseRelease(ctx)
	if err != nil || release == nil {
		return err
	}
	ok, err := AskBool(m.prompt, fmt.Sprintf("Update %s from %s to %s", st.Selected.Name, st.Selected.Version, release.Version), false)
	if err != nil || !ok {
		return err
	}

	result, err := m.servers.Update(ctx, *st.Selected, *release)
	if err != nil {
		return err
	}
	st.Selected.Version = result.ToVersion
	m.console.Success("Updated to %s", result.ToVersion)
	m.console.Muted("Backup saved to: %s", result.BackupDir)
	if len(result.MergedMaps) > 0 {
		m.console.Muted("Kept %d custom maps", len(result.MergedMaps))
	}
	return m.offerRestart(ctx, st)
}

func (m *Menu) exportSettings(_ context.Context, st *State, _ string) error {
	values, err := envfile.FromInstance(*st.Selected)
	if err != nil {
		return err
	}
	dest, err := m.prompt.Ask("Export to", filepath.Join(m.opts.ExportDir, envfile.ExportName(st.Selected.Port)))
	if err != nil {
		return err
	}
	if err := envfile.Write(dest, values); err != nil {
		return err
	}
	m.console.Success("Settings written to %s", dest)
	return nil
}

func (m *Menu) configureFirewall(ctx context.Context, _ *State, _ string) error {
	port, err := AskPort(m.prompt, "Game port to open", models.DefaultPort)
	if err != nil {
		return err
	}
	ftp, err := AskBool(m.prompt, "Also open the FTP ports", false)
	if err != nil {
		return err
	}
	if err := m.servers.OpenFirewall(ctx, port, ftp); err != nil {
		return err
	}
	m.console.Success("Firewall updated for port %d/udp", port)
	return nil
}

func (m *Menu) installServer(ctx context.Context, st *State, _ string) error {
	cfg, fromFile, err := m.collectInstallConfig()
	if err != nil {
		return err
	}
	if cfg.Release.FetchURL == "" {
		release, err := m.chooseRelease(ctx)
		if err != nil || release == nil {
			return err
		}
		cfg.Release = *release
	}

	m.console.Table([]string{"Setting", "Value"}, [][]string{
		{"Server name", cfg.ServerName},
		{"Port", strconv.Itoa(int(cfg.Port))},
		{"Max clients", strconv.Itoa(cfg.MaxClients)},
		{"Install directory", cfg.ServerDir()},
		{"Version", cfg.Release.Label()},
		{"Standard maps", strconv.FormatBool(cfg.InstallMaps)},
		{"Firewall", strconv.FormatBool(cfg.ConfigureFirewall)},
		{"FTP user", cfg.FTPUser},
	})
	ok, err := AskBool(m.prompt, "Proceed with installation", true)
	if err != nil {
		return err
	}
	if !ok {
		m.console.Warn("Installation cancelled.")
		return nil
	}

	result, err := m.servers.Install(ctx, cfg)
	if err != nil {
		return err
	}
	m.reportInstall(result)

	if !fromFile {
		save, err := AskBool(m.prompt, "Save these settings to an env file", false)
		if err != nil || !save {
			return err
		}
		dest := filepath.Join(m.opts.ExportDir, envfile.ExportName(cfg.Port))
		if err := envfile.Write(dest, envfile.FromConfig(cfg)); err != nil {
			return err
		}
		m.console.Success("Settings written to %s", dest)
	}
	st.Select(result.Instance)
	return nil
}

// collectInstallConfig loads an env file when the operator names one and
// prompts for everything otherwise
func (m *Menu) collectInstallConfig() (models.InstanceConfig, bool, error) {
	envPath, err := m.prompt.Ask("Env file to load (empty for manual setup)", "")
	if err != nil {
		return models.InstanceConfig{}, false, err
	}
	if envPath == "" {
		cfg, err := AskInstanceConfig(m.prompt, DefaultInstanceConfig(m.opts.InstallRoot))
		return cfg, false, err
	}

	values, err := envfile.Read(envPath)
	if err != nil {
		return models.InstanceConfig{}, true, err
	}
	cfg, err := values.ToConfig()
	if err != nil {
		return cfg, true, err
	}
	m.console.Success("Configuration loaded from %s", envPath)
	if cfg.FTPUser != "" {
		if cfg.FTPPassword, err = m.prompt.Secret(fmt.Sprintf("FTP password for %s", cfg.FTPUser)); err != nil {
			return cfg, true, err
		}
	}
	return cfg, true, nil
}

func (m *Menu) reportInstall(result *services.InstallResult) {
	m.console.Success("Server installation complete!")
	if len(result.MissingKeys) > 0 {
		m.console.Warn("Config file has no line for: %s", strings.Join(result.MissingKeys, ", "))
	}
	if result.MapsFailed > 0 {
		m.console.Warn("%d maps could not be downloaded", result.MapsFailed)
	}
	if !result.Active {
		m.console.Warn("The server has not reported active yet, check its logs.")
	}

	ip, err := tools.PrimaryIPv4()
	if err != nil {
		m.logger.WithError(err).Debug("Could not determine host address")
	}
	m.console.Info("Connect with: /connect %s", tools.ConnectAddress(ip, result.Instance.Port))
}
