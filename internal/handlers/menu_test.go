package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/internal/operations/journal"
	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/internal/services"
	"github.com/CloudNativeWorks/etlctl/pkg/console"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

type scriptedPrompter struct {
	answers []string
	asked   []string
}

func (p *scriptedPrompter) next(label string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Ask(label, def string) (string, error) {
	a, err := p.next(label)
	if err == nil && a == "" {
		return def, nil
	}
	return a, err
}

func (p *scriptedPrompter) Secret(label string) (string, error) {
	return p.next(label)
}

type fakeServers struct {
	instances []models.Instance
	actions   []string
	installed []models.InstanceConfig
	actionErr error
}

func (f *fakeServers) Install(_ context.Context, cfg models.InstanceConfig) (*services.InstallResult, error) {
	f.installed = append(f.installed, cfg)
	return &services.InstallResult{
		Instance: models.Instance{Name: cfg.ServerName, Port: cfg.Port, ServerDir: cfg.ServerDir()},
		Active:   true,
	}, nil
}

func (f *fakeServers) Update(_ context.Context, inst models.Instance, r models.Release) (*services.UpdateResult, error) {
	return &services.UpdateResult{FromVersion: inst.Version, ToVersion: r.Version}, nil
}

func (f *fakeServers) Instances() ([]models.Instance, error) { return f.instances, nil }

func (f *fakeServers) ServiceAction(_ context.Context, port uint16, action services.Action) (*systemd.ServiceStatus, error) {
	f.actions = append(f.actions, string(action)+" "+models.ServerUnitName(port))
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &systemd.ServiceStatus{Unit: models.ServerUnitName(port), Active: "active (running)"}, nil
}

func (f *fakeServers) InstanceLogs(uint16, services.LogSource, uint32) ([]journal.Entry, error) {
	return []journal.Entry{{Timestamp: "2026-10-19 05:00:00", Level: "info", Message: "map supply loaded"}}, nil
}

func (f *fakeServers) InstallStandardMaps(context.Context, uint16) (int, int, error) { return 40, 0, nil }

func (f *fakeServers) InstallCustomMap(context.Context, uint16, string, string) error { return nil }

func (f *fakeServers) OpenFirewall(context.Context, uint16, bool) error { return nil }

type fakeReleases struct{}

func (fakeReleases) ListReleases(context.Context) ([]models.Release, error) {
	return []models.Release{
		{Version: "2.83.2", Source: models.SourceStable, FetchURL: "https://example.invalid/file/1"},
		{Version: "2.83.2-74", Source: models.SourceDevelopment, BuildHash: "abc1234", FetchURL: "https://example.invalid/dev.sh"},
	}, nil
}

type fakeEditor struct{ edited []string }

func (f *fakeEditor) Edit(_ context.Context, path string) error {
	f.edited = append(f.edited, path)
	return nil
}

func newTestMenu(servers *fakeServers, answers ...string) (*Menu, *scriptedPrompter, *bytes.Buffer, *fakeEditor) {
	var out bytes.Buffer
	p := &scriptedPrompter{answers: answers}
	ed := &fakeEditor{}
	m := NewMenu(servers, fakeReleases{}, ed, p, console.New(&out, logger.NewNop()), Options{ExportDir: os.TempDir()}, logger.NewNop())
	return m, p, &out, ed
}

var testInstance = models.Instance{Name: "ET Legacy Server", Port: 27960, Version: "2.83.1", ServerDir: "/home/etlegacy/et/27960"}

func TestMenu_StartSelectedServer(t *testing.T) {
	servers := &fakeServers{instances: []models.Instance{testInstance}}
	m, _, _, _ := newTestMenu(servers, "2", "1", "1", "b", "b", "4")

	st := &State{}
	require.NoError(t, m.Run(context.Background(), st))
	assert.True(t, st.Quit)
	assert.Equal(t, []string{"start etlserver-27960.service"}, servers.actions)
}

func TestMenu_InvalidChoice(t *testing.T) {
	m, _, out, _ := newTestMenu(&fakeServers{}, "9", "4")
	require.NoError(t, m.Run(context.Background(), &State{}))
	assert.Contains(t, out.String(), `Invalid choice "9"`)
}

func TestMenu_InvalidServerNumber(t *testing.T) {
	servers := &fakeServers{instances: []models.Instance{testInstance}}
	m, _, out, _ := newTestMenu(servers, "2", "5", "b", "4")

	st := &State{}
	require.NoError(t, m.Run(context.Background(), st))
	assert.Contains(t, out.String(), "Invalid server number.")
	assert.Nil(t, st.Selected)
}

func TestMenu_FailedActionReturnsToMenu(t *testing.T) {
	servers := &fakeServers{instances: []models.Instance{testInstance}, actionErr: errors.New("unit not found")}
	m, _, out, _ := newTestMenu(servers, "2", "1", "2", "b", "b", "4")

	st := &State{}
	require.NoError(t, m.Run(context.Background(), st))
	assert.Contains(t, out.String(), "Operation failed: unit not found")
	assert.True(t, st.Quit)
}

func TestMenu_PanicIsRecovered(t *testing.T) {
	m, _, out, _ := newTestMenu(&fakeServers{}, "x", "4")
	m.Register(ScreenMain, "x", "Explode", func(context.Context, *State, string) error {
		panic("malformed release metadata")
	})

	st := &State{}
	require.NoError(t, m.Run(context.Background(), st))
	assert.Contains(t, out.String(), "malformed release metadata")
	assert.True(t, st.Quit)
}

func TestMenu_EndOfInputStops(t *testing.T) {
	m, _, _, _ := newTestMenu(&fakeServers{}, "2")
	st := &State{}
	require.NoError(t, m.Run(context.Background(), st))
	assert.Equal(t, ScreenServers, st.Screen)
}

func TestMenu_EditConfigAndRestart(t *testing.T) {
	servers := &fakeServers{instances: []models.Instance{testInstance}}
	m, _, _, ed := newTestMenu(servers, "2", "1", "6", "1", "y", "b", "b", "b", "4")

	require.NoError(t, m.Run(context.Background(), &State{}))
	assert.Equal(t, []string{"/home/etlegacy/et/27960/etmain/etl_server.cfg"}, ed.edited)
	assert.Equal(t, []string{"restart etlserver-27960.service"}, servers.actions)
}

func TestMenu_InstallFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "server.env")
	require.NoError(t, os.WriteFile(envPath, []byte(`servername='Clan Wars'
port=27961
sv_maxclients=12
installDir=`+dir+`
version=2.83.2
version_url=https://example.invalid/file/1
install_maps=false
`), 0600))

	servers := &fakeServers{}
	m, _, _, _ := newTestMenu(servers, "1", envPath, "y", "b", "b", "4")
	require.NoError(t, m.Run(context.Background(), &State{}))

	require.Len(t, servers.installed, 1)
	cfg := servers.installed[0]
	assert.Equal(t, "Clan Wars", cfg.ServerName)
	assert.Equal(t, uint16(27961), cfg.Port)
	assert.Equal(t, 12, cfg.MaxClients)
	assert.False(t, cfg.InstallMaps)
	assert.True(t, cfg.ConfigureFirewall)
	assert.Equal(t, "2.83.2", cfg.Release.Version)
}

func TestMenu_InstallManual(t *testing.T) {
	root := t.TempDir()
	servers := &fakeServers{}
	m, _, _, _ := newTestMenu(servers,
		"1", "", // install, no env file
		"Public Server", "", "", "", // name, port, max clients, private slots
		"", "", "rcon!", "", "", // secrets
		"", root, "", "n", "n", "", // hidden, dir, base url, maps, firewall, ftp user
		"2",    // development release
		"y",    // proceed
		"n",    // do not save env file
		"b", "b", "4",
	)
	require.NoError(t, m.Run(context.Background(), &State{}))

	require.Len(t, servers.installed, 1)
	cfg := servers.installed[0]
	assert.Equal(t, "Public Server", cfg.ServerName)
	assert.Equal(t, uint16(27960), cfg.Port)
	assert.Equal(t, 16, cfg.MaxClients)
	assert.Equal(t, "rcon!", cfg.RconPassword)
	assert.Equal(t, root, cfg.InstallRoot)
	assert.Equal(t, "2.83.2-74", cfg.Release.Version)
	assert.NoError(t, cfg.Validate())
}

func TestLookup(t *testing.T) {
	m, _, _, _ := newTestMenu(&fakeServers{})

	_, ok := m.Lookup(ScreenServers, "12")
	assert.True(t, ok)
	_, ok = m.Lookup(ScreenServers, "x")
	assert.False(t, ok)
	_, ok = m.Lookup(ScreenServer, " B ")
	assert.True(t, ok)
	_, ok = m.Lookup(ScreenMain, "12")
	assert.False(t, ok)
}

func TestState_Back(t *testing.T) {
	st := &State{}
	st.Select(testInstance)
	st.Screen = ScreenMaps

	st.Back()
	assert.Equal(t, ScreenServer, st.Screen)
	st.Back()
	assert.Equal(t, ScreenServers, st.Screen)
	assert.Nil(t, st.Selected)
	st.Back()
	assert.Equal(t, ScreenMain, st.Screen)
}

func TestAskInt_Reasks(t *testing.T) {
	p := &scriptedPrompter{answers: []string{"abc", "70", "32"}}
	n, err := AskInt(p, "Max clients", 16, 1, 64)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Len(t, p.asked, 3)
}

func TestAskBool(t *testing.T) {
	p := &scriptedPrompter{answers: []string{"maybe", "YES", ""}}
	v, err := AskBool(p, "Continue", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = AskBool(p, "Continue", false)
	require.NoError(t, err)
	assert.False(t, v)
}

type fakeInteractive struct{ cmd, arg string }

func (f *fakeInteractive) RunInteractive(_ context.Context, cmd string, args ...string) error {
	f.cmd, f.arg = cmd, args[0]
	return nil
}

type fakeEnsure struct{ ensured []string }

func (f *fakeEnsure) EnsureCommand(_ context.Context, binary, _ string) error {
	f.ensured = append(f.ensured, binary)
	return nil
}

func TestCommandEditor(t *testing.T) {
	file := filepath.Join(t.TempDir(), "etl_server.cfg")
	require.NoError(t, os.WriteFile(file, []byte("set sv_hostname \"x\"\n"), 0664))

	runner := &fakeInteractive{}
	pkgs := &fakeEnsure{}
	e := NewCommandEditor(runner, pkgs, "micro")
	e.lookPath = func(name string) (string, error) {
		if name == "vim" {
			return "/usr/bin/vim", nil
		}
		return "", errors.New("not found")
	}
	require.NoError(t, e.Edit(context.Background(), file))
	assert.Equal(t, "/usr/bin/vim", runner.cmd)
	assert.Equal(t, file, runner.arg)

	e.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	require.NoError(t, e.Edit(context.Background(), file))
	assert.Equal(t, []string{"nano"}, pkgs.ensured)
	assert.Equal(t, "nano", runner.cmd)

	assert.Error(t, e.Edit(context.Background(), filepath.Join(t.TempDir(), "missing.cfg")))
}
