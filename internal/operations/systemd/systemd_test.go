package systemd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeRunner) record(cmd string, args []string) string {
	line := strings.Join(append([]string{cmd}, args...), " ")
	f.calls = append(f.calls, line)
	return line
}

func (f *fakeRunner) RunWithS(_ context.Context, cmd string, args ...string) error {
	return f.fail[f.record(cmd, args)]
}

func (f *fakeRunner) RunWithOutputSNoErrLog(_ context.Context, cmd string, args ...string) ([]byte, error) {
	line := f.record(cmd, args)
	return []byte(f.outputs[line]), f.fail[line]
}

func readOptions(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	opts, err := unit.DeserializeOptions(f)
	require.NoError(t, err)

	out := map[string]string{}
	for _, o := range opts {
		out[o.Section+"."+o.Name] = o.Value
	}
	return out
}

func TestWriteUnits(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	w := NewUnitWriter(dir, "", NewController(runner, logger.NewNop()), logger.NewNop())

	require.NoError(t, w.WriteUnits(context.Background(), 27960, "/home/etlegacy/et/27960"))

	server := readOptions(t, filepath.Join(dir, "etlserver-27960.service"))
	assert.Equal(t, "/home/etlegacy/et/27960/etl_start.sh", server["Service.ExecStart"])
	assert.Equal(t, "/home/etlegacy/et/27960", server["Service.WorkingDirectory"])
	assert.Equal(t, "always", server["Service.Restart"])
	assert.Equal(t, "root", server["Service.User"])
	assert.Equal(t, "multi-user.target", server["Install.WantedBy"])
	assert.Contains(t, server["Unit.Description"], "Port 27960")

	restart := readOptions(t, filepath.Join(dir, "etlrestart-27960.service"))
	assert.Equal(t, "oneshot", restart["Service.Type"])
	assert.Equal(t, "/bin/systemctl restart etlserver-27960.service", restart["Service.ExecStart"])

	timer := readOptions(t, filepath.Join(dir, "etlmonitor-27960.timer"))
	assert.Equal(t, "etlrestart-27960.service", timer["Timer.Unit"])
	assert.Equal(t, "etlrestart-27960.service", timer["Unit.Requires"])
	assert.Equal(t, "*-*-* 05:00:00", timer["Timer.OnCalendar"])
	assert.Equal(t, "timers.target", timer["Install.WantedBy"])

	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable etlserver-27960.service",
		"systemctl enable etlmonitor-27960.timer",
	}, runner.calls)

	exists, err := w.UnitExists(27960)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = w.UnitExists(27961)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteUnits_QuotesPathWithSpaces(t *testing.T) {
	dir := t.TempDir()
	w := NewUnitWriter(dir, "04:30:00", NewController(&fakeRunner{}, logger.NewNop()), logger.NewNop())
	require.NoError(t, w.WriteUnits(context.Background(), 27961, "/srv/et servers/et/27961"))

	server := readOptions(t, filepath.Join(dir, "etlserver-27961.service"))
	assert.Equal(t, `"/srv/et servers/et/27961/etl_start.sh"`, server["Service.ExecStart"])
	assert.Equal(t, "/srv/et servers/et/27961/etl_start.sh", UnquoteExec(server["Service.ExecStart"]))

	timer := readOptions(t, filepath.Join(dir, "etlmonitor-27961.timer"))
	assert.Equal(t, "*-*-* 04:30:00", timer["Timer.OnCalendar"])
}

func TestWriteUnits_EnableFailureIsReturned(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{
		"systemctl enable etlserver-27960.service": errors.New("exit status 1"),
	}}
	w := NewUnitWriter(t.TempDir(), "", NewController(runner, logger.NewNop()), logger.NewNop())

	err := w.WriteUnits(context.Background(), 27960, "/home/etlegacy/et/27960")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enable")
	assert.Len(t, runner.calls, 2)
}

func TestController_IsActive(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"systemctl is-active etlserver-1.service": "active\n",
			"systemctl is-active etlserver-2.service": "inactive\n",
		},
		fail: map[string]error{
			"systemctl is-active etlserver-2.service": errors.New("exit status 3"),
		},
	}
	c := NewController(runner, logger.NewNop())

	active, err := c.IsActive(context.Background(), "etlserver-1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = c.IsActive(context.Background(), "etlserver-2.service")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestController_Status(t *testing.T) {
	out := `● etlserver-27960.service - Wolfenstein Enemy Territory Server (Port 27960)
     Loaded: loaded (/etc/systemd/system/etlserver-27960.service; enabled; preset: enabled)
     Active: active (running) since Mon 2026-10-19 05:00:01 UTC; 2h ago
   Main PID: 1234 (etl_start.sh)
      Tasks: 3 (limit: 4567)
     Memory: 48.1M
        CPU: 1min 2.345s
     CGroup: /system.slice/etlserver-27960.service
             ├─1234 /bin/bash /home/etlegacy/et/27960/etl_start.sh
             └─1235 /home/etlegacy/et/27960/etlded.x86_64 +set dedicated 2
`
	runner := &fakeRunner{outputs: map[string]string{"systemctl status etlserver-27960.service": out}}
	status, err := NewController(runner, logger.NewNop()).Status(context.Background(), "etlserver-27960.service")
	require.NoError(t, err)

	assert.Equal(t, "etlserver-27960.service", status.Unit)
	assert.True(t, strings.HasPrefix(status.Active, "active (running)"))
	assert.Equal(t, "1234 (etl_start.sh)", status.MainPid)
	assert.Equal(t, "48.1M", status.Memory)
	assert.Equal(t, []string{
		"/system.slice/etlserver-27960.service",
		"1234 /bin/bash /home/etlegacy/et/27960/etl_start.sh",
		"1235 /home/etlegacy/et/27960/etlded.x86_64 +set dedicated 2",
	}, status.CGroup)
}

func TestController_StatusMissingUnit(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"systemctl status nope.service": ""},
		fail:    map[string]error{"systemctl status nope.service": errors.New("exit status 4")},
	}
	_, err := NewController(runner, logger.NewNop()).Status(context.Background(), "nope")
	assert.Error(t, err)
}
