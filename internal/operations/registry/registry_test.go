package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestListInstances(t *testing.T) {
	unitDir := t.TempDir()
	root := t.TempDir()

	dirA := models.ServerDir(root, 27960)
	dirB := models.ServerDir(root, 27961)

	writeFile(t, models.ConfigPath(dirA), `set sv_hostname "Fragfest"`+"\n")
	require.NoError(t, common.WriteVersionMarker(dirA, "2.83.2"))
	writeFile(t, models.ConfigPath(dirB), "// no hostname here\n")

	writeFile(t, filepath.Join(unitDir, "etlserver-27961.service"),
		"[Service]\nExecStart="+models.StartScriptPath(dirB)+"\n")
	writeFile(t, filepath.Join(unitDir, "etlserver-27960.service"),
		"[Unit]\nDescription=x\n\n[Service]\nWorkingDirectory="+dirA+"\nExecStart="+models.StartScriptPath(dirA)+"\n")
	writeFile(t, filepath.Join(unitDir, "etlserver-27962.service"), "[Service]\nExecStart=/usr/bin/something\n")
	writeFile(t, filepath.Join(unitDir, "etlserver-abc.service"), "[Service]\n")
	writeFile(t, filepath.Join(unitDir, "etlrestart-27960.service"), "[Service]\nType=oneshot\n")
	writeFile(t, filepath.Join(unitDir, "etlserver-27963.service"), "[Service\nbroken")

	reg := NewRegistry(unitDir, logger.NewNop())
	instances, err := reg.ListInstances()
	require.NoError(t, err)

	assert.Equal(t, []models.Instance{
		{Name: "Fragfest", Port: 27960, Version: "2.83.2", ServerDir: dirA, InstallRoot: root},
		{Name: models.DefaultHostname, Port: 27961, Version: common.UnknownVersion, ServerDir: dirB, InstallRoot: root},
	}, instances)

	inst, ok, err := reg.Find(27961)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dirB, inst.ServerDir)

	_, ok, err = reg.Find(27999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListInstances_QuotedExecStart(t *testing.T) {
	unitDir := t.TempDir()
	dir := filepath.Join(t.TempDir(), "with space", "et", "27960")
	writeFile(t, filepath.Join(unitDir, "etlserver-27960.service"),
		"[Service]\nExecStart=\""+models.StartScriptPath(dir)+"\"\n")

	instances, err := NewRegistry(unitDir, logger.NewNop()).ListInstances()
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, dir, instances[0].ServerDir)
	assert.Equal(t, models.DefaultHostname, instances[0].Name)
}

func TestListInstances_MissingUnitDir(t *testing.T) {
	instances, err := NewRegistry(filepath.Join(t.TempDir(), "none"), logger.NewNop()).ListInstances()
	require.NoError(t, err)
	assert.Empty(t, instances)
}
