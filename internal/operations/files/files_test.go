package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := BackupManifest{
		Port:        27960,
		ServerDir:   "/home/etlegacy/et/27960",
		FromVersion: "2.83.1",
		ToVersion:   "2.83.2",
		CreatedAt:   time.Date(2026, 10, 19, 5, 0, 0, 0, time.UTC),
		Entries:     []string{"etmain/etl_server.cfg", "legacy/configs"},
	}

	path, err := WriteManifest(dir, m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manifest.yaml"), path)

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, *got)
}

func TestDeleteArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"etlegacy-2.83.2.sh", "etlegacy-2.83.2-74.sh.part", "keep.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	res := DeleteArtifacts(dir, logger.NewNop())
	assert.Len(t, res.DeletedFiles, 2)
	assert.Empty(t, res.Errors)
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}

func TestDeleteFiles_MissingIsNotAnError(t *testing.T) {
	res := DeleteFiles([]string{filepath.Join(t.TempDir(), "gone")}, logger.NewNop())
	assert.Empty(t, res.DeletedFiles)
	assert.Empty(t, res.Errors)
}

func TestListBackups(t *testing.T) {
	root := t.TempDir()
	serverDir := filepath.Join(root, "27960")
	require.NoError(t, os.MkdirAll(serverDir+"_backup_100", 0755))
	require.NoError(t, os.MkdirAll(serverDir+"_backup_200", 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "27961_backup_1"), 0755))

	dirs, err := ListBackups(serverDir)
	require.NoError(t, err)
	assert.Equal(t, []string{serverDir + "_backup_100", serverDir + "_backup_200"}, dirs)
}
