package maps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type fakeDownloader struct {
	calls []string
	fail  func(url string) bool
}

func (f *fakeDownloader) Fetch(_ context.Context, url, dest string) (string, error) {
	f.calls = append(f.calls, url)
	if f.fail != nil && f.fail(url) {
		_ = os.WriteFile(dest, []byte("partial"), 0644)
		return "", errors.New("connection reset")
	}
	return dest, os.WriteFile(dest, []byte("PK\x03\x04"+url), 0755)
}

func newInstaller(d Downloader) *Installer {
	return NewInstaller(config.MapsConfig{MirrorURL: "http://mirror.test/etmain/"}, d, logger.NewNop())
}

func TestInstallStandard_ContinuesPastFailures(t *testing.T) {
	serverDir := t.TempDir()
	etmain := filepath.Join(serverDir, "etmain")
	require.NoError(t, os.MkdirAll(etmain, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(etmain, "supply.pk3"), []byte("existing"), 0644))

	d := &fakeDownloader{fail: func(url string) bool {
		return url == "http://mirror.test/etmain/et_ice.pk3"
	}}

	var seen int
	report, err := newInstaller(d).InstallStandard(context.Background(), serverDir, func(i, total int, name string) {
		seen++
		assert.Equal(t, len(StandardMaps), total)
	})
	require.NoError(t, err)

	assert.Equal(t, len(StandardMaps), seen)
	assert.Equal(t, []string{"supply.pk3"}, report.Skipped)
	assert.Equal(t, 1, report.FailedCount())
	assert.Len(t, report.Installed, len(StandardMaps)-2)

	assert.NoFileExists(t, filepath.Join(etmain, "et_ice.pk3"))
	assert.NoFileExists(t, filepath.Join(etmain, "et_ice.pk3.part"))

	info, err := os.Stat(filepath.Join(etmain, "adlernest.pk3"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0664), info.Mode().Perm())

	data, err := os.ReadFile(filepath.Join(etmain, "supply.pk3"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestInstallStandard_BreakerFailsFast(t *testing.T) {
	d := &fakeDownloader{fail: func(string) bool { return true }}
	report, err := newInstaller(d).InstallStandard(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, len(StandardMaps), report.FailedCount())
	assert.Empty(t, report.Installed)
	assert.Len(t, d.calls, 5)
}

func TestInstallStandard_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newInstaller(&fakeDownloader{}).InstallStandard(ctx, t.TempDir(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstallCustomAndList(t *testing.T) {
	serverDir := t.TempDir()
	inst := newInstaller(&fakeDownloader{})

	require.NoError(t, inst.InstallCustom(context.Background(), serverDir, "https://maps.test/goldrush.pk3", "goldrush.pk3"))
	require.NoError(t, inst.InstallCustom(context.Background(), serverDir, "https://maps.test/a.pk3", "adlernest.pk3"))
	require.NoError(t, os.WriteFile(filepath.Join(serverDir, "etmain", "etl_server.cfg"), []byte("x"), 0644))

	maps, err := ListMaps(serverDir)
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.Equal(t, "adlernest.pk3", maps[0].Name)
	assert.Equal(t, "goldrush.pk3", maps[1].Name)
	assert.Positive(t, maps[1].Size)
}

func TestInstallCustom_RejectsBadInput(t *testing.T) {
	inst := newInstaller(&fakeDownloader{})
	ctx := context.Background()

	assert.Error(t, inst.InstallCustom(ctx, t.TempDir(), "https://maps.test/x.pk3", "../x.pk3"))
	assert.Error(t, inst.InstallCustom(ctx, t.TempDir(), "https://maps.test/x.zip", "x.zip"))
	assert.Error(t, inst.InstallCustom(ctx, t.TempDir(), "ftp://maps.test/x.pk3", "x.pk3"))
}

func TestListMaps_MissingDir(t *testing.T) {
	_, err := ListMaps(filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}
