package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

func writeLines(t *testing.T, path string, n int, format string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, format+"\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func TestReadAllLines_AcrossBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	writeLines(t, path, 5000, "line number %05d with some padding to cross block boundaries")

	lines, err := readAllLines(path, 3, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"line number 04997 with some padding to cross block boundaries",
		"line number 04998 with some padding to cross block boundaries",
		"line number 04999 with some padding to cross block boundaries",
	}, lines)

	lines, err = readAllLines(path, 400, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, lines, 400)
	assert.Equal(t, "line number 04600 with some padding to cross block boundaries", lines[0])
}

func TestReadAllLines_FewerThanRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.log")
	writeLines(t, path, 3, "entry %d")

	lines, err := readAllLines(path, 50, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 0", "entry 1", "entry 2"}, lines)
}

func TestReadAllLines_MissingFile(t *testing.T) {
	_, err := readAllLines(filepath.Join(t.TempDir(), "none.log"), 5, logger.NewNop())
	assert.Error(t, err)
}

func TestConsoleLogs_StripsColorCodes(t *testing.T) {
	serverDir := t.TempDir()
	content := "^3WARNING: ^7map not found\nClient 0 connecting\n\nERROR: bad thing\n"
	require.NoError(t, os.MkdirAll(filepath.Join(serverDir, "legacy"), 0755))
	require.NoError(t, os.WriteFile(ConsoleLogPath(serverDir), []byte(content), 0644))

	entries, err := ConsoleLogs(serverDir, 10, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "WARNING: map not found", entries[0].Message)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "INFO", entries[1].Level)
	assert.Equal(t, "ERROR", entries[2].Level)
}

func TestToolLogs_ParsesJSONRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etlctl.log")
	content := strings.Join([]string{
		`{"level":"info","message":"Service units registered","timestamp":"2026-10-19 05:00:02","module":"unit_writer","port":27960}`,
		`not json at all`,
		`{"level":"warning","message":"Map download failed","timestamp":"2026-10-19 05:00:01","module":"maps","file":"maps.go:88"}`,
		`{"level":"info","timestamp":"2026-10-19 05:00:03"}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	logs, err := ToolLogs(path, 10, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "Map download failed", logs[0].Message)
	assert.Equal(t, "maps.go:88", logs[0].File)
	assert.Equal(t, "unit_writer", logs[1].Module)
	assert.Equal(t, "27960", logs[1].Metadata["port"])
}

func TestToolLogs_ParsesTextRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etlctl.log")
	content := `time="2026-10-19 05:00:01" level=info    msg="Downloading artifact" file="fetcher.go:48" module=fetcher url="https://example.test/file/612"
plain noise
time="2026-10-19 05:00:02" level=warning msg="ufw is inactive, rules take effect once it is enabled" module=firewall
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	logs, err := ToolLogs(path, 10, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "Downloading artifact", logs[0].Message)
	assert.Equal(t, "info", logs[0].Level)
	assert.Equal(t, "fetcher.go:48", logs[0].File)
	assert.Equal(t, "https://example.test/file/612", logs[0].Metadata["url"])
	assert.Equal(t, "warning", logs[1].Level)
	assert.Equal(t, "firewall", logs[1].Module)
}

func TestEntryFromFields(t *testing.T) {
	e, ok := entryFromFields(map[string]string{
		"MESSAGE":       "Started etlserver-27960.service",
		"PRIORITY":      "4",
		"_PID":          "1",
		"_SYSTEMD_UNIT": "etlserver-27960.service",
	}, 1700000000000000, "etlserver-27960.service")
	require.True(t, ok)
	assert.Equal(t, "WARN", e.Level)
	assert.Equal(t, "1", e.Metadata["pid"])
	assert.NotEmpty(t, e.Timestamp)

	_, ok = entryFromFields(map[string]string{"PRIORITY": "6"}, 0, "x")
	assert.False(t, ok)
}
