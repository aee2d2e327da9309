package journal

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// colorCodePattern matches in-game color escapes such as ^1 or ^x
var colorCodePattern = regexp.MustCompile(`\^[0-9a-zA-Z]`)

// ConsoleLogPath is where the server writes its console log
func ConsoleLogPath(serverDir string) string {
	return filepath.Join(serverDir, models.ModDir, models.ConsoleLogName)
}

// ConsoleLogs returns the last count lines of the instance console log in
// file order
func ConsoleLogs(serverDir string, count uint32, log *logger.Logger) ([]Entry, error) {
	path := ConsoleLogPath(serverDir)
	lines, err := readAllLines(path, capCount(count), log)
	if err != nil {
		return nil, fmt.Errorf("console log %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(colorCodePattern.ReplaceAllString(line, ""), " \r")
		if line == "" {
			continue
		}
		entries = append(entries, Entry{
			Level:   detectConsoleLevel(line),
			Module:  models.ConsoleLogName,
			Message: line,
		})
	}
	return entries, nil
}

func detectConsoleLevel(line string) string {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "ERROR"):
		return "ERROR"
	case strings.Contains(upper, "WARNING"):
		return "WARN"
	default:
		return "INFO"
	}
}
