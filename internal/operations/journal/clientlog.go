package journal

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// textFieldPattern matches key=value pairs of logrus' text formatter
var textFieldPattern = regexp.MustCompile(`(\w+)=("(?:[^"\\]|\\.)*"|\S+)`)

// ToolLogs returns the newest entries of the tool's own log file, written
// either by the JSON or the text formatter. Lines that are not log records
// are skipped.
func ToolLogs(path string, count uint32, log *logger.Logger) ([]Entry, error) {
	lines, err := readAllLines(path, capCount(count), log)
	if err != nil {
		return nil, fmt.Errorf("log file not found: %w", err)
	}

	var logs []Entry
	for _, line := range lines {
		raw, ok := parseJSONRecord(line)
		if !ok {
			raw = parseTextRecord(line)
		}

		level, _ := raw["level"].(string)
		message, _ := raw["message"].(string)
		timestamp, _ := raw["timestamp"].(string)
		file, _ := raw["file"].(string)
		module, _ := raw["module"].(string)

		if level == "" || message == "" || timestamp == "" {
			continue
		}

		metadata := make(map[string]string)
		for k, v := range raw {
			switch k {
			case "level", "message", "timestamp", "file", "module":
				continue
			}
			if s, ok := v.(string); ok {
				metadata[k] = s
			} else {
				metadata[k] = fmt.Sprintf("%v", v)
			}
		}

		logs = append(logs, Entry{
			Message:   message,
			Level:     level,
			Module:    module,
			Timestamp: timestamp,
			Metadata:  metadata,
			File:      file,
		})
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp < logs[j].Timestamp
	})

	return logs, nil
}

func parseJSONRecord(line string) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

// parseTextRecord maps time= and msg= onto the JSON field names
func parseTextRecord(line string) map[string]any {
	raw := map[string]any{}
	for _, m := range textFieldPattern.FindAllStringSubmatch(line, -1) {
		key, value := m[1], m[2]
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
		switch key {
		case "time":
			key = "timestamp"
		case "msg":
			key = "message"
		}
		raw[key] = value
	}
	return raw
}
