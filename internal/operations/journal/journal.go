package journal

import (
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/sdjournal"
)

const journalReadTimeout = 10 * time.Second

// UnitLogs returns up to count of the newest journal entries of unit, newest
// first
func UnitLogs(unit string, count uint32) ([]Entry, error) {
	count = capCount(count)

	j, err := sdjournal.NewJournal()
	if err != nil {
		return nil, fmt.Errorf("failed to open systemd journal: %w", err)
	}
	defer j.Close()

	if err := j.AddMatch("_SYSTEMD_UNIT=" + unit); err != nil {
		return nil, fmt.Errorf("failed to add systemd unit match: %w", err)
	}
	if err := j.SeekTail(); err != nil {
		return nil, fmt.Errorf("failed to seek to end of journal: %w", err)
	}

	var logs []Entry
	start := time.Now()

	for uint32(len(logs)) < count {
		if time.Since(start) > journalReadTimeout {
			break
		}

		n, err := j.Previous()
		if err != nil {
			return nil, fmt.Errorf("failed to read previous journal entry: %w", err)
		}
		if n == 0 {
			break
		}

		entry, err := j.GetEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to get journal entry: %w", err)
		}
		if e, ok := entryFromFields(entry.Fields, entry.RealtimeTimestamp, unit); ok {
			logs = append(logs, e)
		}
	}

	return logs, nil
}

func entryFromFields(fields map[string]string, realtime uint64, unit string) (Entry, bool) {
	message := fields["MESSAGE"]
	if message == "" {
		return Entry{}, false
	}

	e := Entry{
		Message:  message,
		Level:    priorityToLevel(fields["PRIORITY"]),
		Module:   unit,
		Metadata: map[string]string{},
	}
	if realtime != 0 {
		e.Timestamp = time.UnixMicro(int64(realtime)).Format("02-01-06 15:04:05.000")
	}
	for key, name := range map[string]string{"_HOSTNAME": "hostname", "_PID": "pid", "_SYSTEMD_UNIT": "systemd_unit"} {
		if v := fields[key]; v != "" {
			e.Metadata[name] = v
		}
	}
	return e, true
}

// priorityToLevel converts systemd journal priority to log level string
func priorityToLevel(priority string) string {
	switch priority {
	case "0":
		return "EMERG"
	case "1":
		return "ALERT"
	case "2":
		return "CRIT"
	case "3":
		return "ERROR"
	case "4":
		return "WARN"
	case "5":
		return "NOTICE"
	case "7":
		return "DEBUG"
	default:
		return "INFO"
	}
}
