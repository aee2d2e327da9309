package services

import (
	"fmt"

	"github.com/CloudNativeWorks/etlctl/internal/operations/journal"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// LogSource selects where instance logs are read from
type LogSource string

const (
	LogJournal LogSource = "journal"
	LogConsole LogSource = "console"
)

// InstanceLogs returns the last count entries of the instance on port
func (s *Services) InstanceLogs(port uint16, source LogSource, count uint32) ([]journal.Entry, error) {
	inst, err := s.Instance(port)
	if err != nil {
		return nil, err
	}

	var logs []journal.Entry
	switch source {
	case LogJournal, "":
		logs, err = journal.UnitLogs(models.ServerUnitName(port), count)
	case LogConsole:
		logs, err = journal.ConsoleLogs(inst.ServerDir, count, s.logger)
	default:
		return nil, fmt.Errorf("unsupported log source %q", source)
	}
	if err != nil {
		s.logger.Errorf("failed to get %s logs for port %d: %v", source, port, err)
		return nil, err
	}
	return logs, nil
}

// ToolLogs returns the last count entries of the tool's own log file
func (s *Services) ToolLogs(path string, count uint32) ([]journal.Entry, error) {
	return journal.ToolLogs(path, count, s.logger)
}
