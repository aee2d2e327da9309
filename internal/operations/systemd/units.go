package systemd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

const DefaultRestartTime = "05:00:00"

// UnitWriter generates the run unit, the restart unit and the daily restart
// timer of an instance
type UnitWriter struct {
	unitDir     string
	restartTime string
	controller  *Controller
	logger      *logger.Logger
}

func NewUnitWriter(unitDir, restartTime string, controller *Controller, log *logger.Logger) *UnitWriter {
	if restartTime == "" {
		restartTime = DefaultRestartTime
	}
	return &UnitWriter{
		unitDir:     unitDir,
		restartTime: restartTime,
		controller:  controller,
		logger:      log.WithModule("unit_writer"),
	}
}

// UnitExists reports whether a run unit for port is already on disk
func (w *UnitWriter) UnitExists(port uint16) (bool, error) {
	return common.PathExists(filepath.Join(w.unitDir, models.ServerUnitName(port)))
}

// WriteUnits writes all units for port, reloads systemd and enables the run
// unit and the timer
func (w *UnitWriter) WriteUnits(ctx context.Context, port uint16, serverDir string) error {
	log := w.logger.WithField("port", port)

	if err := os.MkdirAll(w.unitDir, 0755); err != nil {
		return common.FSError("mkdir", w.unitDir, err)
	}

	units := []struct {
		name string
		opts []*unit.UnitOption
	}{
		{models.ServerUnitName(port), ServerUnit(port, serverDir)},
		{models.RestartUnitName(port), RestartUnit(port)},
		{models.TimerUnitName(port), TimerUnit(port, w.restartTime)},
	}

	for _, u := range units {
		path := filepath.Join(w.unitDir, u.name)
		if err := writeUnitFile(path, u.opts); err != nil {
			return err
		}
		log.WithField("unit", path).Debug("Unit file written")
	}

	if err := w.controller.Reload(ctx); err != nil {
		return err
	}
	if err := w.controller.Enable(ctx, models.ServerUnitName(port)); err != nil {
		return err
	}
	if err := w.controller.Enable(ctx, models.TimerUnitName(port)); err != nil {
		return err
	}

	log.Info("Service units registered")
	return nil
}

func writeUnitFile(path string, opts []*unit.UnitOption) error {
	content, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return common.FSError("write", path, err)
	}
	return nil
}

// ServerUnit runs the instance start script
func ServerUnit(port uint16, serverDir string) []*unit.UnitOption {
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("Wolfenstein Enemy Territory Server (Port %d)", port)),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "simple"),
		unit.NewUnitOption("Service", "WorkingDirectory", serverDir),
		unit.NewUnitOption("Service", "ExecStart", quoteExec(models.StartScriptPath(serverDir))),
		unit.NewUnitOption("Service", "Restart", "always"),
		unit.NewUnitOption("Service", "User", "root"),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}
}

// RestartUnit restarts the run unit once when triggered
func RestartUnit(port uint16) []*unit.UnitOption {
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("Restart ET: Legacy server on port %d", port)),
		unit.NewUnitOption("Service", "Type", "oneshot"),
		unit.NewUnitOption("Service", "ExecStart", "/bin/systemctl restart "+models.ServerUnitName(port)),
	}
}

// TimerUnit triggers the restart unit daily at restartTime
func TimerUnit(port uint16, restartTime string) []*unit.UnitOption {
	restart := models.RestartUnitName(port)
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("Daily restart of ET: Legacy server on port %d", port)),
		unit.NewUnitOption("Unit", "Requires", restart),
		unit.NewUnitOption("Timer", "Unit", restart),
		unit.NewUnitOption("Timer", "OnCalendar", "*-*-* "+restartTime),
		unit.NewUnitOption("Install", "WantedBy", "timers.target"),
	}
}

// quoteExec quotes the executable path when it contains whitespace
func quoteExec(path string) string {
	if strings.ContainsAny(path, " \t") {
		return `"` + path + `"`
	}
	return path
}

// UnquoteExec returns the executable of an ExecStart value
func UnquoteExec(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, `"`) {
		if end := strings.Index(value[1:], `"`); end >= 0 {
			return value[1 : end+1]
		}
	}
	if fields := strings.Fields(value); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
