package systemd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// Runner is the subset of cmdrunner.CommandRunner used to drive systemctl
type Runner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
	RunWithOutputSNoErrLog(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// ServiceStatus is the parsed form of `systemctl status`
type ServiceStatus struct {
	Unit    string   `json:"unit" yaml:"unit"`
	Loaded  string   `json:"loaded,omitempty" yaml:"loaded,omitempty"`
	Active  string   `json:"active,omitempty" yaml:"active,omitempty"`
	MainPid string   `json:"main_pid,omitempty" yaml:"main_pid,omitempty"`
	Tasks   string   `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Memory  string   `json:"memory,omitempty" yaml:"memory,omitempty"`
	CPU     string   `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	CGroup  []string `json:"cgroup,omitempty" yaml:"cgroup,omitempty"`
}

// Controller drives units through systemctl
type Controller struct {
	runner Runner
	logger *logger.Logger
}

func NewController(runner Runner, log *logger.Logger) *Controller {
	return &Controller{
		runner: runner,
		logger: log.WithModule("systemd"),
	}
}

func (c *Controller) Reload(ctx context.Context) error {
	if err := c.runner.RunWithS(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}

func (c *Controller) Enable(ctx context.Context, unit string) error {
	return c.action(ctx, "enable", unit)
}

func (c *Controller) Start(ctx context.Context, unit string) error {
	return c.action(ctx, "start", unit)
}

func (c *Controller) Stop(ctx context.Context, unit string) error {
	return c.action(ctx, "stop", unit)
}

func (c *Controller) Restart(ctx context.Context, unit string) error {
	return c.action(ctx, "restart", unit)
}

func (c *Controller) action(ctx context.Context, verb, unit string) error {
	unit = normalizeUnit(unit)
	if err := c.runner.RunWithS(ctx, "systemctl", verb, unit); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, unit, err)
	}
	c.logger.Debugf("Successfully performed %s on %s", verb, unit)
	return nil
}

// IsActive reports whether systemctl prints "active" for unit. A non-zero
// exit status only means the unit is not running.
func (c *Controller) IsActive(ctx context.Context, unit string) (bool, error) {
	out, err := c.runner.RunWithOutputSNoErrLog(ctx, "systemctl", "is-active", normalizeUnit(unit))
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	state := strings.TrimSpace(string(out))
	if state == "active" {
		return true, nil
	}
	if state == "" && err != nil {
		return false, err
	}
	return false, nil
}

// Status parses `systemctl status`. The command exits non-zero for stopped
// units, so the output is parsed regardless unless the unit does not exist.
func (c *Controller) Status(ctx context.Context, unit string) (*ServiceStatus, error) {
	unit = normalizeUnit(unit)
	output, err := c.runner.RunWithOutputSNoErrLog(ctx, "systemctl", "status", unit)
	if err != nil {
		if len(output) == 0 || strings.Contains(string(output), "could not be found") {
			return nil, fmt.Errorf("failed to get status of %s: %w", unit, err)
		}
	}
	status := parseServiceStatus(string(output))
	status.Unit = unit
	return status, nil
}

func normalizeUnit(unit string) string {
	if strings.Contains(unit, ".") {
		return unit
	}
	return unit + ".service"
}

func cleanCGroupLine(line string) string {
	line = strings.TrimPrefix(line, "├─")
	line = strings.TrimPrefix(line, "└─")
	line = strings.TrimPrefix(line, "│")
	return strings.TrimSpace(line)
}

func parseServiceStatus(output string) *ServiceStatus {
	status := &ServiceStatus{}
	scanner := bufio.NewScanner(strings.NewReader(output))

	inCGroup := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if inCGroup {
			if strings.HasPrefix(line, "├") || strings.HasPrefix(line, "└") || strings.HasPrefix(line, "│") {
				status.CGroup = append(status.CGroup, cleanCGroupLine(line))
				continue
			}
			inCGroup = false
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Loaded":
			status.Loaded = value
		case "Active":
			status.Active = value
		case "Main PID":
			status.MainPid = value
		case "Tasks":
			status.Tasks = value
		case "Memory":
			status.Memory = value
		case "CPU":
			status.CPU = value
		case "CGroup":
			inCGroup = true
			status.CGroup = append(status.CGroup, value)
		}
	}
	return status
}
