package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Action is a lifecycle command for an installed instance
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionStatus  Action = "status"
)

var ErrInstanceNotFound = errors.New("no instance on port")

// Instances lists installed servers
func (s *Services) Instances() ([]models.Instance, error) {
	return s.deps.Registry.ListInstances()
}

// Instance looks up the server installed on port
func (s *Services) Instance(port uint16) (models.Instance, error) {
	inst, found, err := s.deps.Registry.Find(port)
	if err != nil {
		return models.Instance{}, err
	}
	if !found {
		return models.Instance{}, fmt.Errorf("%w %d", ErrInstanceNotFound, port)
	}
	return inst, nil
}

// ServiceAction applies action to the run unit of port and returns the
// resulting unit status
func (s *Services) ServiceAction(ctx context.Context, port uint16, action Action) (*systemd.ServiceStatus, error) {
	if _, err := s.Instance(port); err != nil {
		return nil, err
	}
	unit := models.ServerUnitName(port)

	var err error
	switch action {
	case ActionStart:
		err = s.deps.Controller.Start(ctx, unit)
	case ActionStop:
		err = s.deps.Controller.Stop(ctx, unit)
	case ActionRestart:
		err = s.deps.Controller.Restart(ctx, unit)
	case ActionStatus:
	default:
		return nil, fmt.Errorf("invalid action %q", action)
	}
	if err != nil {
		return nil, err
	}

	if action != ActionStatus {
		s.logger.WithFields(logger.Fields{"port": port, "action": action}).Info("Service action performed")
	}
	return s.deps.Controller.Status(ctx, unit)
}

// InstallCustomMap downloads a single map into the instance on port
func (s *Services) InstallCustomMap(ctx context.Context, port uint16, rawURL, name string) error {
	inst, err := s.Instance(port)
	if err != nil {
		return err
	}
	if err := s.deps.Maps.InstallCustom(ctx, inst.ServerDir, rawURL, name); err != nil {
		return err
	}
	return s.deps.Permissions.Normalize(ctx, inst.ServerDir)
}

// InstallStandardMaps fetches the standard map pack into the instance on port
func (s *Services) InstallStandardMaps(ctx context.Context, port uint16) (int, int, error) {
	inst, err := s.Instance(port)
	if err != nil {
		return 0, 0, err
	}
	report, err := s.deps.Maps.InstallStandard(ctx, inst.ServerDir, s.mapProgress)
	if err != nil {
		return 0, 0, err
	}
	if err := s.deps.Permissions.Normalize(ctx, inst.ServerDir); err != nil {
		return 0, 0, err
	}
	return len(report.Installed), report.FailedCount(), nil
}

// OpenFirewall opens the game port of port, plus the FTP range when ftp is set
func (s *Services) OpenFirewall(ctx context.Context, port uint16, ftp bool) error {
	if err := s.deps.Firewall.OpenGamePort(ctx, port); err != nil {
		return err
	}
	if ftp {
		if err := s.deps.Firewall.OpenFTPRange(ctx); err != nil {
			return err
		}
	}
	return s.deps.Firewall.EnsureEnabled(ctx)
}
