package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CloudNativeWorks/etlctl/internal/operations/firewall"
	"github.com/CloudNativeWorks/etlctl/internal/operations/maps"
	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

type ReleaseFetcher interface {
	FetchRelease(ctx context.Context, release models.Release) (string, error)
}

type VendorInstaller interface {
	Run(ctx context.Context, installer, targetDir string) error
}

type PackageManager interface {
	Update(ctx context.Context) error
	Install(ctx context.Context, pkgs ...string) error
}

type UnitWriter interface {
	WriteUnits(ctx context.Context, port uint16, serverDir string) error
	UnitExists(port uint16) (bool, error)
}

type ServiceController interface {
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	IsActive(ctx context.Context, unit string) (bool, error)
	Status(ctx context.Context, unit string) (*systemd.ServiceStatus, error)
}

type PermissionNormalizer interface {
	EnsureGroup(ctx context.Context) error
	Normalize(ctx context.Context, root string) error
}

type InstanceRegistry interface {
	ListInstances() ([]models.Instance, error)
	Find(port uint16) (models.Instance, bool, error)
}

type MapInstaller interface {
	InstallStandard(ctx context.Context, serverDir string, progress maps.ProgressFunc) (*maps.Report, error)
	InstallCustom(ctx context.Context, serverDir, rawURL, name string) error
}

type FTPProvisioner interface {
	Configure(ctx context.Context, username, password, homeDir string) error
}

// Deps are the collaborators the workflows drive
type Deps struct {
	Fetcher     ReleaseFetcher
	Installer   VendorInstaller
	Packages    PackageManager
	Units       UnitWriter
	Controller  ServiceController
	Permissions PermissionNormalizer
	Firewall    firewall.Firewall
	Registry    InstanceRegistry
	Maps        MapInstaller
	FTP         FTPProvisioner
}

// Options tune the workflows
type Options struct {
	GOARCH        string
	Packages      []string
	StartWait     time.Duration
	PollInterval  time.Duration
	KeepArtifacts bool
	DownloadDir   string
}

// StepFunc is told when a workflow enters a step
type StepFunc func(step Step)

type Services struct {
	deps        Deps
	opts        Options
	logger      *logger.Logger
	onStep      StepFunc
	mapProgress maps.ProgressFunc
	now         func() time.Time
}

func NewServices(deps Deps, opts Options, log *logger.Logger) *Services {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &Services{
		deps:   deps,
		opts:   opts,
		logger: log.WithModule("services"),
		now:    time.Now,
	}
}

// SetStepObserver installs a callback for workflow progress
func (s *Services) SetStepObserver(fn StepFunc) {
	s.onStep = fn
}

// SetMapProgress installs a callback for map pack progress
func (s *Services) SetMapProgress(fn maps.ProgressFunc) {
	s.mapProgress = fn
}

func (s *Services) enter(log *logger.Logger, step Step) {
	log.WithField("step", step).Debug("Entering step")
	if s.onStep != nil {
		s.onStep(step)
	}
}

// operationLogger tags every entry of one workflow run with a fresh ID
func (s *Services) operationLogger(operation string, port uint16) *logger.Logger {
	return s.logger.With(logger.Fields{
		"operation":    operation,
		"operation_id": uuid.NewString(),
		"port":         port,
	})
}
