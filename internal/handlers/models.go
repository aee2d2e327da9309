package handlers

import (
	"context"

	"github.com/CloudNativeWorks/etlctl/internal/operations/journal"
	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/internal/services"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Screen identifies one menu page
type Screen string

const (
	ScreenMain    Screen = "main"
	ScreenServers Screen = "servers"
	ScreenServer  Screen = "server"
	ScreenEdit    Screen = "edit"
	ScreenMaps    Screen = "maps"
)

// AnyNumber is the choice key matched by any numeric input on a screen
const AnyNumber = "#"

// State is everything the menu remembers between actions
type State struct {
	Screen   Screen
	Selected *models.Instance
	Quit     bool
}

// Select makes inst the current instance and opens its screen
func (s *State) Select(inst models.Instance) {
	s.Selected = &inst
	s.Screen = ScreenServer
}

// Back leaves the current screen
func (s *State) Back() {
	switch s.Screen {
	case ScreenEdit, ScreenMaps:
		s.Screen = ScreenServer
	case ScreenServer:
		s.Selected = nil
		s.Screen = ScreenServers
	default:
		s.Selected = nil
		s.Screen = ScreenMain
	}
}

type key struct {
	screen Screen
	choice string
}

// ActionFunc runs one menu entry. choice is the raw input, which matters for
// AnyNumber entries.
type ActionFunc func(ctx context.Context, st *State, choice string) error

type entry struct {
	label  string
	action ActionFunc
}

// ServerManager is the part of the orchestrator the menu drives
type ServerManager interface {
	Install(ctx context.Context, cfg models.InstanceConfig) (*services.InstallResult, error)
	Update(ctx context.Context, inst models.Instance, release models.Release) (*services.UpdateResult, error)
	Instances() ([]models.Instance, error)
	ServiceAction(ctx context.Context, port uint16, action services.Action) (*systemd.ServiceStatus, error)
	InstanceLogs(port uint16, source services.LogSource, count uint32) ([]journal.Entry, error)
	InstallStandardMaps(ctx context.Context, port uint16) (int, int, error)
	InstallCustomMap(ctx context.Context, port uint16, rawURL, name string) error
	OpenFirewall(ctx context.Context, port uint16, ftp bool) error
}

type ReleaseLister interface {
	ListReleases(ctx context.Context) ([]models.Release, error)
}

type Editor interface {
	Edit(ctx context.Context, path string) error
}
