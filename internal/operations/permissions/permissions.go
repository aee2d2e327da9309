package permissions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"slices"
	"strconv"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

const (
	DirPerm  os.FileMode = 0775 | os.ModeSetgid
	FilePerm os.FileMode = 0664
	ExecPerm os.FileMode = 0775
)

// ExecutableSuffixes get their execute bits back after the blanket file pass
var ExecutableSuffixes = []string{".sh", ".x86_64", ".aarch64", ".so"}

type commandRunner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
}

// groupDB is the slice of os/user the manager needs, swapped in tests
type groupDB interface {
	LookupGroup(name string) (*user.Group, error)
	UserGroupIDs(username string) ([]string, error)
}

type osGroupDB struct{}

func (osGroupDB) LookupGroup(name string) (*user.Group, error) {
	return user.LookupGroup(name)
}

func (osGroupDB) UserGroupIDs(username string) ([]string, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return nil, err
	}
	return u.GroupIds()
}

// PermissionManager owns the shared operator group and the mode bits of
// installed server trees
type PermissionManager struct {
	Group  string
	runner commandRunner
	groups groupDB
	logger *logger.Logger
}

func NewPermissionManager(group string, runner commandRunner, log *logger.Logger) *PermissionManager {
	return &PermissionManager{
		Group:  group,
		runner: runner,
		groups: osGroupDB{},
		logger: log.WithModule("permissions"),
	}
}

// InvokingUser returns the user that ran the tool, looking through sudo
func InvokingUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// EnsureGroup creates the group when missing and adds the invoking user and
// root to it. Calling it again changes nothing.
func (pm *PermissionManager) EnsureGroup(ctx context.Context) error {
	g, err := pm.groups.LookupGroup(pm.Group)
	if err != nil {
		var unknown user.UnknownGroupError
		if !errors.As(err, &unknown) {
			return fmt.Errorf("failed to look up group %s: %w", pm.Group, err)
		}
		pm.logger.Infof("Creating group %s", pm.Group)
		if err := pm.runner.RunWithS(ctx, "groupadd", pm.Group); err != nil {
			return fmt.Errorf("failed to create group %s: %w", pm.Group, err)
		}
		if g, err = pm.groups.LookupGroup(pm.Group); err != nil {
			return fmt.Errorf("group %s missing after groupadd: %w", pm.Group, err)
		}
	} else {
		pm.logger.Debugf("Group %s already exists", pm.Group)
	}

	members := []string{"root"}
	if invoking := InvokingUser(); invoking != "" && invoking != "root" {
		members = append([]string{invoking}, members...)
	}

	for _, name := range members {
		ids, err := pm.groups.UserGroupIDs(name)
		if err != nil {
			return fmt.Errorf("failed to look up user %s: %w", name, err)
		}
		if slices.Contains(ids, g.Gid) {
			continue
		}
		pm.logger.Infof("Adding %s to group %s", name, pm.Group)
		if err := pm.runner.RunWithS(ctx, "usermod", "-aG", pm.Group, name); err != nil {
			return fmt.Errorf("failed to add %s to group %s: %w", name, pm.Group, err)
		}
	}

	return nil
}

// AddMember puts an extra account, e.g. the FTP user, into the group
func (pm *PermissionManager) AddMember(ctx context.Context, name string) error {
	if err := pm.runner.RunWithS(ctx, "usermod", "-aG", pm.Group, name); err != nil {
		return fmt.Errorf("failed to add %s to group %s: %w", name, pm.Group, err)
	}
	return nil
}

func (pm *PermissionManager) gid() (int, error) {
	g, err := pm.groups.LookupGroup(pm.Group)
	if err != nil {
		return 0, fmt.Errorf("failed to look up group %s: %w", pm.Group, err)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("invalid gid %q for group %s", g.Gid, pm.Group)
	}
	return gid, nil
}
