package permissions

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
)

// Normalize brings every entry under root to the group and modes the server
// and its operators expect. Files are first set to FilePerm and only then
// do executables get ExecPerm back, since the first pass strips execute bits.
// Symlinks are left alone.
func (pm *PermissionManager) Normalize(ctx context.Context, root string) error {
	gid, err := pm.gid()
	if err != nil {
		return err
	}

	pm.logger.WithField("root", root).Info("Normalizing permissions")

	var executables []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return common.FSError("walk", path, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if err := chgrp(path, gid); err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return common.FSError("chmod", path, os.Chmod(path, DirPerm))
		case d.Type().IsRegular():
			if err := os.Chmod(path, FilePerm); err != nil {
				return common.FSError("chmod", path, err)
			}
			if IsExecutableName(d.Name()) {
				executables = append(executables, path)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range executables {
		if err := os.Chmod(path, ExecPerm); err != nil {
			return common.FSError("chmod", path, err)
		}
	}

	pm.logger.WithField("executables", len(executables)).Debug("Permissions normalized")
	return nil
}

// IsExecutableName reports whether a file keeps its execute bit
func IsExecutableName(name string) bool {
	for _, suffix := range ExecutableSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// chgrp changes the group of path, skipping the syscall when it already matches
func chgrp(path string, gid int) error {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return common.FSError("stat", path, err)
	}
	if int(st.Gid) == gid {
		return nil
	}
	return common.FSError("chown", path, os.Lchown(path, -1, gid))
}
