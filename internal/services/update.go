package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/files"
	"github.com/CloudNativeWorks/etlctl/internal/operations/servercfg"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// preservedPaths survive an update, relative to the server directory
var preservedPaths = []string{
	filepath.Join(models.BaseGameDir, "etl_server.cfg"),
	filepath.Join(models.ModDir, "configs"),
	filepath.Join(models.ModDir, "mapscripts"),
}

// UpdateResult summarizes a successful update
type UpdateResult struct {
	FromVersion string
	ToVersion   string
	BackupDir   string
	MergedMaps  []string
}

// Update replaces the binaries of inst with release while keeping its
// configuration and maps. If the vendor installer fails the previous tree
// is put back. The caller decides whether to restart the instance.
func (s *Services) Update(ctx context.Context, inst models.Instance, release models.Release) (*UpdateResult, error) {
	log := s.operationLogger("update", inst.Port)
	serverDir := filepath.Clean(inst.ServerDir)
	oldDir := serverDir + models.OldSuffix

	s.enter(log, StepPlanned)
	if release.FetchURL == "" {
		return nil, stepError(StepPlanned, fmt.Errorf("no release selected"))
	}
	if exists, err := common.PathExists(serverDir); err != nil {
		return nil, stepError(StepPlanned, err)
	} else if !exists {
		return nil, stepError(StepPlanned, common.FSError("stat", serverDir, os.ErrNotExist))
	}
	if exists, err := common.PathExists(oldDir); err != nil {
		return nil, stepError(StepPlanned, err)
	} else if exists {
		return nil, stepError(StepPlanned, fmt.Errorf("%s already exists, a previous update did not finish", oldDir))
	}

	result := &UpdateResult{
		FromVersion: common.ReadVersionMarker(serverDir),
		ToVersion:   release.Version,
	}
	if common.IsDowngrade(result.FromVersion, result.ToVersion) {
		log.Warnf("Installing %s over newer %s", result.ToVersion, result.FromVersion)
	}
	log.WithFields(logger.Fields{
		"from": result.FromVersion,
		"to":   release.Label(),
	}).Info("Starting update")

	s.enter(log, StepBackedUp)
	backupDir, err := s.backup(inst.Port, serverDir, result)
	if err != nil {
		return nil, stepError(StepBackedUp, err)
	}
	result.BackupDir = backupDir
	log.WithField("backup_dir", backupDir).Info("Configuration backed up")

	s.enter(log, StepArtifactFetched)
	artifact, err := s.deps.Fetcher.FetchRelease(ctx, release)
	if err != nil {
		return nil, stepError(StepArtifactFetched, err)
	}

	s.enter(log, StepVendorInstalled)
	if err := os.Rename(serverDir, oldDir); err != nil {
		return nil, stepError(StepVendorInstalled, common.FSError("rename", serverDir, err))
	}
	if err := s.deps.Installer.Run(ctx, artifact, serverDir); err != nil {
		if rbErr := rollback(serverDir, oldDir); rbErr != nil {
			err = multierror.Append(err, rbErr)
		} else {
			log.Warn("Installer failed, previous installation restored")
		}
		return nil, stepError(StepVendorInstalled, err)
	}
	s.cleanupArtifact(log, artifact)

	s.enter(log, StepRestored)
	merged, err := s.restore(log, inst.Port, serverDir, oldDir, backupDir, release.Version)
	if err != nil {
		return nil, stepError(StepRestored, err)
	}
	result.MergedMaps = merged

	s.enter(log, StepPermissionsNormalized)
	if err := s.deps.Permissions.Normalize(ctx, serverDir); err != nil {
		return nil, stepError(StepPermissionsNormalized, err)
	}

	log.WithField("merged_maps", len(merged)).Info("Update completed")
	return result, nil
}

func (s *Services) backup(port uint16, serverDir string, result *UpdateResult) (string, error) {
	backupDir := fmt.Sprintf("%s%s%d", serverDir, models.BackupInfix, s.now().Unix())
	if err := os.MkdirAll(backupDir, 0775); err != nil {
		return "", common.FSError("mkdir", backupDir, err)
	}

	var entries []string
	for _, rel := range preservedPaths {
		src := filepath.Join(serverDir, rel)
		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", common.FSError("stat", src, err)
		}
		if err := copyEntry(src, filepath.Join(backupDir, rel), info.IsDir()); err != nil {
			return "", err
		}
		entries = append(entries, rel)
	}

	_, err := files.WriteManifest(backupDir, files.BackupManifest{
		Port:        port,
		ServerDir:   serverDir,
		FromVersion: result.FromVersion,
		ToVersion:   result.ToVersion,
		CreatedAt:   s.now().UTC(),
		Entries:     entries,
	})
	return backupDir, err
}

func (s *Services) restore(log *logger.Logger, port uint16, serverDir, oldDir, backupDir, ver string) ([]string, error) {
	manifest, err := files.ReadManifest(backupDir)
	if err != nil {
		return nil, err
	}
	for _, rel := range manifest.Entries {
		src := filepath.Join(backupDir, rel)
		dst := filepath.Join(serverDir, rel)
		info, err := os.Stat(src)
		if err != nil {
			return nil, common.FSError("stat", src, err)
		}
		if info.IsDir() {
			if err := os.RemoveAll(dst); err != nil {
				return nil, common.FSError("remove", dst, err)
			}
		}
		if err := copyEntry(src, dst, info.IsDir()); err != nil {
			return nil, err
		}
	}

	merged, err := mergeMaps(log, filepath.Join(oldDir, models.BaseGameDir), filepath.Join(serverDir, models.BaseGameDir))
	if err != nil {
		return nil, err
	}

	if _, err := servercfg.WriteStartScript(serverDir, port, s.opts.GOARCH); err != nil {
		return nil, err
	}
	if err := common.WriteVersionMarker(serverDir, ver); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(oldDir); err != nil {
		return nil, common.FSError("remove", oldDir, err)
	}
	return merged, nil
}

// mergeMaps moves map packs the new tree lacks from oldMaps into newMaps
func mergeMaps(log *logger.Logger, oldMaps, newMaps string) ([]string, error) {
	entries, err := os.ReadDir(oldMaps)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, common.FSError("readdir", oldMaps, err)
	}

	var merged []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pk3") {
			continue
		}
		dst := filepath.Join(newMaps, e.Name())
		exists, err := common.PathExists(dst)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if err := common.MoveFile(log.WithField("map", e.Name()), filepath.Join(oldMaps, e.Name()), dst); err != nil {
			return nil, err
		}
		merged = append(merged, e.Name())
	}
	return merged, nil
}

// rollback discards a partial install in serverDir and moves oldDir back
func rollback(serverDir, oldDir string) error {
	var result *multierror.Error
	if err := os.RemoveAll(serverDir); err != nil {
		result = multierror.Append(result, common.FSError("remove", serverDir, err))
	}
	if err := os.Rename(oldDir, serverDir); err != nil {
		result = multierror.Append(result, common.FSError("rename", oldDir, err))
	}
	return result.ErrorOrNil()
}

func copyEntry(src, dst string, dir bool) error {
	if dir {
		return common.CopyTree(src, dst)
	}
	return common.CopyFile(src, dst)
}
