package services

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/files"
)

// CleanArtifacts removes downloaded installers from the download directory
func (s *Services) CleanArtifacts() ([]string, error) {
	if s.opts.DownloadDir == "" {
		return nil, fmt.Errorf("no download directory configured")
	}
	result := files.DeleteArtifacts(s.opts.DownloadDir, s.logger)
	var errs *multierror.Error
	for _, err := range result.Errors {
		errs = multierror.Append(errs, err)
	}
	return result.DeletedFiles, errs.ErrorOrNil()
}

// Backups lists the update snapshots of the instance on port, oldest first
func (s *Services) Backups(port uint16) ([]string, error) {
	inst, err := s.Instance(port)
	if err != nil {
		return nil, err
	}
	return files.ListBackups(inst.ServerDir)
}

// PruneBackups deletes all but the newest keep snapshots of the instance on
// port and returns the removed directories
func (s *Services) PruneBackups(port uint16, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep cannot be negative")
	}
	backups, err := s.Backups(port)
	if err != nil {
		return nil, err
	}
	if len(backups) <= keep {
		return nil, nil
	}

	var removed []string
	var errs *multierror.Error
	for _, dir := range backups[:len(backups)-keep] {
		if err := os.RemoveAll(dir); err != nil {
			errs = multierror.Append(errs, common.FSError("remove", dir, err))
			continue
		}
		removed = append(removed, dir)
	}
	s.logger.WithField("port", port).Infof("Pruned %d backups", len(removed))
	return removed, errs.ErrorOrNil()
}
