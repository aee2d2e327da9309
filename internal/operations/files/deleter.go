package files

import (
	"os"
	"path/filepath"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type DeleteFilesResult struct {
	DeletedFiles []string
	Errors       []error
}

func DeleteFiles(filePaths []string, log *logger.Logger) DeleteFilesResult {
	result := DeleteFilesResult{
		DeletedFiles: []string{},
		Errors:       []error{},
	}

	for _, path := range filePaths {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				log.Warnf("Failed to remove file %s: %v", path, err)
				result.Errors = append(result.Errors, err)
			}
		} else {
			log.Debugf("Successfully deleted file: %s", path)
			result.DeletedFiles = append(result.DeletedFiles, path)
		}
	}

	return result
}

// DeleteArtifacts removes downloaded installers from downloadDir
func DeleteArtifacts(downloadDir string, log *logger.Logger) DeleteFilesResult {
	matches, err := filepath.Glob(filepath.Join(downloadDir, "etlegacy-*.sh*"))
	if err != nil {
		return DeleteFilesResult{Errors: []error{err}}
	}
	return DeleteFiles(matches, log)
}

// ListBackups returns the update snapshots of serverDir, oldest first
func ListBackups(serverDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Clean(serverDir) + "_backup_*")
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	return dirs, nil
}
