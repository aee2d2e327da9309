package files

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
)

const manifestName = "manifest.yaml"

// BackupManifest describes what an update snapshot holds
type BackupManifest struct {
	Port        uint16    `yaml:"port"`
	ServerDir   string    `yaml:"server_dir"`
	FromVersion string    `yaml:"from_version"`
	ToVersion   string    `yaml:"to_version"`
	CreatedAt   time.Time `yaml:"created_at"`
	Entries     []string  `yaml:"entries"`
}

// WriteManifest stores m inside backupDir
func WriteManifest(backupDir string, m BackupManifest) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup manifest: %w", err)
	}
	path := filepath.Join(backupDir, manifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", common.FSError("write", path, err)
	}
	return path, nil
}

// ReadManifest loads the manifest of backupDir
func ReadManifest(backupDir string) (*BackupManifest, error) {
	path := filepath.Join(backupDir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FSError("read", path, err)
	}
	var m BackupManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}
