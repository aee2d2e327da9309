package installer

import (
	"context"
	"fmt"
	"os"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type runner interface {
	RunWithS(ctx context.Context, cmd string, args ...string) error
}

// Installer runs the vendor self-extracting installer
type Installer struct {
	runner runner
	logger *logger.Logger
}

func NewInstaller(r runner, log *logger.Logger) *Installer {
	return &Installer{
		runner: r,
		logger: log.WithModule("installer"),
	}
}

// Run extracts the release at installer into targetDir. The target is
// created first; a non-zero exit surfaces as a cmdrunner.SubprocessError.
func (i *Installer) Run(ctx context.Context, installer, targetDir string) error {
	if _, err := os.Stat(installer); err != nil {
		return common.FSError("stat", installer, err)
	}
	if err := os.MkdirAll(targetDir, 0775); err != nil {
		return common.FSError("mkdir", targetDir, err)
	}

	log := i.logger.WithFields(logger.Fields{"installer": installer, "target": targetDir})
	log.Info("Running vendor installer")

	if err := i.runner.RunWithS(ctx, installer, "--target-directory="+targetDir); err != nil {
		return fmt.Errorf("vendor installer failed: %w", err)
	}

	log.Info("Vendor installer completed")
	return nil
}
