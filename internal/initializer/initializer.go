package initializer

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

type Initializer struct {
	Logger *logger.Logger
	cfg    *config.Config
	euid   func() int
	lookup func(string) (string, error)
}

func NewInitializer(cfg *config.Config, log *logger.Logger) *Initializer {
	return &Initializer{
		Logger: log.WithModule("initializer"),
		cfg:    cfg,
		euid:   unix.Geteuid,
		lookup: exec.LookPath,
	}
}

// CheckPrivileges fails when the tool can neither act as root nor elevate
// through sudo
func (i *Initializer) CheckPrivileges() error {
	if i.euid() == 0 {
		return nil
	}
	if _, err := i.lookup("sudo"); err != nil {
		return errors.New("etlctl must run as root or have sudo available")
	}
	i.Logger.Debug("Not running as root, privileged commands go through sudo")
	return nil
}

// PlaceWorkDirs creates the directories the tool writes into
func (i *Initializer) PlaceWorkDirs() error {
	for _, dir := range []string{i.cfg.Paths.DownloadDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			i.Logger.Errorf("failed to create %s: %v", dir, err)
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
