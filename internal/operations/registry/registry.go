package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/hashicorp/go-multierror"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/internal/operations/servercfg"
	"github.com/CloudNativeWorks/etlctl/internal/operations/systemd"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

var serverUnitPattern = regexp.MustCompile(`^etlserver-(\d+)\.service$`)

// Registry rediscovers installed instances from their run units
type Registry struct {
	unitDir string
	logger  *logger.Logger
}

func NewRegistry(unitDir string, log *logger.Logger) *Registry {
	return &Registry{
		unitDir: unitDir,
		logger:  log.WithModule("registry"),
	}
}

// ListInstances returns every instance with a readable run unit, sorted by
// port. Units that cannot be interpreted are skipped with a warning.
func (r *Registry) ListInstances() ([]models.Instance, error) {
	entries, err := os.ReadDir(r.unitDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.FSError("readdir", r.unitDir, err)
	}

	var (
		instances []models.Instance
		skipped   *multierror.Error
		seen      = map[uint16]bool{}
	)

	for _, entry := range entries {
		m := serverUnitPattern.FindStringSubmatch(entry.Name())
		if m == nil || entry.IsDir() {
			continue
		}
		port, err := strconv.ParseUint(m[1], 10, 16)
		if err != nil || port == 0 {
			skipped = multierror.Append(skipped, fmt.Errorf("%s: invalid port", entry.Name()))
			continue
		}
		if seen[uint16(port)] {
			continue
		}

		inst, err := r.load(filepath.Join(r.unitDir, entry.Name()), uint16(port))
		if err != nil {
			skipped = multierror.Append(skipped, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		seen[inst.Port] = true
		instances = append(instances, inst)
	}

	if skipped != nil {
		for _, e := range skipped.Errors {
			r.logger.WithError(e).Warn("Skipping unreadable server unit")
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Port < instances[j].Port
	})
	return instances, nil
}

// Find returns the instance listening on port
func (r *Registry) Find(port uint16) (models.Instance, bool, error) {
	instances, err := r.ListInstances()
	if err != nil {
		return models.Instance{}, false, err
	}
	for _, inst := range instances {
		if inst.Port == port {
			return inst, true, nil
		}
	}
	return models.Instance{}, false, nil
}

func (r *Registry) load(path string, port uint16) (models.Instance, error) {
	serverDir, err := serverDirFromUnit(path)
	if err != nil {
		return models.Instance{}, err
	}

	name := models.DefaultHostname
	if settings, err := servercfg.ReadSettings(models.ConfigPath(serverDir)); err != nil {
		r.logger.WithField("port", port).Debugf("No readable server config: %v", err)
	} else {
		name = settings.Hostname()
	}

	return models.Instance{
		Name:        name,
		Port:        port,
		Version:     common.ReadVersionMarker(serverDir),
		ServerDir:   serverDir,
		InstallRoot: models.InstallRootOf(serverDir),
	}, nil
}

// serverDirFromUnit reads WorkingDirectory, falling back to the directory of
// an ExecStart pointing at the start script
func serverDirFromUnit(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	opts, err := unit.DeserializeOptions(f)
	if err != nil {
		return "", fmt.Errorf("malformed unit: %w", err)
	}

	var workDir, execStart string
	for _, o := range opts {
		if o.Section != "Service" {
			continue
		}
		switch o.Name {
		case "WorkingDirectory":
			workDir = o.Value
		case "ExecStart":
			execStart = o.Value
		}
	}

	if workDir != "" {
		return filepath.Clean(workDir), nil
	}
	if exe := systemd.UnquoteExec(execStart); filepath.Base(exe) == models.StartScriptName {
		return filepath.Dir(exe), nil
	}
	return "", fmt.Errorf("unit has neither WorkingDirectory nor a start script ExecStart")
}
