package maps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// StandardMaps is the community map pack offered on install
var StandardMaps = []string{
	"adlernest.pk3", "etl_adlernest_v4.pk3", "badplace4_rc.pk3", "etl_bergen_v9.pk3",
	"braundorf_b4.pk3", "bremen_b3.pk3", "crevasse_b3.pk3", "ctf_multi.pk3",
	"decay_sw.pk3", "element_b4_1.pk3", "erdenberg_t2.pk3", "et_beach.pk3",
	"et_brewdog_b6.pk3", "et_headshot.pk3", "et_headshot2_b2.pk3", "et_ice.pk3",
	"etl_ice_v12.pk3", "et_ufo_final.pk3", "frostbite.pk3", "etl_frostbite_v17.pk3",
	"karsiah_te2.pk3", "missile_b3.pk3", "mp_sillyctf.pk3", "osiris_final.pk3",
	"reactor_final.pk3", "rifletennis_te.pk3", "rifletennis_te2.pk3", "sos_secret_weapon.pk3",
	"sp_delivery_te.pk3", "etl_sp_delivery_v5.pk3", "supply.pk3", "etl_supply_v14.pk3",
	"sw_battery.pk3", "sw_goldrush_te.pk3", "sw_oasis_b3.pk3", "tc_base.pk3",
	"te_escape2.pk3", "te_escape2_fixed.pk3", "te_valhalla.pk3", "venice_ne4.pk3",
}

// Downloader streams one file to disk
type Downloader interface {
	Fetch(ctx context.Context, url, dest string) (string, error)
}

// ProgressFunc is told about each map before it is fetched
type ProgressFunc func(index, total int, name string)

// MapFile is an installed map archive
type MapFile struct {
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
}

// Report summarises a batch install
type Report struct {
	Installed []string
	Skipped   []string
	Failed    *multierror.Error
}

// Installer downloads maps into an instance's etmain directory
type Installer struct {
	downloader Downloader
	mirrorURL  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

func NewInstaller(cfg config.MapsConfig, downloader Downloader, log *logger.Logger) *Installer {
	log = log.WithModule("maps")

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	breakerSettings := gobreaker.Settings{
		Name:    "map-mirror",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("Circuit breaker %s changed from %v to %v", name, from, to)
		},
	}

	return &Installer{
		downloader: downloader,
		mirrorURL:  cfg.MirrorURL,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings),
		logger:     log,
	}
}

func mapsDir(serverDir string) string {
	return filepath.Join(serverDir, models.BaseGameDir)
}

// InstallStandard fetches every standard map not yet present. A failed map is
// recorded in the report and the batch continues; only cancellation aborts.
func (i *Installer) InstallStandard(ctx context.Context, serverDir string, progress ProgressFunc) (*Report, error) {
	dir := mapsDir(serverDir)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, common.FSError("mkdir", dir, err)
	}

	report := &Report{}
	for idx, name := range StandardMaps {
		if progress != nil {
			progress(idx+1, len(StandardMaps), name)
		}

		dest := filepath.Join(dir, name)
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		err := i.download(ctx, i.mirrorURL+name, dest)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err != nil {
			i.logger.WithError(err).WithField("map", name).Warn("Map download failed")
			report.Failed = multierror.Append(report.Failed, fmt.Errorf("%s: %w", name, err))
			continue
		}
		report.Installed = append(report.Installed, name)
	}

	i.logger.WithFields(logger.Fields{
		"installed": len(report.Installed),
		"skipped":   len(report.Skipped),
		"failed":    report.FailedCount(),
	}).Info("Standard map pack processed")
	return report, nil
}

// FailedCount is the number of maps that could not be fetched
func (r *Report) FailedCount() int {
	if r == nil || r.Failed == nil {
		return 0
	}
	return len(r.Failed.Errors)
}

// InstallCustom downloads one map from rawURL as name
func (i *Installer) InstallCustom(ctx context.Context, serverDir, rawURL, name string) error {
	if err := ValidateMapName(name); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid map url %q", rawURL)
	}

	dir := mapsDir(serverDir)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return common.FSError("mkdir", dir, err)
	}
	if err := i.download(ctx, rawURL, filepath.Join(dir, name)); err != nil {
		return err
	}
	i.logger.WithField("map", name).Info("Custom map installed")
	return nil
}

// ValidateMapName accepts a bare .pk3 file name
func ValidateMapName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid map file name %q", name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pk3") {
		return fmt.Errorf("map file %q must end in .pk3", name)
	}
	return nil
}

// download goes through the limiter and breaker and only moves a complete
// file into place
func (i *Installer) download(ctx context.Context, rawURL, dest string) error {
	if err := i.limiter.Wait(ctx); err != nil {
		return err
	}

	part := dest + ".part"
	_, err := i.breaker.Execute(func() (interface{}, error) {
		return i.downloader.Fetch(ctx, rawURL, part)
	})
	if err != nil {
		_ = os.Remove(part)
		if errors.Is(err, gobreaker.ErrOpenState) {
			return fmt.Errorf("map mirror unavailable: %w", err)
		}
		return err
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return common.FSError("rename", dest, err)
	}
	if err := os.Chmod(dest, 0664); err != nil {
		return common.FSError("chmod", dest, err)
	}
	return nil
}

// ListMaps returns the .pk3 archives of an instance sorted by name
func ListMaps(serverDir string) ([]MapFile, error) {
	dir := mapsDir(serverDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.FSError("readdir", dir, err)
	}

	var maps []MapFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pk3") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		maps = append(maps, MapFile{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(maps, func(a, b int) bool { return maps[a].Name < maps[b].Name })
	return maps, nil
}
