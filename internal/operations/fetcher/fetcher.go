package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Fetcher streams installer artifacts to local storage
type Fetcher struct {
	httpClient  *http.Client
	downloadDir string
	progress    common.ProgressFunc
	logger      *logger.Logger
}

// NewFetcher builds a fetcher saving into downloadDir. Downloads have no
// overall timeout; cancel the context to abort one.
func NewFetcher(downloadDir string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		httpClient:  &http.Client{},
		downloadDir: downloadDir,
		logger:      log.WithModule("fetcher"),
	}
}

// SetProgress installs a callback receiving transfer progress
func (f *Fetcher) SetProgress(fn common.ProgressFunc) {
	f.progress = fn
}

// ArtifactPath is where the installer for release is stored
func (f *Fetcher) ArtifactPath(release models.Release) string {
	version := strings.NewReplacer("/", "_", " ", "_").Replace(release.Version)
	return filepath.Join(f.downloadDir, fmt.Sprintf("etlegacy-%s.sh", version))
}

// Fetch downloads url into dest and marks the result executable. A partial
// file is left behind when the transfer fails.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (string, error) {
	f.logger.WithFields(logger.Fields{"url": url, "dest": dest}).Info("Downloading artifact")

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", common.FSError("mkdir", filepath.Dir(dest), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &common.FetchError{URL: url, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &common.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &common.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", common.FSError("create", dest, err)
	}
	defer out.Close()

	written, err := common.CopyWithProgress(ctx, out, resp.Body, resp.ContentLength, f.progress)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &common.FetchError{URL: url, Err: err}
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return "", &common.FetchError{URL: url, Err: fmt.Errorf("short body: got %d of %d bytes", written, resp.ContentLength)}
	}

	if err := out.Close(); err != nil {
		return "", common.FSError("close", dest, err)
	}
	if err := os.Chmod(dest, 0755); err != nil {
		return "", common.FSError("chmod", dest, err)
	}

	f.logger.WithField("bytes", written).Debug("Artifact download completed")
	return dest, nil
}

// FetchRelease downloads release to its ArtifactPath
func (f *Fetcher) FetchRelease(ctx context.Context, release models.Release) (string, error) {
	return f.Fetch(ctx, release.FetchURL, f.ArtifactPath(release))
}
