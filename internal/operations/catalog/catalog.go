package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/CloudNativeWorks/etlctl/internal/config"
	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Catalog lists installable releases from the vendor website
type Catalog struct {
	httpClient   *http.Client
	stableURL    string
	devURL       string
	devLimit     int
	maxRetryTime time.Duration
	platform     Platform
	logger       *logger.Logger
}

func NewCatalog(cfg config.CatalogConfig, goarch string, log *logger.Logger) (*Catalog, error) {
	platform, err := PlatformFor(goarch)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Catalog{
		httpClient:   &http.Client{Timeout: timeout},
		stableURL:    cfg.StableURL,
		devURL:       cfg.DevelopmentURL,
		devLimit:     cfg.DevLimit,
		maxRetryTime: cfg.MaxRetryTime,
		platform:     platform,
		logger:       log.WithModule("catalog"),
	}, nil
}

// ListReleases returns the stable release followed by recent development
// builds. A page that cannot be fetched only shrinks the result; an error is
// returned when nothing at all could be listed.
func (c *Catalog) ListReleases(ctx context.Context) ([]models.Release, error) {
	var (
		releases []models.Release
		failures *multierror.Error
	)

	if c.stableURL != "" {
		links, err := c.pageLinks(ctx, c.stableURL)
		switch {
		case err != nil:
			c.logger.WithError(err).Warn("Could not fetch stable release page")
			failures = multierror.Append(failures, err)
		default:
			if rel, ok := parseStable(links, c.platform); ok {
				releases = append(releases, rel)
			} else {
				c.logger.WithField("url", c.stableURL).Warn("No stable installer link found")
			}
		}
	}

	if c.devURL != "" && c.devLimit > 0 {
		links, err := c.pageLinks(ctx, c.devURL)
		if err != nil {
			c.logger.WithError(err).Warn("Could not fetch development builds page")
			failures = multierror.Append(failures, err)
		} else {
			releases = append(releases, parseDevelopment(links, c.platform, c.devLimit)...)
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(releases) == 0 {
		if failures != nil {
			return nil, &common.FetchError{URL: c.stableURL, Err: failures.ErrorOrNil()}
		}
		return nil, &common.FetchError{URL: c.stableURL, Err: fmt.Errorf("no installable release found for %s", c.platform.GOARCH)}
	}

	c.logger.WithField("count", len(releases)).Info("Listed available releases")
	return releases, nil
}

func (c *Catalog) pageLinks(ctx context.Context, pageURL string) ([]link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}
	body, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extractLinks(bytes.NewReader(body), base)
}

// fetchPage retries transport errors and 5xx responses with exponential
// backoff. Other statuses fail at once.
func (c *Catalog) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          2,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      c.maxRetryTime,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = time.Millisecond
	}
	policy.Reset()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return &common.FetchError{URL: pageURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fetchErr := &common.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
			if resp.StatusCode >= 500 {
				return fetchErr
			}
			return backoff.Permanent(fetchErr)
		}

		var buf bytes.Buffer
		if _, err := common.CopyWithContext(ctx, &buf, resp.Body); err != nil {
			return &common.FetchError{URL: pageURL, Err: err}
		}
		body = buf.Bytes()
		return nil
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), func(err error, d time.Duration) {
		c.logger.Debugf("fetching %s failed, retrying in %v: %v", pageURL, d, err)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
