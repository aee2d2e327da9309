package catalog

import (
	"fmt"
	"strings"
)

// Platform describes how installers for one CPU architecture are named on
// the release pages
type Platform struct {
	GOARCH string
	// StableTokens must appear (any of them) in the stable link text
	StableTokens []string
	// StableExclude rules out links for other architectures
	StableExclude []string
	// DevDir is the path segment grouping development builds
	DevDir string
}

var platforms = map[string]Platform{
	"amd64": {
		GOARCH:        "amd64",
		StableTokens:  []string{"x86_64", "64"},
		StableExclude: []string{"aarch64", "arm"},
		DevDir:        "lnxx8664",
	},
	"arm64": {
		GOARCH:       "arm64",
		StableTokens: []string{"aarch64", "arm64"},
		DevDir:       "lnxarm64",
	},
}

// PlatformFor returns the naming rules for goarch
func PlatformFor(goarch string) (Platform, error) {
	p, ok := platforms[goarch]
	if !ok {
		return Platform{}, fmt.Errorf("no ET: Legacy server build for architecture %s", goarch)
	}
	return p, nil
}

func (p Platform) matchesStable(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "linux") || !strings.Contains(lower, ".sh") {
		return false
	}
	for _, ex := range p.StableExclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}
	for _, tok := range p.StableTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Constants
const (
	DefaultDevLimit = 4
	userAgent       = "etlctl"
)
