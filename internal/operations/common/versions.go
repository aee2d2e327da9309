package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// UnknownVersion is reported for instances without a version marker
const UnknownVersion = "unknown"

// WriteVersionMarker records the installed release inside serverDir
func WriteVersionMarker(serverDir, ver string) error {
	path := filepath.Join(serverDir, models.VersionMarker)
	if err := os.WriteFile(path, []byte(ver+"\n"), 0664); err != nil {
		return FSError("write", path, err)
	}
	return nil
}

// ReadVersionMarker returns the recorded release, or UnknownVersion
func ReadVersionMarker(serverDir string) string {
	data, err := os.ReadFile(filepath.Join(serverDir, models.VersionMarker))
	if err != nil {
		return UnknownVersion
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return UnknownVersion
	}
	return v
}

// IsDowngrade reports whether moving from current to next goes backwards.
// Unparseable versions are never treated as a downgrade.
func IsDowngrade(current, next string) bool {
	cur, err := parseVersion(current)
	if err != nil {
		return false
	}
	nxt, err := parseVersion(next)
	if err != nil {
		return false
	}
	return nxt.LessThan(cur)
}

// parseVersion accepts release versions like 2.83.2 and development builds
// like 2.83.2-74, which compare as post-releases of their base version.
func parseVersion(raw string) (*version.Version, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "v")
	base, build, found := strings.Cut(raw, "-")
	if !found {
		return version.NewVersion(base)
	}
	v, err := version.NewVersion(base)
	if err != nil {
		return nil, err
	}
	segs := v.Segments()
	for len(segs) < 3 {
		segs = append(segs, 0)
	}
	return version.NewVersion(fmt.Sprintf("%d.%d.%d.%s", segs[0], segs[1], segs[2], build))
}
