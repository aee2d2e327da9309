package catalog

import (
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

var (
	stableHrefPattern  = regexp.MustCompile(`/download/file/\d+`)
	stableVersionRegex = regexp.MustCompile(`v(\d+\.\d+\.\d+)`)
	devFileRegex       = regexp.MustCompile(`etlegacy-v(\d+\.\d+\.\d+)(?:-(\d+)-g([0-9a-f]+))?`)
)

type link struct {
	Href string
	Text string
}

// extractLinks walks the document and returns every anchor with its href
// resolved against base
func extractLinks(r io.Reader, base *url.URL) ([]link, error) {
	var (
		links   []link
		current *link
		text    strings.Builder
	)

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return links, nil
			}
			return links, z.Err()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					current = &link{Href: resolve(base, string(val))}
					text.Reset()
				}
				if !more {
					break
				}
			}
		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "a" && current != nil {
				current.Text = strings.Join(strings.Fields(text.String()), " ")
				links = append(links, *current)
				current = nil
			}
		}
	}
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// parseStable returns the first stable installer link for the platform
func parseStable(links []link, p Platform) (models.Release, bool) {
	for _, l := range links {
		if !stableHrefPattern.MatchString(l.Href) || !p.matchesStable(l.Text) {
			continue
		}
		version := "unknown"
		if m := stableVersionRegex.FindStringSubmatch(l.Text); m != nil {
			version = m[1]
		}
		return models.Release{
			Version:  version,
			Source:   models.SourceStable,
			FetchURL: l.Href,
		}, true
	}
	return models.Release{}, false
}

// parseDevelopment returns development builds in page order, deduplicated
// and capped at limit
func parseDevelopment(links []link, p Platform, limit int) []models.Release {
	hrefPattern := regexp.MustCompile(`/workflow-files/dl/.+/` + regexp.QuoteMeta(p.DevDir) + `/.+\.sh$`)

	var releases []models.Release
	seen := map[string]bool{}
	for _, l := range links {
		if len(releases) >= limit {
			break
		}
		if !hrefPattern.MatchString(l.Href) || seen[l.Href] {
			continue
		}

		m := devFileRegex.FindStringSubmatch(l.Text)
		if m == nil {
			u, err := url.Parse(l.Href)
			if err != nil {
				continue
			}
			m = devFileRegex.FindStringSubmatch(path.Base(u.Path))
		}
		if m == nil {
			continue
		}

		version := m[1]
		if m[2] != "" {
			version += "-" + m[2]
		}
		seen[l.Href] = true
		releases = append(releases, models.Release{
			Version:   version,
			Source:    models.SourceDevelopment,
			BuildHash: m[3],
			FetchURL:  l.Href,
		})
	}
	return releases
}
