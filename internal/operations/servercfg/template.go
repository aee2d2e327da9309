package servercfg

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
)

var patterns = buildPatterns()

func buildPatterns() map[string]*regexp.Regexp {
	p := make(map[string]*regexp.Regexp, len(Keys))
	for _, key := range Keys {
		p[key] = regexp.MustCompile(`(?m)^([ \t]*set[ \t]+` + regexp.QuoteMeta(key) + `[ \t]+)"([^"\n]*)"`)
	}
	return p
}

// sanitize drops characters that cannot live inside a quoted directive
func sanitize(v string) string {
	return strings.NewReplacer(`"`, "", "\r", "", "\n", " ").Replace(v)
}

// ApplySettings overwrites the quoted value of every known directive that
// appears in contents. Directives missing from contents are not added.
func ApplySettings(contents string, s Settings) string {
	for _, key := range Keys {
		value, ok := s[key]
		if !ok {
			continue
		}
		value = sanitize(value)
		contents = patterns[key].ReplaceAllStringFunc(contents, func(line string) string {
			m := patterns[key].FindStringSubmatch(line)
			return m[1] + `"` + value + `"`
		})
	}
	return contents
}

// ExtractSettings reads back every known directive found in contents
func ExtractSettings(contents string) Settings {
	s := Settings{}
	for _, key := range Keys {
		if m := patterns[key].FindStringSubmatch(contents); m != nil {
			s[key] = m[2]
		}
	}
	return s
}

// MissingKeys lists the keys of s the file does not carry, in table order
func MissingKeys(contents string, s Settings) []string {
	var missing []string
	for _, key := range Keys {
		if _, ok := s[key]; !ok {
			continue
		}
		if !patterns[key].MatchString(contents) {
			missing = append(missing, key)
		}
	}
	return missing
}

// ReadSettings loads the directives of an on-disk config file
func ReadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FSError("read", path, err)
	}
	return ExtractSettings(string(data)), nil
}

// PatchFile applies s to the config file at path in place and returns the
// keys it could not find.
func PatchFile(path string, s Settings) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.FSError("stat", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FSError("read", path, err)
	}

	contents := string(data)
	missing := MissingKeys(contents, s)
	updated := ApplySettings(contents, s)

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return nil, common.FSError("write", path, err)
	}
	return missing, nil
}

// StartScript renders etl_start.sh for the given port and architecture
func StartScript(port uint16, goarch string) (string, error) {
	bin, err := ServerBinary(goarch)
	if err != nil {
		return "", err
	}
	return renderStartScript(bin, port), nil
}

// ServerBinary names the dedicated server executable shipped for goarch
func ServerBinary(goarch string) (string, error) {
	switch goarch {
	case "amd64":
		return "etlded.x86_64", nil
	case "arm64":
		return "etlded.aarch64", nil
	default:
		return "", fmt.Errorf("unsupported architecture %s", goarch)
	}
}
