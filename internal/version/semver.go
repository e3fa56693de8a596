// Package version ranks a package's refs and maps version constraints onto
// concrete refs.
package version

import (
	"fmt"
	"regexp"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

var semverPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// IsSemver checks if a string is a major.minor.patch version, optionally
// prefixed with "v".
func IsSemver(s string) bool {
	return semverPattern.MatchString(s)
}

// Parse parses a ref name into a version. Names that are not full
// major.minor.patch triplets are rejected even when Masterminds would coerce
// them.
func Parse(name string) (*mm.Version, error) {
	if !IsSemver(name) {
		return nil, fmt.Errorf("version: %q is not major.minor.patch", name)
	}
	v, err := mm.NewVersion(name)
	if err != nil {
		return nil, fmt.Errorf("version: parse %q: %w", name, err)
	}
	return v, nil
}

// prefixOf returns "v" when name carries a v prefix.
func prefixOf(name string) string {
	if strings.HasPrefix(name, "v") {
		return "v"
	}
	return ""
}

func format(prefix string, major, minor, patch uint64) string {
	return fmt.Sprintf("%s%d.%d.%d", prefix, major, minor, patch)
}
