package version

import (
	"sort"
	"strings"
)

// SelectConstraint reduces the constraints requested for pkg to the single
// one it must be resolved with. Wildcards are dropped and "dev-x" counts as
// the same request as "x". More than one remaining constraint is a
// conflict; none at all selects Wildcard.
func SelectConstraint(pkg string, constraints []string) (Constraint, error) {
	sorted := append([]string(nil), constraints...)
	sort.Strings(sorted)

	var kept []string
	seen := make(map[string]bool)
	for _, raw := range sorted {
		c := Constraint(strings.TrimSpace(raw))
		if c.IsWildcard() {
			continue
		}
		key := strings.TrimPrefix(string(c), "dev-")
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, string(c))
	}

	switch len(kept) {
	case 0:
		return Wildcard, nil
	case 1:
		return Constraint(kept[0]), nil
	default:
		return "", &ConflictingConstraintsError{Package: pkg, Constraints: kept}
	}
}
