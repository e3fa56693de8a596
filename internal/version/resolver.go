package version

import (
	"regexp"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Constraint is a version requirement exactly as written in a manifest:
// "1.2.*", "dev-master", "^1.0", a branch name or a literal version.
type Constraint string

// Wildcard accepts any ref.
const Wildcard Constraint = "*"

// IsWildcard reports whether c places no restriction on the version.
func (c Constraint) IsWildcard() bool {
	s := strings.TrimSpace(string(c))
	return s == "" || s == string(Wildcard)
}

func (c Constraint) String() string {
	return string(c)
}

var (
	composerOr      = regexp.MustCompile(`\s*\|\|?\s*`)
	stabilitySuffix = regexp.MustCompile(`@[a-zA-Z]+$`)
	wildcardPrefix  = regexp.MustCompile(`^v?\d+(\.\d+)*\.\*$`)
)

// Resolve maps a constraint onto a concrete ref of pkg. The first matching
// rule wins:
//
//  1. an exact branch name
//  2. "dev-" prefix with the remainder naming a ref
//  3. "-dev" suffix with the remainder naming a ref
//  4. "*", the highest-precedence ref
//  5. "x.y.*", the highest ref starting with "x.y."
//  6. a semantic version range, the highest satisfying version
func Resolve(pkg string, c Constraint, inv *Inventory) (string, error) {
	s := strings.TrimSpace(string(c))

	if inv.HasBranch(s) {
		return s, nil
	}

	if rest, ok := strings.CutPrefix(s, "dev-"); ok && inv.Has(rest) {
		return rest, nil
	}

	if rest, ok := strings.CutSuffix(s, "-dev"); ok && inv.Has(rest) {
		return rest, nil
	}

	if s == string(Wildcard) {
		if top, ok := inv.Highest(); ok {
			return top.Name, nil
		}
		return "", &UnresolvableConstraintError{Package: pkg, Constraint: c}
	}

	if wildcardPrefix.MatchString(s) {
		prefix := strings.TrimPrefix(strings.TrimSuffix(s, "*"), "v")
		for _, r := range inv.Refs() {
			if strings.HasPrefix(strings.TrimPrefix(r.Name, "v"), prefix) {
				return r.Name, nil
			}
		}
		return "", &UnresolvableConstraintError{Package: pkg, Constraint: c}
	}

	rng, err := mm.NewConstraint(normalizeRange(s))
	if err != nil {
		return "", &UnresolvableConstraintError{Package: pkg, Constraint: c, Err: err}
	}
	for _, r := range inv.Versioned() {
		if rng.Check(r.Version) {
			return r.Name, nil
		}
	}

	return "", &UnresolvableConstraintError{Package: pkg, Constraint: c}
}

// normalizeRange rewrites composer range syntax into the Masterminds
// dialect: single-bar alternation and stability flags.
func normalizeRange(s string) string {
	s = stabilitySuffix.ReplaceAllString(s, "")
	return composerOr.ReplaceAllString(s, " || ")
}
