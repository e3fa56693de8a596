package version

import (
	"fmt"
	"strings"
)

// ReleaseType selects which version component a release bumps.
type ReleaseType string

const (
	ReleaseMajor ReleaseType = "major"
	ReleaseMinor ReleaseType = "minor"
	ReleasePatch ReleaseType = "patch"
)

// ParseReleaseType validates a release type.
func ParseReleaseType(s string) (ReleaseType, error) {
	switch rt := ReleaseType(strings.ToLower(strings.TrimSpace(s))); rt {
	case ReleaseMajor, ReleaseMinor, ReleasePatch:
		return rt, nil
	default:
		return "", fmt.Errorf("invalid release type %q: use major, minor or patch", s)
	}
}

// FirstReleaseBaseline is assumed as the latest version of a package that
// was never released.
const FirstReleaseBaseline = "0.1.0"

// Latest holds the current and next versions derived from an inventory.
type Latest struct {
	Highest       string `json:"highest"`
	NeverReleased bool   `json:"neverReleased"`

	CurrentMajor string `json:"currentMajor"`
	CurrentMinor string `json:"currentMinor"`
	CurrentPatch string `json:"currentPatch,omitempty"` // empty when m.n has no patch release

	NextMajor  string `json:"nextMajor"`
	NextMinor  string `json:"nextMinor"`
	NextPatch  string `json:"nextPatch"`
	NextBranch string `json:"nextBranch"`

	major, minor uint64
}

// ComputeLatest derives current and next versions from the highest
// versioned ref. A package with no versioned ref is computed from the
// 0.1.0 baseline.
func ComputeLatest(inv *Inventory) *Latest {
	versioned := inv.Versioned()
	if len(versioned) == 0 {
		l := derive("", 0, 1, versioned)
		l.Highest = FirstReleaseBaseline
		l.NeverReleased = true
		return l
	}

	top := versioned[0]
	l := derive(prefixOf(top.Name), top.Version.Major(), top.Version.Minor(), versioned)
	l.Highest = top.Name
	return l
}

func derive(prefix string, m1, m2 uint64, versioned []Ref) *Latest {
	var patch uint64
	hasPatch := false
	for _, r := range versioned {
		v := r.Version
		if v.Major() != m1 || v.Minor() != m2 || v.Patch() == 0 {
			continue
		}
		if !hasPatch || v.Patch() > patch {
			patch = v.Patch()
			hasPatch = true
		}
	}

	l := &Latest{
		CurrentMajor: format(prefix, m1, 0, 0),
		CurrentMinor: format(prefix, m1, m2, 0),
		NextMajor:    format(prefix, m1+1, 0, 0),
		NextMinor:    format(prefix, m1, m2+1, 0),
		NextPatch:    format(prefix, m1, m2, patch+1),
		NextBranch:   fmt.Sprintf("%d.%d.x", m1, m2+1),
		major:        m1,
		minor:        m2,
	}
	if hasPatch {
		l.CurrentPatch = format(prefix, m1, m2, patch)
	}
	return l
}

// Baseline returns the release a ref is compared against to decide whether
// it has unreleased changes.
func (l *Latest) Baseline(rt ReleaseType) string {
	switch rt {
	case ReleaseMajor:
		return l.CurrentMajor
	case ReleaseMinor:
		return l.CurrentMinor
	case ReleasePatch:
		if l.CurrentPatch != "" {
			return l.CurrentPatch
		}
		return l.CurrentMinor
	default:
		return FirstReleaseBaseline
	}
}

// Next returns the version the release will be tagged with.
func (l *Latest) Next(rt ReleaseType) string {
	switch rt {
	case ReleaseMajor:
		return l.NextMajor
	case ReleasePatch:
		return l.NextPatch
	default:
		return l.NextMinor
	}
}

// BranchFor returns the maintenance branch a release is staged on.
func (l *Latest) BranchFor(rt ReleaseType) string {
	switch rt {
	case ReleaseMajor:
		return fmt.Sprintf("%d.0.x", l.major+1)
	case ReleasePatch:
		return fmt.Sprintf("%d.%d.x", l.major, l.minor)
	default:
		return l.NextBranch
	}
}
