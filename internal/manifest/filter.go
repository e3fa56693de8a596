package manifest

import "strings"

// NameFilter decides which requirements are part of the release train.
// Rules match name substrings.
type NameFilter struct {
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty" yaml:"deny,omitempty"`
}

// Match reports whether a requirement named name is followed. Platform
// requirements such as "php" or "ext-json" carry no vendor and never match.
// Deny wins over allow; an empty allow list admits every other package.
func (f NameFilter) Match(name string) bool {
	if !strings.Contains(name, "/") {
		return false
	}
	for _, d := range f.Deny {
		if d != "" && strings.Contains(name, d) {
			return false
		}
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, a := range f.Allow {
		if strings.Contains(name, a) {
			return true
		}
	}
	return false
}
