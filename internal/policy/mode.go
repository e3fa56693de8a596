// Package policy decides whether a planned release train may mutate the
// hosting service, and loads train definitions.
package policy

import (
	"fmt"
	"strings"
)

// Mode controls whether and how a release train executes.
type Mode string

const (
	// ModeSandbox prints the plan and never mutates.
	ModeSandbox Mode = "sandbox"

	// ModeInteractive prints the plan and asks for confirmation once.
	ModeInteractive Mode = "interactive"

	// ModeNonInteractive executes unattended.
	ModeNonInteractive Mode = "non-interactive"
)

// ModeInfo describes a mode for help output.
type ModeInfo struct {
	Mode        Mode
	Description string
	Mutates     bool
}

// Predefined modes.
var (
	ModeInfoSandbox = ModeInfo{
		Mode:        ModeSandbox,
		Description: "Discover, evaluate and print the plan; nothing is changed",
	}

	ModeInfoInteractive = ModeInfo{
		Mode:        ModeInteractive,
		Description: "Print the plan and release after an explicit confirmation",
		Mutates:     true,
	}

	ModeInfoNonInteractive = ModeInfo{
		Mode:        ModeNonInteractive,
		Description: "Release without asking",
		Mutates:     true,
	}
)

// ListModes returns all modes in order of increasing autonomy.
func ListModes() []ModeInfo {
	return []ModeInfo{ModeInfoSandbox, ModeInfoInteractive, ModeInfoNonInteractive}
}

// ParseMode validates a mode name. "noninteractive" and "auto" are accepted
// for non-interactive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox", "dry-run":
		return ModeSandbox, nil
	case "interactive", "":
		return ModeInteractive, nil
	case "non-interactive", "noninteractive", "auto":
		return ModeNonInteractive, nil
	default:
		names := make([]string, 0, 3)
		for _, m := range ListModes() {
			names = append(names, string(m.Mode))
		}
		return "", fmt.Errorf("invalid mode %q: use %s", s, strings.Join(names, ", "))
	}
}

// Info returns the description of m.
func (m Mode) Info() ModeInfo {
	for _, info := range ListModes() {
		if info.Mode == m {
			return info
		}
	}
	return ModeInfo{Mode: m}
}
