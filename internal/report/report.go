// Package report renders release plans and results for the terminal and for
// other tools.
package report

import (
	"fmt"
	"strings"

	"github.com/grokify/releasetrain/pkg/model"
)

// Formatter defines the interface for formatting results.
type Formatter interface {
	// FormatPlan formats the plan produced by the read-only pipeline.
	FormatPlan(plan *model.ReleasePlan) (string, error)

	// FormatResult formats the outcome of an executed plan.
	FormatResult(result *model.ReleaseResult) (string, error)
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"table", "json", "yaml", "markdown", "csv"}

// NewFormatter returns the formatter for name. An empty name is "table".
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "yaml", "yml":
		return NewYAMLFormatter(), nil
	case "markdown", "md":
		return NewMarkdownFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use %s", name, strings.Join(Formats, ", "))
	}
}

// Summary is the one-line announcement of a plan, e.g.
// "New ROOT acme/app 2.1.0 to be released, depending on 1 new: acme/lib 1.5.0".
func Summary(plan *model.ReleasePlan) string {
	if len(plan.Releases) == 0 {
		return "No repositories require a release"
	}

	deps := plan.Dependencies()
	parts := make([]string, 0, len(deps))
	for _, d := range deps {
		parts = append(parts, d.Name+" "+d.Version)
	}

	root, ok := plan.RootRelease()
	if !ok {
		return fmt.Sprintf("%d new to be released: %s", len(deps), strings.Join(parts, ", "))
	}
	if len(deps) == 0 {
		return fmt.Sprintf("New ROOT %s %s to be released", root.Name, root.Version)
	}
	return fmt.Sprintf("New ROOT %s %s to be released, depending on %d new: %s",
		root.Name, root.Version, len(deps), strings.Join(parts, ", "))
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
