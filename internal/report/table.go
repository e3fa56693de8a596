package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/grokify/releasetrain/pkg/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	rootStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
)

// TableFormatter formats results as text tables.
type TableFormatter struct {
	// Styled highlights headers and the root package.
	Styled bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

func (f *TableFormatter) style(s lipgloss.Style, text string) string {
	if !f.Styled {
		return text
	}
	return s.Render(text)
}

// FormatPlan formats a plan as a text table.
func (f *TableFormatter) FormatPlan(plan *model.ReleasePlan) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Release Plan (%s)\n", plan.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Root: %s/%s @ %s | Type: %s | Mode: %s\n",
		plan.Owner, plan.Root, plan.SourceRef, plan.ReleaseType, plan.Mode))
	sb.WriteString(fmt.Sprintf("Discovered: %d | Releases: %d\n", len(plan.Discovered), len(plan.Releases)))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	if len(plan.Discovered) > 0 {
		sb.WriteString(f.style(headerStyle, "Dependencies:") + "\n")
		for _, d := range plan.Discovered {
			sb.WriteString(fmt.Sprintf("  %s @ %s\n", d.Name, d.ResolvedRef))
			constraints := make([]string, 0, len(d.RequiredVersions))
			for c := range d.RequiredVersions {
				constraints = append(constraints, c)
			}
			sort.Strings(constraints)
			for _, c := range constraints {
				sb.WriteString(fmt.Sprintf("      %-20s required by %s\n", c, strings.Join(d.RequiredVersions[c], ", ")))
			}
		}
		sb.WriteString("\n")
	}

	if len(plan.Releases) == 0 {
		sb.WriteString(Summary(plan) + "\n")
		return sb.String(), nil
	}

	sb.WriteString(f.style(headerStyle, fmt.Sprintf("%-4s %-30s %-12s %-12s %-10s %-6s %s",
		"#", "PACKAGE", "BASELINE", "NEXT", "BRANCH", "AHEAD", "REASON")) + "\n")
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for i, r := range plan.Releases {
		name := truncate(r.Name, 30)
		if r.Name == plan.Root {
			name = f.style(rootStyle, fmt.Sprintf("%-30s", name))
		} else {
			name = fmt.Sprintf("%-30s", name)
		}
		sb.WriteString(fmt.Sprintf("%-4d %s %-12s %-12s %-10s %6d %s\n",
			i+1, name, r.Baseline, r.Version, r.Branch, r.AheadBy, truncate(r.Reason, 60)))
	}

	sb.WriteString("\n" + Summary(plan) + "\n")
	return sb.String(), nil
}

// FormatResult formats a result as a text table.
func (f *TableFormatter) FormatResult(result *model.ReleaseResult) (string, error) {
	var sb strings.Builder

	if !result.Executed {
		sb.WriteString("Release Plan Not Executed\n")
	} else {
		sb.WriteString("Release Results\n")
	}
	sb.WriteString(fmt.Sprintf("Created: %d | Duration: %s\n", result.CreatedCount, result.Duration.Round(time.Millisecond)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if result.Plan != nil {
		sb.WriteString(Summary(result.Plan) + "\n")
	}

	if len(result.Created) > 0 {
		sb.WriteString("\nCreated:\n")
		for _, r := range result.Created {
			note := ""
			if r.AlreadyPublished {
				note = " (already published)"
			}
			sb.WriteString(fmt.Sprintf("  ✅ %s: %s → %s on %s%s\n",
				r.Repo.FullName(), r.PreviousVersion, r.Version, r.Branch, note))
		}
	}

	return sb.String(), nil
}
