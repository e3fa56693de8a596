package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/grokify/releasetrain/pkg/model"
)

// MarkdownFormatter formats results as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// FormatPlan formats a plan as Markdown.
func (f *MarkdownFormatter) FormatPlan(plan *model.ReleasePlan) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Release Plan\n\n")
	sb.WriteString(fmt.Sprintf("**Time:** %s\n\n", plan.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Root:** `%s/%s` @ `%s`\n\n", plan.Owner, plan.Root, plan.SourceRef))
	sb.WriteString(fmt.Sprintf("**Release Type:** %s | **Mode:** %s\n\n", plan.ReleaseType, plan.Mode))
	sb.WriteString(fmt.Sprintf("%s\n\n", Summary(plan)))

	if len(plan.Releases) > 0 {
		sb.WriteString("## Releases\n\n")
		sb.WriteString("| # | Package | Baseline | Next | Branch | Ahead | Reason |\n")
		sb.WriteString("|---|---------|----------|------|--------|-------|--------|\n")

		for i, r := range plan.Releases {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %d | %s |\n",
				i+1, r.Name, r.Baseline, r.Version, r.Branch, r.AheadBy, r.Reason))
		}
	}

	if len(plan.Discovered) > 0 {
		sb.WriteString("\n## Discovered Packages\n\n")
		sb.WriteString("| Package | Resolved Ref | Latest Release | Dependencies |\n")
		sb.WriteString("|---------|--------------|----------------|--------------|\n")
		for _, d := range plan.Discovered {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				d.Name, d.ResolvedRef, d.LatestRelease, strings.Join(d.Dependencies, ", ")))
		}
	}

	return sb.String(), nil
}

// FormatResult formats a result as Markdown.
func (f *MarkdownFormatter) FormatResult(result *model.ReleaseResult) (string, error) {
	var sb strings.Builder

	if result.Executed {
		sb.WriteString("# Release Results\n\n")
	} else {
		sb.WriteString("# Release Plan Not Executed\n\n")
	}

	sb.WriteString(fmt.Sprintf("**Created:** %d | **Duration:** %s\n\n",
		result.CreatedCount, result.Duration.Round(time.Millisecond)))

	if len(result.Created) > 0 {
		sb.WriteString("## Created Releases\n\n")
		for _, r := range result.Created {
			if r.ReleaseURL != "" {
				sb.WriteString(fmt.Sprintf("- [%s %s](%s): %s → %s on `%s`\n",
					r.Repo.FullName(), r.Version, r.ReleaseURL, r.PreviousVersion, r.Version, r.Branch))
			} else {
				sb.WriteString(fmt.Sprintf("- %s: %s → %s on `%s`\n",
					r.Repo.FullName(), r.PreviousVersion, r.Version, r.Branch))
			}
		}
	}

	return sb.String(), nil
}
