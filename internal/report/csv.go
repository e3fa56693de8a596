package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/grokify/releasetrain/pkg/model"
)

// CSVFormatter formats results as CSV.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// FormatPlan formats the releases of a plan as CSV, one row per release in
// execution order.
func (f *CSVFormatter) FormatPlan(plan *model.ReleasePlan) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Order", "Package", "Manifest Name", "Source Ref", "Baseline", "Version", "Branch", "Ahead By", "First Release", "Depends On", "Reason"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, r := range plan.Releases {
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.Name,
			r.ManifestName,
			r.SourceRef,
			r.Baseline,
			r.Version,
			r.Branch,
			strconv.Itoa(r.AheadBy),
			strconv.FormatBool(r.FirstRelease),
			strings.Join(r.DependsOn, " "),
			r.Reason,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}

// FormatResult formats the created releases as CSV.
func (f *CSVFormatter) FormatResult(result *model.ReleaseResult) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Repository", "Previous Version", "Version", "Branch", "Branch Created", "Manifest Updated", "Already Published", "URL"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range result.Created {
		row := []string{
			r.Repo.FullName(),
			r.PreviousVersion,
			r.Version,
			r.Branch,
			strconv.FormatBool(r.BranchCreated),
			strconv.FormatBool(r.ManifestUpdated),
			strconv.FormatBool(r.AlreadyPublished),
			r.ReleaseURL,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}
