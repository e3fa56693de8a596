package report

import (
	"gopkg.in/yaml.v3"

	"github.com/grokify/releasetrain/pkg/model"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// FormatPlan formats a plan as YAML.
func (f *YAMLFormatter) FormatPlan(plan *model.ReleasePlan) (string, error) {
	data, err := yaml.Marshal(plan)
	return string(data), err
}

// FormatResult formats a result as YAML.
func (f *YAMLFormatter) FormatResult(result *model.ReleaseResult) (string, error) {
	data, err := yaml.Marshal(result)
	return string(data), err
}
