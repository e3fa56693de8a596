package report

import (
	"encoding/json"

	"github.com/grokify/releasetrain/pkg/model"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	Indent bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{Indent: true}
}

// FormatPlan formats a plan as JSON.
func (f *JSONFormatter) FormatPlan(plan *model.ReleasePlan) (string, error) {
	return f.marshal(plan)
}

// FormatResult formats a result as JSON.
func (f *JSONFormatter) FormatResult(result *model.ReleaseResult) (string, error) {
	return f.marshal(result)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
