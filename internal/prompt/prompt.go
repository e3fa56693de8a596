// Package prompt asks the operator to approve a release plan.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/grokify/releasetrain/internal/report"
	"github.com/grokify/releasetrain/pkg/model"
)

// Question is printed after the plan summary.
const Question = "Are you sure you want to continue? (y/N) "

// Accepted reports whether answer approves the plan. Anything else,
// including an empty line, declines.
func Accepted(answer string) bool {
	switch strings.TrimSpace(answer) {
	case "y", "Y", "yes", "YES":
		return true
	default:
		return false
	}
}

// LineConfirmer asks on a line-oriented terminal.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the plan summary and reads one answer line.
func (c *LineConfirmer) Confirm(ctx context.Context, plan *model.ReleasePlan) (bool, error) {
	if _, err := fmt.Fprintf(c.Out, "%s\n%s", report.Summary(plan), Question); err != nil {
		return false, err
	}

	answer := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(c.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			errs <- err
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errs:
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	case line := <-answer:
		return Accepted(line), nil
	}
}
