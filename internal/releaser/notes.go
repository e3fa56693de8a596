package releaser

import (
	"fmt"
	"strings"
	"time"

	"github.com/grokify/releasetrain/internal/graph"
)

// DefaultAttribution closes every release body.
const DefaultAttribution = "[by releasetrain](https://github.com/grokify/releasetrain)"

// NotesData is what a release body is rendered from.
type NotesData struct {
	Tag         string
	Branch      string
	Stats       graph.Stats
	Reason      string
	Attribution string
	Time        time.Time
}

// Notes renders the release body: a summary line, file changes, commit
// subjects and a timestamped attribution.
func Notes(d NotesData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "`%s from %s branch with %d commits`", d.Tag, d.Branch, d.Stats.AheadBy)

	if d.Reason != "" {
		fmt.Fprintf(&b, "\n\n%s", d.Reason)
	}

	b.WriteString("\n\n### File changes:")
	for _, f := range d.Stats.Files {
		fmt.Fprintf(&b, "\n* %s", f)
	}
	if len(d.Stats.Files) == 0 {
		b.WriteString("\nnone")
	}

	b.WriteString("\n\n### Commits:")
	for _, c := range d.Stats.Commits {
		fmt.Fprintf(&b, "\n* %s", c)
	}
	if len(d.Stats.Commits) == 0 {
		b.WriteString("\nnone")
	}

	attribution := d.Attribution
	if attribution == "" {
		attribution = DefaultAttribution
	}
	fmt.Fprintf(&b, "\n\n%s @ %s", attribution, d.Time.UTC().Format("Mon Jan 02, 2006 15:04 MST"))

	return b.String()
}
