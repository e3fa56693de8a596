package graph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(ProgressConfig{Writer: &buf})

	p.Start("app")
	p.StartPass(1, 2)
	p.ScanRepo("lib")
	p.Error("lib", errors.New("boom"))
	p.Complete(GraphStats{Repositories: 2})

	assert.Empty(t, buf.String())
}

func TestProgress_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(ProgressConfig{Writer: &buf, Enabled: true})

	p.Start("app")
	p.StartPass(1, 1)
	p.ScanRepo("app")
	p.FoundPackage("lib", "app")
	p.StartPass(2, 1)
	p.ScanRepo("lib")
	p.Error("lib", errors.New("502 Bad Gateway"))
	p.Complete(GraphStats{Repositories: 2, Edges: 1})

	out := buf.String()
	assert.Contains(t, out, "Discovering dependencies of app")
	assert.Contains(t, out, "pass 2: 1 manifest(s) to read")
	assert.Contains(t, out, "lib: 502 Bad Gateway")
	assert.Regexp(t, `Passes:\s+2`, out)
	assert.Regexp(t, `Packages:\s+2`, out)
	assert.Regexp(t, `Errors:\s+1`, out)
}

func TestCallbackProgress_Positions(t *testing.T) {
	var events []ProgressEvent
	cp := NewCallbackProgress(func(e ProgressEvent) { events = append(events, e) })

	cp.Start("app")
	cp.StartPass(1, 2)
	cp.ScanRepo("app")
	cp.ScanRepo("lib")

	last := events[len(events)-1]
	assert.Equal(t, ProgressEventRepo, last.Type)
	assert.Equal(t, 1, last.Pass)
	assert.Equal(t, 2, last.Current)
	assert.Equal(t, 2, last.Total)
}
