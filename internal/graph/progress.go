package graph

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressReporter receives discovery progress.
type ProgressReporter interface {
	Start(root string)
	StartPass(pass, pending int)
	ScanRepo(name string)
	FoundPackage(name, requester string)
	Error(repo string, err error)
	Complete(stats GraphStats)
}

// passCounter tracks the position inside the current discovery pass.
type passCounter struct {
	mu      sync.Mutex
	pass    int
	pending int
	current int
	found   int
	errors  int
}

func (c *passCounter) reset() {
	c.mu.Lock()
	c.pass, c.pending, c.current, c.found, c.errors = 0, 0, 0, 1, 0
	c.mu.Unlock()
}

func (c *passCounter) beginPass(pass, pending int) {
	c.mu.Lock()
	c.pass, c.pending, c.current = pass, pending, 0
	c.mu.Unlock()
}

// step counts one scanned repository and returns the pass position.
func (c *passCounter) step() (pass, current, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	return c.pass, c.current, c.pending
}

var (
	progressHeader = lipgloss.NewStyle().Bold(true)
	progressError  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	progressMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Progress writes discovery progress to a terminal.
type Progress struct {
	passCounter
	out      io.Writer
	enabled  bool
	every    time.Duration
	started  time.Time
	lastLine time.Time
}

// ProgressConfig configures progress reporting.
type ProgressConfig struct {
	// Writer defaults to os.Stderr.
	Writer io.Writer

	Enabled bool

	// MinInterval throttles per-repository lines. Default is 100ms.
	MinInterval time.Duration
}

// NewProgress returns a terminal reporter. A disabled reporter writes nothing.
func NewProgress(cfg ProgressConfig) *Progress {
	p := &Progress{
		out:     cfg.Writer,
		enabled: cfg.Enabled,
		every:   cfg.MinInterval,
	}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.every <= 0 {
		p.every = 100 * time.Millisecond
	}
	return p
}

func (p *Progress) Start(root string) {
	if !p.enabled {
		return
	}
	p.reset()
	p.started = time.Now()
	p.lastLine = time.Time{}
	fmt.Fprintln(p.out, progressHeader.Render("Discovering dependencies of "+root))
}

func (p *Progress) StartPass(pass, pending int) {
	if !p.enabled {
		return
	}
	p.beginPass(pass, pending)
	fmt.Fprintf(p.out, "pass %d: %d manifest(s) to read\n", pass, pending)
}

func (p *Progress) ScanRepo(name string) {
	if !p.enabled {
		return
	}
	_, current, pending := p.step()

	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.lastLine) < p.every {
		return
	}
	p.lastLine = time.Now()
	fmt.Fprintf(p.out, "  %s %s\r", progressMuted.Render(fmt.Sprintf("[%d/%d]", current, pending)), name)
}

func (p *Progress) FoundPackage(string, string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	p.found++
	p.mu.Unlock()
}

func (p *Progress) Error(repo string, err error) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors++
	fmt.Fprintf(p.out, "\n%s\n", progressError.Render(fmt.Sprintf("  %s: %v", repo, err)))
}

// Complete prints a summary of the finished discovery.
func (p *Progress) Complete(stats GraphStats) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n%s\n", progressHeader.Render("Discovery complete"))
	fmt.Fprintf(p.out, "  %-13s %d\n", "Passes:", p.pass)
	fmt.Fprintf(p.out, "  %-13s %d\n", "Packages:", stats.Repositories)
	fmt.Fprintf(p.out, "  %-13s %d\n", "Dependencies:", stats.Edges)
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %-13s %d\n", "Errors:", p.errors)
	}
	fmt.Fprintf(p.out, "  %-13s %s\n", "Duration:", time.Since(p.started).Round(time.Millisecond))
}

// ProgressCallback is called for every discovery progress event.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent is one discovery progress update.
type ProgressEvent struct {
	Type      ProgressEventType `json:"type"`
	Repo      string            `json:"repo,omitempty"`
	Requester string            `json:"requester,omitempty"`
	Pass      int               `json:"pass,omitempty"`
	Current   int               `json:"current,omitempty"`
	Total     int               `json:"total,omitempty"`
	Error     error             `json:"error,omitempty"`
}

type ProgressEventType string

const (
	ProgressEventStart    ProgressEventType = "start"
	ProgressEventPass     ProgressEventType = "pass"
	ProgressEventRepo     ProgressEventType = "repo"
	ProgressEventPackage  ProgressEventType = "package"
	ProgressEventError    ProgressEventType = "error"
	ProgressEventComplete ProgressEventType = "complete"
)

// CallbackProgress turns progress into ProgressEvent values.
type CallbackProgress struct {
	passCounter
	callback ProgressCallback
}

func NewCallbackProgress(callback ProgressCallback) *CallbackProgress {
	return &CallbackProgress{callback: callback}
}

func (cp *CallbackProgress) Start(root string) {
	cp.reset()
	cp.callback(ProgressEvent{Type: ProgressEventStart, Repo: root})
}

func (cp *CallbackProgress) StartPass(pass, pending int) {
	cp.beginPass(pass, pending)
	cp.callback(ProgressEvent{Type: ProgressEventPass, Pass: pass, Total: pending})
}

func (cp *CallbackProgress) ScanRepo(name string) {
	pass, current, pending := cp.step()
	cp.callback(ProgressEvent{Type: ProgressEventRepo, Repo: name, Pass: pass, Current: current, Total: pending})
}

func (cp *CallbackProgress) FoundPackage(name, requester string) {
	cp.callback(ProgressEvent{Type: ProgressEventPackage, Repo: name, Requester: requester})
}

func (cp *CallbackProgress) Error(repo string, err error) {
	cp.callback(ProgressEvent{Type: ProgressEventError, Repo: repo, Error: err})
}

func (cp *CallbackProgress) Complete(stats GraphStats) {
	cp.callback(ProgressEvent{Type: ProgressEventComplete, Total: stats.Repositories})
}
