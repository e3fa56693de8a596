package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grokify/releasetrain/internal/report"
	"github.com/grokify/releasetrain/pkg/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	firstStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Release key.Binding
	Abort   key.Binding
}

var keys = keyMap{
	Release: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "release"),
	),
	Abort: key.NewBinding(
		key.WithKeys("n", "N", "enter", "esc", "q", "ctrl+c"),
		key.WithHelp("n/enter", "abort"),
	),
}

func (k keyMap) hint() string {
	var parts []string
	for _, b := range []key.Binding{k.Release, k.Abort} {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(parts, "  ")
}

// confirmModel is a yes/no dialog over a release plan.
type confirmModel struct {
	plan     *model.ReleasePlan
	answered bool
	accepted bool
}

func newConfirmModel(plan *model.ReleasePlan) confirmModel {
	return confirmModel{plan: plan}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Release):
		m.answered, m.accepted = true, true
		return m, tea.Quit
	case key.Matches(km, keys.Abort):
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder
	for _, r := range m.plan.Releases {
		line := fmt.Sprintf("%-24s %s -> %s (%s)", r.Name, r.Baseline, r.Version, r.Branch)
		if r.FirstRelease {
			line = firstStyle.Render(line + " first release")
		}
		b.WriteString(line + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(report.Summary(m.plan)),
		boxStyle.Render(strings.TrimRight(b.String(), "\n")),
		hintStyle.Render(keys.hint()),
	)
}

// TUIConfirmer asks with a full-screen terminal dialog.
type TUIConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm runs the dialog until the operator answers.
func (c *TUIConfirmer) Confirm(ctx context.Context, plan *model.ReleasePlan) (bool, error) {
	p := tea.NewProgram(newConfirmModel(plan),
		tea.WithContext(ctx),
		tea.WithInput(c.In),
		tea.WithOutput(c.Out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("failed to run confirmation dialog: %w", err)
	}
	m, ok := final.(confirmModel)
	return ok && m.accepted, nil
}
