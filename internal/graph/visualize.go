package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/grokify/releasetrain/internal/version"
)

// DOTConfig configures DOT output generation.
type DOTConfig struct {
	// Title is the graph title.
	Title string

	// RankDir is the direction of graph layout: "TB" (top-bottom), "LR" (left-right).
	RankDir string

	// ShowConstraints labels edges with the required constraint.
	ShowConstraints bool

	// ReleaseType selects the next version shown on released nodes.
	ReleaseType version.ReleaseType

	// ColorRelease is the color for packages in the release set.
	ColorRelease string

	// ColorUnchanged is the color for packages that are not released.
	ColorUnchanged string
}

// DefaultDOTConfig returns default DOT configuration.
func DefaultDOTConfig() DOTConfig {
	return DOTConfig{
		Title:           "Release Train",
		RankDir:         "BT",
		ShowConstraints: true,
		ReleaseType:     version.ReleaseMinor,
		ColorRelease:    "#4CAF50",
		ColorUnchanged:  "#9E9E9E",
	}
}

// WriteDOT writes the graph in DOT format for Graphviz.
func (g *ReleaseGraph) WriteDOT(w io.Writer, cfg DOTConfig) error {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph releasetrain {\n")
	fmt.Fprintf(&b, "  label=\"%s\";\n", escapeLabel(cfg.Title))
	fmt.Fprintf(&b, "  labelloc=\"t\";\n")
	fmt.Fprintf(&b, "  rankdir=\"%s\";\n", cfg.RankDir)
	fmt.Fprintf(&b, "  node [shape=box, style=filled];\n")
	fmt.Fprintf(&b, "\n")

	names := g.Names()
	for _, name := range names {
		r := g.Repos[name]
		color := cfg.ColorUnchanged
		if g.InReleaseSet(name) {
			color = cfg.ColorRelease
		}
		extra := ""
		if name == g.Root {
			extra = ", penwidth=2"
		}
		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\"%s];\n",
			nodeID(name), escapeLabel(g.nodeLabel(r, cfg.ReleaseType, "\n")), color, extra)
	}
	fmt.Fprintf(&b, "\n")

	for _, name := range names {
		r := g.Repos[name]
		for _, dep := range r.Dependencies.Names {
			constraint := g.constraintOn(dep, name)
			if cfg.ShowConstraints && constraint != "" {
				fmt.Fprintf(&b, "  %s -> %s [label=\"%s\"];\n", nodeID(name), nodeID(dep), escapeLabel(constraint))
			} else {
				fmt.Fprintf(&b, "  %s -> %s;\n", nodeID(name), nodeID(dep))
			}
		}
	}

	fmt.Fprintf(&b, "}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// nodeLabel is the package name plus its release transition, if any.
func (g *ReleaseGraph) nodeLabel(r *Repository, rt version.ReleaseType, sep string) string {
	if !g.InReleaseSet(r.Name) || r.Latest == nil {
		return r.Name
	}
	return r.Name + sep + r.Latest.Baseline(rt) + " → " + r.Latest.Next(rt)
}

// constraintOn returns the constraint requester placed on name.
func (g *ReleaseGraph) constraintOn(name, requester string) string {
	r, ok := g.Repos[name]
	if !ok {
		return ""
	}
	for _, c := range r.Constraints() {
		for _, req := range r.RequiredVersions[c] {
			if req == requester {
				return c
			}
		}
	}
	return ""
}

// nodeID creates a valid DOT node ID from a package name.
func nodeID(name string) string {
	replacer := strings.NewReplacer(
		":", "_",
		"/", "_",
		".", "_",
		"-", "_",
		"@", "_",
	)
	return "n_" + replacer.Replace(name)
}

// escapeLabel escapes a string for use in DOT labels.
func escapeLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "\\\"",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}

// ToDOT returns the graph as a DOT string.
func (g *ReleaseGraph) ToDOT(cfg DOTConfig) string {
	var sb strings.Builder
	_ = g.WriteDOT(&sb, cfg)
	return sb.String()
}

// MermaidConfig configures Mermaid diagram output.
type MermaidConfig struct {
	// Direction is "TB", "BT", "LR", or "RL".
	Direction string

	// ReleaseType selects the next version shown on released nodes.
	ReleaseType version.ReleaseType
}

// DefaultMermaidConfig returns default Mermaid configuration.
func DefaultMermaidConfig() MermaidConfig {
	return MermaidConfig{
		Direction:   "BT",
		ReleaseType: version.ReleaseMinor,
	}
}

// WriteMermaid writes the graph in Mermaid format.
func (g *ReleaseGraph) WriteMermaid(w io.Writer, cfg MermaidConfig) error {
	var b strings.Builder

	fmt.Fprintf(&b, "graph %s\n", cfg.Direction)

	names := g.Names()
	for _, name := range names {
		style := ""
		if g.InReleaseSet(name) {
			style = ":::release"
		}
		label := strings.ReplaceAll(g.nodeLabel(g.Repos[name], cfg.ReleaseType, "<br/>"), "\"", "'")
		fmt.Fprintf(&b, "    %s[\"%s\"]%s\n", nodeID(name), label, style)
	}

	for _, name := range names {
		for _, dep := range g.Repos[name].Dependencies.Names {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeID(name), nodeID(dep))
		}
	}

	fmt.Fprintf(&b, "    classDef release fill:#4CAF50,color:#fff\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// ToMermaid returns the graph as a Mermaid string.
func (g *ReleaseGraph) ToMermaid(cfg MermaidConfig) string {
	var sb strings.Builder
	_ = g.WriteMermaid(&sb, cfg)
	return sb.String()
}
