package graph

// DefaultOrderPasses bounds the release scheduler for small release sets.
const DefaultOrderPasses = 15

// OrderConfig configures the release scheduler.
type OrderConfig struct {
	// MaxPasses bounds the scheduling passes. It is raised to the size of
	// the release set when that is larger, so any acyclic set orders.
	// Default is 15.
	MaxPasses int
}

// Order returns the release set in dependency-first order. Only edges
// between release set members count. A pass that places nothing, or
// running out of passes, fails with *UnorderableError.
func Order(g *ReleaseGraph, cfg OrderConfig) ([]string, error) {
	maxPasses := cfg.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultOrderPasses
	}
	if n := len(g.ReleaseSet); n > maxPasses {
		maxPasses = n
	}

	pending := append([]string(nil), g.ReleaseSet...)
	ordered := make([]string, 0, len(pending))
	placed := make(map[string]bool, len(pending))

	for pass := 1; len(pending) > 0; pass++ {
		if pass > maxPasses {
			return ordered, &UnorderableError{Ordered: ordered, Remaining: pending, Passes: pass - 1}
		}

		var next []string
		for _, name := range pending {
			if ready(g, name, placed) {
				ordered = append(ordered, name)
				placed[name] = true
				continue
			}
			next = append(next, name)
		}

		if len(next) == len(pending) {
			return ordered, &UnorderableError{Ordered: ordered, Remaining: pending, Passes: pass}
		}
		pending = next
	}

	return ordered, nil
}

// ready reports whether every release set dependency of name is placed.
func ready(g *ReleaseGraph, name string, placed map[string]bool) bool {
	r, ok := g.Repos[name]
	if !ok {
		return true
	}
	for _, dep := range r.Dependencies.Names {
		if dep == name {
			continue
		}
		if g.InReleaseSet(dep) && !placed[dep] {
			return false
		}
	}
	return true
}
