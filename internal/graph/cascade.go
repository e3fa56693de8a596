package graph

// Propagate grows the release set until no package outside it depends on a
// package inside it. A package that joins is released to pick up its
// dependency's new version even without changes of its own. It returns the
// number of packages added.
func Propagate(g *ReleaseGraph) int {
	added := 0
	names := g.Names()

	for {
		changed := false
		for _, name := range names {
			if g.InReleaseSet(name) {
				continue
			}
			r := g.Repos[name]
			for _, dep := range r.Dependencies.Names {
				if !g.InReleaseSet(dep) {
					continue
				}
				reason := ReasonDependency
				if name == g.Root {
					reason = ReasonRoot
				}
				g.AddRelease(name, reason, dep)
				changed = true
				added++
				break
			}
		}
		if !changed {
			return added
		}
	}
}
