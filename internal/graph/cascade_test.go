package graph

import (
	"fmt"
	"sort"
	"strings"
	"testing"
)

func TestPropagate_Chain(t *testing.T) {
	g := testGraph("a", map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	})
	g.AddRelease("c", ReasonChanged, "")

	if added := Propagate(g); added != 2 {
		t.Errorf("Propagate() added %d, want 2", added)
	}

	got := append([]string(nil), g.ReleaseSet...)
	sort.Strings(got)
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("ReleaseSet = %v, want a,b,c", g.ReleaseSet)
	}

	if r := g.Repos["b"]; r.Reason != ReasonDependency || r.ReasonDependency != "c" {
		t.Errorf("b reason = %s (%s)", r.Reason, r.ReasonDependency)
	}
	if r := g.Repos["a"]; r.Reason != ReasonRoot {
		t.Errorf("root reason = %s, want root", r.Reason)
	}
}

func TestPropagate_Unrelated(t *testing.T) {
	g := testGraph("app", map[string][]string{
		"app":   {"lib"},
		"lib":   nil,
		"other": nil,
	})
	g.AddRelease("lib", ReasonChanged, "")

	Propagate(g)

	if g.InReleaseSet("other") {
		t.Error("package without released dependencies joined")
	}
	if !g.InReleaseSet("app") {
		t.Error("root did not join")
	}
}

func TestPropagate_Empty(t *testing.T) {
	g := testGraph("app", map[string][]string{"app": {"lib"}, "lib": nil})

	if added := Propagate(g); added != 0 {
		t.Errorf("Propagate() added %d on empty set", added)
	}
	if len(g.ReleaseSet) != 0 {
		t.Errorf("ReleaseSet = %v", g.ReleaseSet)
	}
}

func TestPropagate_LongChain(t *testing.T) {
	const n = 50
	deps := make(map[string][]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("p%02d", i)
		if i == n-1 {
			deps[name] = nil
			continue
		}
		// p00 requires p01 requires ... p49; sorted name order is
		// the worst case since each pass only adds one package.
		deps[name] = []string{fmt.Sprintf("p%02d", i+1)}
	}
	g := testGraph("p00", deps)
	g.AddRelease(fmt.Sprintf("p%02d", n-1), ReasonChanged, "")

	if added := Propagate(g); added != n-1 {
		t.Fatalf("Propagate() added %d, want %d", added, n-1)
	}
	if len(g.ReleaseSet) != n {
		t.Errorf("ReleaseSet has %d members, want %d", len(g.ReleaseSet), n)
	}
}

func TestPropagate_Cycle(t *testing.T) {
	g := testGraph("x", map[string][]string{
		"x": {"y"},
		"y": {"x"},
		"z": {"x"},
	})
	g.AddRelease("y", ReasonChanged, "")

	Propagate(g)

	for _, name := range []string{"x", "y", "z"} {
		if !g.InReleaseSet(name) {
			t.Errorf("%s not in release set", name)
		}
	}
}
