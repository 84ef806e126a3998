// Package resolver builds and validates the in-memory agent/skill
// dependency graph (spec §4.B, component B). Every function here is
// pure and non-suspending (spec §5): it operates over a flat list of
// components already loaded by the Store, never touching disk itself.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/store"
)

// Graph is the in-memory agent dependency graph: two adjacency maps
// rebuilt from a flat agent list on every load, with no shared mutable
// references between nodes (spec §9 re-architecture note).
type Graph struct {
	requiresOut   map[string][]string // agent -> agents it requires
	recommendsOut map[string][]string // agent -> agents it recommends
	requiredByIn  map[string][]string // agent -> agents that require it
	names         map[string]bool
}

// BuildGraph constructs a Graph from the full set of known agents.
func BuildGraph(agents []*store.Agent) *Graph {
	g := &Graph{
		requiresOut:   make(map[string][]string),
		recommendsOut: make(map[string][]string),
		requiredByIn:  make(map[string][]string),
		names:         make(map[string]bool, len(agents)),
	}
	for _, a := range agents {
		g.names[a.Name] = true
	}
	for _, a := range agents {
		g.requiresOut[a.Name] = append([]string(nil), a.Dependencies.Requires...)
		g.recommendsOut[a.Name] = append([]string(nil), a.Dependencies.Recommends...)
		for _, dep := range a.Dependencies.Requires {
			g.requiredByIn[dep] = append(g.requiredByIn[dep], a.Name)
		}
	}
	return g
}

// Requires returns the direct `requires` edges of name.
func (g *Graph) Requires(name string) []string { return g.requiresOut[name] }

// Recommends returns the direct `recommends` edges of name.
func (g *Graph) Recommends(name string) []string { return g.recommendsOut[name] }

// RequiredBy returns the agents whose `requires` edge points at name.
func (g *Graph) RequiredBy(name string) []string { return g.requiredByIn[name] }

// color marks DFS visitation state for cycle detection.
type color int

const (
	white color = iota
	gray
	black
)

// DetectCycle runs a three-color DFS over the `requires` graph (spec
// §4.B). It returns the first cycle found as a path whose first and
// last elements are equal (spec testable property 2), or nil if the
// graph is acyclic.
func (g *Graph) DetectCycle() []string {
	colors := make(map[string]color, len(g.names))
	var path []string

	var visit func(n string) []string
	visit = func(n string) []string {
		colors[n] = gray
		path = append(path, n)

		for _, next := range g.requiresOut[n] {
			switch colors[next] {
			case white:
				if cyc := visit(next); cyc != nil {
					return cyc
				}
			case gray:
				// Back edge: build the cycle path from where `next`
				// first appears in the current path.
				idx := indexOf(path, next)
				cyc := append([]string(nil), path[idx:]...)
				cyc = append(cyc, next)
				return cyc
			case black:
				// Forward/cross edge, not a cycle.
			}
		}

		colors[n] = black
		path = path[:len(path)-1]
		return nil
	}

	names := sortedNames(g.names)
	for _, n := range names {
		if colors[n] == white {
			if cyc := visit(n); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func sortedNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CycleError formats a DetectCycle path into the human-readable cycle
// description spec invariant 2 requires.
func CycleError(path []string) error {
	return ctxerr.New(ctxerr.Invariant, fmt.Sprintf("dependency cycle detected: %s", strings.Join(path, " -> "))).
		WithContext("cycle", path)
}

// Closure computes the activation closure of seed: the union of seed
// and everything transitively reachable via `requires`, ordered
// dependency-first (reverse topological order), per spec §4.B. The
// caller must have already confirmed the graph is acyclic.
func (g *Graph) Closure(seed []string) []string {
	visited := make(map[string]bool)
	var order []string

	var visit func(n string)
	visit = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, dep := range g.requiresOut[n] {
			visit(dep)
		}
		order = append(order, n) // dependency-first: deps appended before n
	}

	sorted := append([]string(nil), seed...)
	sort.Strings(sorted)
	for _, s := range sorted {
		visit(s)
	}
	return order
}

// DeactivationBlockers returns the active agents whose `requires`
// closure contains candidate, i.e. the agents that block deactivating
// candidate (spec §4.B "Deactivation safety"). active is the full set
// of currently-active agent names.
func (g *Graph) DeactivationBlockers(candidate string, active map[string]bool) []string {
	var blockers []string
	for name := range active {
		if name == candidate {
			continue
		}
		closure := g.Closure([]string{name})
		for _, n := range closure {
			if n == candidate {
				blockers = append(blockers, name)
				break
			}
		}
	}
	sort.Strings(blockers)
	return blockers
}
