package resolver

import (
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/store"
)

// PlanStep is one (name, action) entry of an activation plan the
// Orchestrator executes through the Store (spec §4.B "Outputs"). Plans
// cover agents only, so the kind is not carried.
type PlanStep struct {
	Name   string
	Action store.Action
}

// ActivationPlan computes the ordered, dependency-first plan to
// activate seed (spec invariant 3: closure completeness). It validates
// acyclicity first and returns CycleError if the graph is cyclic.
func ActivationPlan(g *Graph, seed string) ([]PlanStep, error) {
	if cyc := g.DetectCycle(); cyc != nil {
		return nil, CycleError(cyc)
	}

	closure := g.Closure([]string{seed})
	steps := make([]PlanStep, len(closure))
	for i, name := range closure {
		steps[i] = PlanStep{Name: name, Action: store.ActionActivate}
	}
	return steps, nil
}

// ValidateMissingDependencies reports the first agent `requires` edge
// that points at an agent name absent from the known set (spec §4.B
// failure mode MissingDependency).
func ValidateMissingDependencies(g *Graph, agents []*store.Agent) error {
	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		known[a.Name] = true
	}
	for _, a := range agents {
		for _, dep := range a.Dependencies.Requires {
			if !known[dep] {
				return ctxerr.New(ctxerr.Invariant, "missing dependency").
					WithContext("agent", a.Name).WithContext("requires", dep)
			}
		}
	}
	return nil
}

// InstalledSkillVersions groups the available semantic versions of
// every installed skill, keyed by skill name, for use with
// ResolveSkillDependencies.
func InstalledSkillVersions(skills []*store.Skill) map[string][]SemVer {
	out := make(map[string][]SemVer)
	for _, sk := range skills {
		if sk.Version == "" {
			continue
		}
		v, err := ParseSemVer(sk.Version)
		if err != nil {
			continue // unparseable version: skill is still listed/loadable, just not a resolution candidate
		}
		out[sk.Name] = append(out[sk.Name], v)
	}
	return out
}

// ResolveSkillDependencies resolves every depends_on entry of sk against
// the installed version set, per spec §4.B and invariant 5. It returns
// the resolved version for each dependency name, or the first
// unresolved dependency as an error.
func ResolveSkillDependencies(sk *store.Skill, installed map[string][]SemVer) (map[string]SemVer, error) {
	resolved := make(map[string]SemVer, len(sk.DependsOn))
	for dep, spec := range sk.DependsOn {
		available, ok := installed[dep]
		if !ok || len(available) == 0 {
			return nil, ctxerr.New(ctxerr.Invariant, "missing skill dependency").
				WithContext("skill", sk.Name).WithContext("depends_on", dep)
		}
		v, err := ResolveVersion(dep, spec, available)
		if err != nil {
			return nil, err
		}
		resolved[dep] = v
	}
	return resolved, nil
}
