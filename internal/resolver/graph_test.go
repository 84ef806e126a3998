package resolver

import (
	"testing"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agent(name string, requires ...string) *store.Agent {
	return &store.Agent{
		Name:         name,
		Dependencies: store.Dependencies{Requires: requires},
	}
}

func TestBuildGraph_ClosureCompleteness(t *testing.T) {
	agents := []*store.Agent{
		agent("python-pro"),
		agent("api-designer", "python-pro"),
		agent("security-auditor"),
	}
	g := BuildGraph(agents)

	closure := g.Closure([]string{"api-designer"})
	assert.ElementsMatch(t, []string{"python-pro", "api-designer"}, closure)
	// dependency-first: python-pro must precede api-designer
	assert.Equal(t, "python-pro", closure[0])
	assert.Equal(t, "api-designer", closure[1])
}

func TestDetectCycle_FindsCycle(t *testing.T) {
	agents := []*store.Agent{
		agent("A", "B"),
		agent("B", "C"),
		agent("C", "A"),
	}
	g := BuildGraph(agents)

	cyc := g.DetectCycle()
	require.NotEmpty(t, cyc)
	assert.Equal(t, cyc[0], cyc[len(cyc)-1])
}

func TestDetectCycle_Acyclic(t *testing.T) {
	agents := []*store.Agent{agent("A", "B"), agent("B")}
	g := BuildGraph(agents)
	assert.Nil(t, g.DetectCycle())
}

func TestActivationPlan_CycleReturnsError(t *testing.T) {
	agents := []*store.Agent{agent("A", "B"), agent("B", "C"), agent("C", "A")}
	g := BuildGraph(agents)

	_, err := ActivationPlan(g, "A")
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.Invariant, cat)
}

func TestDeactivationBlockers(t *testing.T) {
	agents := []*store.Agent{agent("A", "B"), agent("B")}
	g := BuildGraph(agents)

	blockers := g.DeactivationBlockers("B", map[string]bool{"A": true, "B": true})
	assert.Equal(t, []string{"A"}, blockers)

	blockers = g.DeactivationBlockers("A", map[string]bool{"A": true, "B": true})
	assert.Empty(t, blockers)
}

func TestValidateMissingDependencies(t *testing.T) {
	agents := []*store.Agent{agent("A", "ghost")}
	g := BuildGraph(agents)

	err := ValidateMissingDependencies(g, agents)
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.Invariant, cat)
}

func TestResolveVersion(t *testing.T) {
	available := []SemVer{{1, 0, 0}, {1, 2, 0}, {2, 0, 0}}

	v, err := ResolveVersion("owasp-base", "^1.0.0", available)
	require.NoError(t, err)
	assert.Equal(t, SemVer{1, 2, 0}, v)

	v, err = ResolveVersion("owasp-base", "~1.0.0", available)
	require.NoError(t, err)
	assert.Equal(t, SemVer{1, 0, 0}, v)

	v, err = ResolveVersion("owasp-base", ">=1.2.0", available)
	require.NoError(t, err)
	assert.Equal(t, SemVer{2, 0, 0}, v)

	v, err = ResolveVersion("owasp-base", "latest", available)
	require.NoError(t, err)
	assert.Equal(t, SemVer{2, 0, 0}, v)

	_, err = ResolveVersion("owasp-base", "^3.0.0", available)
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.Invariant, cat)
}

func TestResolveSkillDependencies(t *testing.T) {
	sk := &store.Skill{
		Name:      "api-docs-skill",
		DependsOn: map[string]string{"owasp-base": "^1.0.0"},
	}
	installed := map[string][]SemVer{"owasp-base": {{1, 0, 0}, {1, 1, 0}}}

	resolved, err := ResolveSkillDependencies(sk, installed)
	require.NoError(t, err)
	assert.Equal(t, SemVer{1, 1, 0}, resolved["owasp-base"])
}

func TestResolveSkillDependencies_MissingDependency(t *testing.T) {
	sk := &store.Skill{Name: "x", DependsOn: map[string]string{"ghost": "latest"}}
	_, err := ResolveSkillDependencies(sk, map[string][]SemVer{})
	require.Error(t, err)
}
