package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/detector"
	"github.com/nickcrew/claude-ctx/internal/learner"
	"github.com/nickcrew/claude-ctx/internal/ratings"
	"github.com/nickcrew/claude-ctx/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()

	st := store.New(dir)
	require.NoError(t, st.Init())

	cfg := config.DefaultConfig()
	cfg.Root = dir

	rs, err := ratings.Open(filepath.Join(dir, "data", "skill_ratings.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })

	l := learner.New(dir, cfg, nil, nil)

	return New(cfg, st, l, rs), dir
}

func writeAgent(t *testing.T, dir, kindDir, name, requires string) {
	t.Helper()
	path := filepath.Join(dir, kindDir, name+".md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	body := "---\nname: " + name + "\nversion: 1.0.0\n"
	if requires != "" {
		body += "dependencies:\n  requires:\n    - " + requires + "\n"
	}
	body += "---\nBody for " + name + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestActivate_AgentWithDependencyComputesClosure(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "agents", "python-pro", "")
	writeAgent(t, dir, "inactive/agents", "api-designer", "python-pro")

	report, err := o.Activate(context.Background(), KindAgent, "api-designer")
	require.NoError(t, err)
	assert.Contains(t, report.Activated, "api-designer")
	assert.Contains(t, report.AlreadyActive, "python-pro")
	assert.Empty(t, report.Errors)
}

func TestActivate_CycleAbortsBeforeAnyFileChange(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "inactive/agents", "a", "b")
	writeAgent(t, dir, "inactive/agents", "b", "c")
	writeAgent(t, dir, "inactive/agents", "c", "a")

	_, err := o.Activate(context.Background(), KindAgent, "a")
	require.Error(t, err)

	infos, err := o.ComponentList(context.Background(), KindAgent)
	require.NoError(t, err)
	for _, info := range infos {
		assert.Equal(t, store.StatusInactive, info.Status)
	}
}

func TestDeactivate_BlockedByActiveDependent(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "agents", "b", "")
	writeAgent(t, dir, "agents", "a", "b")

	_, err := o.Deactivate(context.Background(), KindAgent, "b", false)
	require.Error(t, err)

	infos, err := o.ComponentList(context.Background(), KindAgent)
	require.NoError(t, err)
	for _, info := range infos {
		if info.Name == "b" {
			assert.Equal(t, store.StatusActive, info.Status)
		}
	}
}

func TestDeactivate_ForceLeavesWarning(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "agents", "b", "")
	writeAgent(t, dir, "agents", "a", "b")

	report, err := o.Deactivate(context.Background(), KindAgent, "b", true)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Warning)
	assert.Contains(t, report.BlockedBy, "a")
}

func TestAutoActivate_OnlyActivatesAboveThresholdAgents(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "inactive/agents", "security-auditor", "")

	recs := []Recommendation{
		{Kind: learner.RecAgent, Name: "security-auditor", Confidence: 0.95, AutoActivate: true, Source: learner.SourceRule},
		{Kind: learner.RecSkill, Name: "api-docs-skill", Confidence: 0.99, AutoActivate: false, Source: learner.SourceRule},
		{Kind: learner.RecAgent, Name: "perf-agent", Confidence: 0.70, AutoActivate: false, Source: learner.SourceRule},
	}

	report, err := o.AutoActivate(context.Background(), "ctx-hash-1", recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"security-auditor"}, report.Activated)
}

func TestRateSkill_RejectsOutOfRangeStars(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.RateSkill("backend-architect", 7, true, true, "", "")
	require.Error(t, err)
}

func TestRateSkill_ThenSkillRatings(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	_, err := o.RateSkill("backend-architect", 5, true, true, "great", "go")
	require.NoError(t, err)

	view, err := o.SkillRatings("backend-architect")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Metrics.TotalRatings)
	require.Len(t, view.RecentReviews, 1)
}

func TestRecommend_RuleOnlyWithEmptyHistory(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	recs, err := o.Recommend(context.Background(), detector.SessionContext{HasAuth: true}, false)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "security-auditor", recs[0].Name)
	assert.Equal(t, learner.SourceRule, recs[0].Source)
}

func TestRecordSessionOutcomeThenProfileSnapshot(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "agents", "python-pro", "")

	require.NoError(t, o.RecordSessionOutcome(context.Background(), detector.SessionContext{HasBackend: true}, []string{"python-pro"}, time.Second, learner.OutcomeSuccess))

	snap, err := o.ProfileSnapshot(context.Background(), "current")
	require.NoError(t, err)
	assert.Contains(t, snap.Agents, "python-pro")
}

func TestProfileSnapshotThenApplyIsNoOp(t *testing.T) {
	o, dir := newTestOrchestrator(t)
	writeAgent(t, dir, "agents", "python-pro", "")

	snap, err := o.ProfileSnapshot(context.Background(), "current")
	require.NoError(t, err)

	report, err := o.ProfileApply(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Nil(t, report.Failed)
}
