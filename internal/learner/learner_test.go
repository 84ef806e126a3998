package learner

import (
	"context"
	"testing"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/detector"
	"github.com/nickcrew/claude-ctx/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authContext() detector.SessionContext {
	return detector.SessionContext{HasAuth: true}
}

func TestRuleStream_FiresDocumentedRules(t *testing.T) {
	recs := ruleStream(detector.SessionContext{HasAuth: true, TestFailures: 2, HasBackend: true})

	byName := map[string]Recommendation{}
	for _, r := range recs {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "security-auditor")
	assert.Equal(t, 0.95, byName["security-auditor"].Confidence)
	require.Contains(t, byName, "test-automator")
	require.Contains(t, byName, "backend-architect")
}

func TestRuleStream_EmptyContextFiresNothing(t *testing.T) {
	recs := ruleStream(detector.SessionContext{})
	assert.Empty(t, recs)
}

func TestPatternStream_ScoresByFrequency(t *testing.T) {
	history := []SessionRecord{
		{ArchitecturalFlags: []string{"has_backend"}, AgentsUsed: []string{"backend-architect"}},
		{ArchitecturalFlags: []string{"has_backend"}, AgentsUsed: []string{"backend-architect"}},
		{ArchitecturalFlags: []string{"has_backend"}, AgentsUsed: []string{"test-automator"}},
		{ArchitecturalFlags: []string{"has_frontend"}, AgentsUsed: []string{"frontend-developer"}},
	}

	recs := patternStream([]string{"has_backend"}, history)
	byName := map[string]Recommendation{}
	for _, r := range recs {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "backend-architect")
	assert.InDelta(t, 2.0/3.0, byName["backend-architect"].Confidence, 0.001)
	assert.NotContains(t, byName, "frontend-developer")
}

func TestMerge_KeepsHighestConfidencePerNameAndSortsDeterministically(t *testing.T) {
	a := []Recommendation{{Kind: RecAgent, Name: "zeta", Confidence: 0.5, Source: SourceRule}}
	b := []Recommendation{
		{Kind: RecAgent, Name: "zeta", Confidence: 0.9, Source: SourcePattern},
		{Kind: RecAgent, Name: "alpha", Confidence: 0.9, Source: SourceRule},
	}

	merged := merge(0.80, a, b)
	require.Len(t, merged, 2)
	assert.Equal(t, "alpha", merged[0].Name) // tie on confidence, alpha < zeta
	assert.Equal(t, "zeta", merged[1].Name)
	assert.Equal(t, 0.9, merged[1].Confidence)
	assert.True(t, merged[1].AutoActivate)
}

func TestMerge_LLMSourceNeverAutoActivates(t *testing.T) {
	llmRecs := []Recommendation{{Kind: RecAgent, Name: "oracle", Confidence: 0.99, Source: SourceLLM}}
	merged := merge(0.80, llmRecs)
	require.Len(t, merged, 1)
	assert.False(t, merged[0].AutoActivate)
}

func TestMerge_SkillKindNeverAutoActivatesRegardlessOfConfidence(t *testing.T) {
	recs := []Recommendation{{Kind: RecSkill, Name: "some-skill", Confidence: 0.99, Source: SourceRule}}
	merged := merge(0.80, recs)
	require.Len(t, merged, 1)
	assert.False(t, merged[0].AutoActivate)
}

func TestFingerprint_Deterministic(t *testing.T) {
	sc := authContext()
	sc.FileTypes = map[string]bool{".go": true, ".yaml": true}
	sc.FilesChanged = []string{"b.go", "a.go"}
	sc.ActiveAgents = []string{"z-agent", "a-agent"}

	assert.Equal(t, Fingerprint(sc), Fingerprint(sc))
}

func TestHistoryStore_AppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	h := NewHistoryStore(dir, config.RetentionConfig{MaxRecords: 100, PruneEvery: 100})

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Append(SessionRecord{
			SessionID: "s" + string(rune('0'+i)),
			Timestamp: time.Now(),
		}))
	}

	all, err := h.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := h.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s1", recent[0].SessionID)
	assert.Equal(t, "s2", recent[1].SessionID)
}

func TestHistoryStore_PruneDropsOldestBeyondMaxRecords(t *testing.T) {
	dir := t.TempDir()
	h := NewHistoryStore(dir, config.RetentionConfig{MaxRecords: 2, PruneEvery: 3})

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Append(SessionRecord{SessionID: "s" + string(rune('0'+i)), Timestamp: time.Now()}))
	}

	all, err := h.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[0].SessionID)
	assert.Equal(t, "s2", all[1].SessionID)
}

func TestLearner_PredictMergesRuleStreamWithoutCollaborators(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Root = dir

	l := New(dir, cfg, nil, nil)
	recs, err := l.Predict(context.Background(), detector.SessionContext{HasAuth: true})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "security-auditor", recs[0].Name)
	assert.True(t, recs[0].AutoActivate)
}

func TestLearner_RecordSuccessThenSemanticStreamFindsIt(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Root = dir
	cfg.Thresholds.SemanticSimilarity = 0.99 // exact self-match only

	vec := embedding.NewCosineEngine(64)
	l := New(dir, cfg, vec, nil)

	sc := detector.SessionContext{HasBackend: true, FilesChanged: []string{"main.go"}}
	require.NoError(t, l.RecordSuccess(context.Background(), sc, []string{"backend-architect"}, 5*time.Second, OutcomeSuccess))

	history, err := l.history.All()
	require.NoError(t, err)
	require.Len(t, history, 1)

	recs, err := semanticStream(context.Background(), vec, l.embeds, history, Fingerprint(sc), 5, 0.99)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "backend-architect", recs[0].Name)
	assert.Equal(t, SourceSemantic, recs[0].Source)
	assert.InDelta(t, 1.0, recs[0].Confidence, 0.001)
}
