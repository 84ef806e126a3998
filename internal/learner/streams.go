package learner

import (
	"context"
	"sort"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/detector"
	"github.com/nickcrew/claude-ctx/internal/embedding"
	"github.com/nickcrew/claude-ctx/internal/llm"
)

// semanticStream embeds the query fingerprint and ranks stored
// embeddings by cosine similarity, yielding one recommendation per
// agent used in each sufficiently similar past session (spec §4.D
// stream 1).
func semanticStream(ctx context.Context, vec embedding.Vectorizer, embeds *EmbeddingStore, history []SessionRecord, fingerprint string, topK int, minSimilarity float64) ([]Recommendation, error) {
	if vec == nil {
		return nil, nil
	}
	stored, err := embeds.All()
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	query, err := vec.Embed(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	bySession := make(map[string]SessionRecord, len(history))
	for _, rec := range history {
		bySession[rec.SessionID] = rec
	}

	type scored struct {
		rec   SessionRecord
		score float64
	}
	var candidates []scored
	for _, e := range stored {
		rec, ok := bySession[e.SessionID]
		if !ok {
			continue
		}
		sim := embedding.CosineSimilarity(query, e.Vector)
		if sim >= minSimilarity {
			candidates = append(candidates, scored{rec: rec, score: sim})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	var out []Recommendation
	for _, c := range candidates {
		for _, agent := range c.rec.AgentsUsed {
			out = append(out, Recommendation{
				Kind:       RecAgent,
				Name:       agent,
				Confidence: c.score,
				Reason:     "similar past session",
				Source:     SourceSemantic,
			})
		}
	}
	return out, nil
}

// patternStream scores agents by how often they were used in past
// sessions sharing the current architectural-flag tuple (spec §4.D
// stream 2).
func patternStream(flags []string, history []SessionRecord) []Recommendation {
	key := FlagTupleKey(flags)

	counts := make(map[string]int)
	total := 0
	for _, rec := range history {
		if FlagTupleKey(rec.ArchitecturalFlags) != key {
			continue
		}
		for _, agent := range rec.AgentsUsed {
			counts[agent]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	var out []Recommendation
	for agent, count := range counts {
		confidence := float64(count) / float64(total)
		if confidence > 0.95 {
			confidence = 0.95
		}
		out = append(out, Recommendation{
			Kind:       RecAgent,
			Name:       agent,
			Confidence: confidence,
			Reason:     "frequently used for this kind of change",
			Source:     SourcePattern,
		})
	}
	return out
}

// ruleEntry is one row of the static signal-to-agent mapping table.
type ruleEntry struct {
	name       string
	confidence float64
	fires      func(detector.SessionContext) bool
}

// ruleTable is the static context-signal rule table of spec §4.D
// stream 3, documented per rule.
var ruleTable = []ruleEntry{
	{name: "security-auditor", confidence: 0.95, fires: func(c detector.SessionContext) bool { return c.HasAuth }},
	{name: "test-automator", confidence: 0.90, fires: func(c detector.SessionContext) bool { return c.TestFailures > 0 }},
	{name: "backend-architect", confidence: 0.75, fires: func(c detector.SessionContext) bool { return c.HasBackend }},
	{name: "api-designer", confidence: 0.70, fires: func(c detector.SessionContext) bool { return c.HasAPI }},
	{name: "frontend-developer", confidence: 0.65, fires: func(c detector.SessionContext) bool { return c.HasFrontend }},
	{name: "database-architect", confidence: 0.70, fires: func(c detector.SessionContext) bool { return c.HasDatabase }},
}

// ruleStream evaluates the static rule table against the current
// context. It always completes: no I/O, no cancellation point (spec
// §4.D "pattern and rule streams always complete").
func ruleStream(sc detector.SessionContext) []Recommendation {
	var out []Recommendation
	for _, rule := range ruleTable {
		if rule.fires(sc) {
			out = append(out, Recommendation{
				Kind:       RecAgent,
				Name:       rule.name,
				Confidence: rule.confidence,
				Reason:     "rule: " + rule.name,
				Source:     SourceRule,
			})
		}
	}
	return out
}

// llmStream invokes the LLM collaborator when configured and the best
// non-LLM confidence is below the fallback threshold (spec §4.D
// "Optional LLM stream").
func llmStream(ctx context.Context, collab llm.Collaborator, fingerprint string, recent []SessionRecord, bestNonLLM float64, fallbackThreshold float64) ([]Recommendation, error) {
	if collab == nil || bestNonLLM >= fallbackThreshold {
		return nil, nil
	}

	summaries := make([]string, 0, len(recent))
	for _, rec := range recent {
		summaries = append(summaries, rec.ContextFingerprint)
	}

	suggestions, err := collab.Propose(ctx, fingerprint, summaries)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, Recommendation{
			Kind:       RecAgent,
			Name:       s.Name,
			Confidence: s.Confidence,
			Reason:     s.Reason,
			Source:     SourceLLM,
			// Never auto-activated regardless of confidence (spec §4.D safety rule).
		})
	}
	return out, nil
}

// streamParams is the subset of config.LearnerConfig/ThresholdsConfig
// the streams need, collected to keep call sites short.
type streamParams struct {
	semanticTopK  int
	minSimilarity float64
	llmFallback   float64
	autoActivate  float64
}

func paramsFrom(cfg *config.Config) streamParams {
	return streamParams{
		semanticTopK:  cfg.Learner.SemanticTopK,
		minSimilarity: cfg.Thresholds.SemanticSimilarity,
		llmFallback:   cfg.Thresholds.LLMFallback,
		autoActivate:  cfg.Thresholds.AutoActivate,
	}
}
