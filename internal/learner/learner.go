package learner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/detector"
	"github.com/nickcrew/claude-ctx/internal/embedding"
	"github.com/nickcrew/claude-ctx/internal/llm"
	"github.com/nickcrew/claude-ctx/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Learner is component D, the Pattern Learner. Vectorizer and
// Collaborator are both optional collaborators (spec §6); a Learner
// built with neither still records history and serves the pattern and
// rule streams.
type Learner struct {
	history *HistoryStore
	embeds  *EmbeddingStore
	vec     embedding.Vectorizer
	collab  llm.Collaborator
	cfg     *config.Config
}

// New constructs a Learner rooted at workspaceRoot.
func New(workspaceRoot string, cfg *config.Config, vec embedding.Vectorizer, collab llm.Collaborator) *Learner {
	return &Learner{
		history: NewHistoryStore(workspaceRoot, cfg.Retention),
		embeds:  NewEmbeddingStore(workspaceRoot),
		vec:     vec,
		collab:  collab,
		cfg:     cfg,
	}
}

// RecordSuccess appends a SessionRecord for a completed session and,
// if a Vectorizer is configured, embeds its fingerprint into the
// embedding store (spec §4.D "Recording").
func (l *Learner) RecordSuccess(ctx context.Context, sc detector.SessionContext, agentsUsed []string, duration time.Duration, outcome Outcome) error {
	fp := Fingerprint(sc)
	sessionID := uuid.NewString()

	files := append([]string(nil), sc.FilesChanged...)
	if len(files) > maxFingerprintFiles {
		files = files[:maxFingerprintFiles]
	}

	rec := SessionRecord{
		SessionID:          sessionID,
		ContextFingerprint: fp,
		Files:              files,
		FileTypes:          sc.SortedFileTypes(),
		ArchitecturalFlags: architecturalFlags(sc),
		AgentsUsed:         agentsUsed,
		DurationSeconds:    duration.Seconds(),
		Outcome:            outcome,
		Timestamp:          time.Now().UTC(),
	}
	if err := l.history.Append(rec); err != nil {
		return err
	}

	if l.vec != nil {
		vector, err := l.vec.Embed(ctx, fp)
		if err != nil {
			logging.Get(logging.CategoryLearner).Warnw("embedding session fingerprint failed", "error", err)
			return nil
		}
		if err := l.embeds.Append(sessionID, vector); err != nil {
			logging.Get(logging.CategoryLearner).Warnw("appending session embedding failed", "error", err)
		}
	}
	return nil
}

// Predict computes the three recommendation streams (plus the
// optional LLM stream) and returns them merged and sorted (spec §4.D
// "Prediction"). It always returns within the configured soft budget:
// the semantic and LLM streams are dropped, not failed, if they run
// past their deadline.
func (l *Learner) Predict(ctx context.Context, sc detector.SessionContext) ([]Recommendation, error) {
	deadline := l.cfg.Learner.PredictionDeadline
	if deadline <= 0 {
		deadline = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	history, err := l.history.All()
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "loading session history")
	}

	fp := Fingerprint(sc)
	flags := architecturalFlags(sc)
	params := paramsFrom(l.cfg)

	pattern := patternStream(flags, history)
	rule := ruleStream(sc)

	var semantic []Recommendation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, serr := semanticStream(gctx, l.vec, l.embeds, history, fp, params.semanticTopK, params.minSimilarity)
		if serr != nil {
			logging.Get(logging.CategoryLearner).Warnw("semantic stream dropped", "error", serr)
			return nil
		}
		semantic = res
		return nil
	})
	_ = g.Wait() // the goroutine above never returns a non-nil error

	best := bestConfidence(pattern, rule, semantic)

	var llmRecs []Recommendation
	if l.collab != nil && best < params.llmFallback {
		llmTimeout := l.cfg.LLM.Timeout
		if llmTimeout <= 0 {
			llmTimeout = 10 * time.Second
		}
		llmCtx, llmCancel := context.WithTimeout(ctx, llmTimeout)
		recent, _ := l.history.Recent(5)
		res, lerr := llmStream(llmCtx, l.collab, fp, recent, best, params.llmFallback)
		llmCancel()
		if lerr != nil {
			logging.Get(logging.CategoryLearner).Warnw("llm stream dropped", "error", lerr)
		} else {
			llmRecs = res
		}
	}

	return merge(params.autoActivate, pattern, rule, semantic, llmRecs), nil
}

func bestConfidence(streams ...[]Recommendation) float64 {
	var best float64
	for _, stream := range streams {
		for _, rec := range stream {
			if rec.Confidence > best {
				best = rec.Confidence
			}
		}
	}
	return best
}
