// Package learner implements the Pattern Learner (spec §4.D, component
// D): session history persistence and the three-stream recommendation
// engine (semantic, frequency-pattern, rule-based), plus an optional
// LLM fallback stream.
package learner

import "time"

// Outcome is the terminal state of a recorded session.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomePartial   Outcome = "partial"
	OutcomeAbandoned Outcome = "abandoned"
)

// SessionRecord is one append-only history entry (spec §3). SessionID
// is the join key against embeddings.jsonl's {session_id, vector}
// entries; spec §3 does not name it explicitly but embeddings.jsonl
// requires one to correlate a stored vector back to the agents it led
// to, so it is carried here.
type SessionRecord struct {
	SessionID          string    `json:"session_id"`
	ContextFingerprint string    `json:"context_fingerprint"`
	Files              []string  `json:"files"`
	FileTypes          []string  `json:"file_types"`
	ArchitecturalFlags []string  `json:"architectural_flags"`
	AgentsUsed         []string  `json:"agents_used"`
	DurationSeconds    float64   `json:"duration_seconds"`
	Outcome            Outcome   `json:"outcome"`
	Timestamp          time.Time `json:"timestamp"`
}

// Source attributes a Recommendation to the stream that produced it.
type Source string

const (
	SourceSemantic Source = "semantic"
	SourcePattern  Source = "pattern"
	SourceRule     Source = "rule"
	SourceLLM      Source = "llm"
)

// RecKind distinguishes an agent recommendation from a skill one; only
// agent recommendations are eligible for auto-activation (spec
// invariant 7).
type RecKind string

const (
	RecAgent RecKind = "agent"
	RecSkill RecKind = "skill"
)

// Recommendation is a single proposed activation with source
// attribution and confidence (spec §3).
type Recommendation struct {
	Kind         RecKind
	Name         string
	Confidence   float64
	Reason       string
	AutoActivate bool
	Source       Source
}

// embeddingRecord is one entry of embeddings.jsonl (spec §4.D).
type embeddingRecord struct {
	SessionID string    `json:"session_id"`
	Vector    []float32 `json:"vector"`
}
