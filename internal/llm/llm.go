// Package llm provides the optional LLM collaborator contract of spec
// §6: a propose() call that turns the current session context into a
// small set of named suggestions with confidence and reason. Absence
// of a configured Collaborator is the default state; the Pattern
// Learner simply skips the LLM stream when one is not wired.
package llm

import "context"

// Suggestion is one proposed activation returned by a Collaborator,
// prior to the Pattern Learner attaching kind/auto-activate policy.
type Suggestion struct {
	Name       string
	Confidence float64
	Reason     string
}

// Collaborator proposes activations from free-text context and a
// small sample of recent session summaries (spec §6).
type Collaborator interface {
	Propose(ctx context.Context, contextText string, recentSummaries []string) ([]Suggestion, error)
}
