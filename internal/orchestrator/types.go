// Package orchestrator is the single public entry point of spec §4.F,
// component F: it composes the Store, Resolver, Detector, Learner, and
// Ratings Store, enforcing the cross-component invariants none of them
// know about individually (agent activation closures, deactivation
// safety, auto-activation gating, atomic-vs-partial-success reporting).
package orchestrator

import (
	"time"

	"github.com/nickcrew/claude-ctx/internal/learner"
	"github.com/nickcrew/claude-ctx/internal/store"
)

// ActivationReport is the result of activate() and auto_activate()
// (spec §4.F ops 2 and 6): what was activated, what was already
// active, and what failed, in the order encountered.
type ActivationReport struct {
	Activated     []string
	AlreadyActive []string
	Errors        []StepError
}

// StepError names the step that failed alongside its cause, so a
// partial-success report can enumerate exactly what went wrong without
// aborting unrelated steps (spec §4.F failure semantics).
type StepError struct {
	Name string
	Err  error
}

// DeactivationReport is the result of deactivate() (spec §4.F op 3).
// BlockedBy is populated only when the reverse-dependency invariant is
// violated; Warning is set when force=true proceeded over it.
type DeactivationReport struct {
	Deactivated []string
	BlockedBy   []string
	Forced      bool
	Warning     string
}

// SkillRatingsView is the response shape of skill_ratings (spec §4.F
// op 9): cached metrics plus the most recent reviews.
type SkillRatingsView struct {
	Metrics       QualityMetrics
	RecentReviews []Review
}

// QualityMetrics mirrors ratings.QualityMetrics at the Orchestrator's
// public boundary, so callers never import internal/ratings directly.
type QualityMetrics struct {
	SkillName                    string
	AvgRating                    float64
	TotalRatings                 int
	HelpfulPercentage            float64
	SuccessCorrelationPercentage float64
	TokenEfficiencyPercentage    *float64
	UsageCount                   int
	LastUpdated                  time.Time
}

// Review mirrors ratings.Rating at the public boundary.
type Review struct {
	UserHash      string
	Stars         int
	Timestamp     time.Time
	ProjectType   string
	Review        string
	WasHelpful    bool
	TaskSucceeded bool
}

// Recommendation mirrors learner.Recommendation at the public
// boundary.
type Recommendation struct {
	Kind         learner.RecKind
	Name         string
	Confidence   float64
	Reason       string
	AutoActivate bool
	Source       learner.Source
}

// Kind re-exports store.Kind so callers need not import internal/store
// for the common case.
type Kind = store.Kind

const (
	KindAgent = store.KindAgent
	KindSkill = store.KindSkill
	KindMode  = store.KindMode
	KindRule  = store.KindRule
)
