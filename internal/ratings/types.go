// Package ratings implements the Ratings Store (spec §4.E, component
// E): durable, transactional SQLite storage for every recommendation
// surfaced to a user, the ratings they leave, and cached quality
// metrics derived from both.
package ratings

import "time"

// RecordedRecommendation is one row of the recommendations table: a
// recommendation as it was surfaced, plus whether it was later acted
// on (spec §4.E schema).
type RecordedRecommendation struct {
	ID           int64
	Timestamp    time.Time
	ContextHash  string
	SkillName    string
	Confidence   float64
	Reason       string
	Source       string
	AutoActivate bool
	WasAccepted  *bool
	WasApplied   *bool
}

// Rating is one user's rating of a skill (spec §3, §4.E). The
// composite primary key (skill_name, user_hash) enforces one rating
// per user per skill; a later call overwrites rather than duplicates.
type Rating struct {
	SkillName     string
	UserHash      string
	Stars         int
	Timestamp     time.Time
	ProjectType   string
	Review        string
	WasHelpful    bool
	TaskSucceeded bool
}

// QualityMetrics is the cached, recomputed-on-write summary of a
// skill's ratings (spec §4.E schema). TokenEfficiencyPercentage is
// nullable: it is only populated once at least one token-sample has
// been recorded for the skill (§9 Open Question decision).
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
