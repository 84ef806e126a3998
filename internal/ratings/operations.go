package ratings

import (
	"context"
	"database/sql"
	"time"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
)

// SkillNames lists every skill with at least one rating, used by the
// ctx-maintain utility to recompute quality_metrics out of band.
func (s *Store) SkillNames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT skill_name FROM ratings ORDER BY skill_name`)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "listing rated skills")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning skill name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RecomputeMetrics recomputes quality_metrics for skillName from
// scratch without requiring a new rating (spec §9 supplemented
// ctx-maintain utility).
func (s *Store) RecomputeMetrics(skillName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "beginning recompute transaction")
	}
	defer tx.Rollback()

	if _, err := recomputeMetrics(tx, skillName); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordRating upserts a rating row and recomputes quality_metrics for
// skill_name from scratch, inside one transaction (spec §4.E
// record_rating).
func (s *Store) RecordRating(r Rating) (QualityMetrics, error) {
	timer := logging.StartTimer(logging.CategoryRatings, "RecordRating")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "beginning rating transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO ratings (skill_name, user_hash, stars, timestamp, project_type, review, was_helpful, task_succeeded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(skill_name, user_hash) DO UPDATE SET
			stars = excluded.stars,
			timestamp = excluded.timestamp,
			project_type = excluded.project_type,
			review = excluded.review,
			was_helpful = excluded.was_helpful,
			task_succeeded = excluded.task_succeeded`,
		r.SkillName, r.UserHash, r.Stars, r.Timestamp, r.ProjectType, r.Review, boolToInt(r.WasHelpful), boolToInt(r.TaskSucceeded))
	if err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "upserting rating")
	}

	metrics, err := recomputeMetrics(tx, r.SkillName)
	if err != nil {
		return QualityMetrics{}, err
	}

	if err := tx.Commit(); err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "committing rating transaction")
	}
	return metrics, nil
}

// recomputeMetrics aggregates ratings and recommendation usage_count
// for skillName and upserts the quality_metrics row, all within the
// caller's transaction.
func recomputeMetrics(tx *sql.Tx, skillName string) (QualityMetrics, error) {
	var m QualityMetrics
	m.SkillName = skillName

	row := tx.QueryRow(`
		SELECT COALESCE(AVG(stars), 0), COUNT(*),
		       COALESCE(AVG(was_helpful) * 100, 0),
		       COALESCE(AVG(task_succeeded) * 100, 0)
		FROM ratings WHERE skill_name = ?`, skillName)
	if err := row.Scan(&m.AvgRating, &m.TotalRatings, &m.HelpfulPercentage, &m.SuccessCorrelationPercentage); err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "aggregating ratings")
	}

	usageRow := tx.QueryRow(`SELECT COUNT(*) FROM recommendations WHERE skill_name = ?`, skillName)
	if err := usageRow.Scan(&m.UsageCount); err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "counting usage")
	}

	tokenRow := tx.QueryRow(`
		SELECT AVG(100.0 * (baseline_tokens - actual_tokens) / NULLIF(baseline_tokens, 0))
		FROM token_samples WHERE skill_name = ?`, skillName)
	var tokenEff sql.NullFloat64
	if err := tokenRow.Scan(&tokenEff); err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "aggregating token samples")
	}
	if tokenEff.Valid {
		v := tokenEff.Float64
		m.TokenEfficiencyPercentage = &v
	}

	m.LastUpdated = time.Now().UTC()

	_, err := tx.Exec(`
		INSERT INTO quality_metrics (skill_name, avg_rating, total_ratings, helpful_percentage, success_correlation_percentage, token_efficiency_percentage, usage_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(skill_name) DO UPDATE SET
			avg_rating = excluded.avg_rating,
			total_ratings = excluded.total_ratings,
			helpful_percentage = excluded.helpful_percentage,
			success_correlation_percentage = excluded.success_correlation_percentage,
			token_efficiency_percentage = excluded.token_efficiency_percentage,
			usage_count = excluded.usage_count,
			last_updated = excluded.last_updated`,
		m.SkillName, m.AvgRating, m.TotalRatings, m.HelpfulPercentage, m.SuccessCorrelationPercentage, m.TokenEfficiencyPercentage, m.UsageCount, m.LastUpdated)
	if err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "upserting quality metrics")
	}
	return m, nil
}

// RecordTokenSample stores one baseline-vs-actual token measurement
// for a skill, feeding TokenEfficiencyPercentage (§9 Open Question
// decision: nullable until at least one sample exists).
func (s *Store) RecordTokenSample(skillName string, baselineTokens, actualTokens int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO token_samples (skill_name, timestamp, baseline_tokens, actual_tokens) VALUES (?, ?, ?, ?)`,
		skillName, time.Now().UTC(), baselineTokens, actualTokens)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "recording token sample")
	}
	return nil
}

// GetMetrics returns the cached quality metrics for skillName.
func (s *Store) GetMetrics(skillName string) (QualityMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetricsLocked(skillName)
}

// getMetricsLocked is GetMetrics' body, callable by other methods that
// already hold s.mu (e.g. Export).
func (s *Store) getMetricsLocked(skillName string) (QualityMetrics, error) {
	var m QualityMetrics
	var tokenEff sql.NullFloat64
	row := s.db.QueryRow(`
		SELECT skill_name, avg_rating, total_ratings, helpful_percentage, success_correlation_percentage, token_efficiency_percentage, usage_count, last_updated
		FROM quality_metrics WHERE skill_name = ?`, skillName)
	err := row.Scan(&m.SkillName, &m.AvgRating, &m.TotalRatings, &m.HelpfulPercentage, &m.SuccessCorrelationPercentage, &tokenEff, &m.UsageCount, &m.LastUpdated)
	if err == sql.ErrNoRows {
		return QualityMetrics{}, ctxerr.New(ctxerr.NotFound, "no metrics for skill "+skillName)
	}
	if err != nil {
		return QualityMetrics{}, ctxerr.Wrap(ctxerr.IO, err, "reading quality metrics")
	}
	if tokenEff.Valid {
		v := tokenEff.Float64
		m.TokenEfficiencyPercentage = &v
	}
	return m, nil
}

// TopRated returns the top limit skills by avg_rating desc, total_ratings
// desc, skill_name asc, excluding skills below minRatings (spec §4.E
// top_rated).
func (s *Store) TopRated(limit, minRatings int) ([]QualityMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minRatings <= 0 {
		minRatings = 3
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT skill_name, avg_rating, total_ratings, helpful_percentage, success_correlation_percentage, token_efficiency_percentage, usage_count, last_updated
		FROM quality_metrics
		WHERE total_ratings >= ?
		ORDER BY avg_rating DESC, total_ratings DESC, skill_name ASC
		LIMIT ?`, minRatings, limit)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "querying top rated skills")
	}
	defer rows.Close()

	var out []QualityMetrics
	for rows.Next() {
		var m QualityMetrics
		var tokenEff sql.NullFloat64
		if err := rows.Scan(&m.SkillName, &m.AvgRating, &m.TotalRatings, &m.HelpfulPercentage, &m.SuccessCorrelationPercentage, &tokenEff, &m.UsageCount, &m.LastUpdated); err != nil {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning top rated row")
		}
		if tokenEff.Valid {
			v := tokenEff.Float64
			m.TokenEfficiencyPercentage = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordRecommendation inserts one recommendations row (spec §4.E
// record_recommendation, used by the Orchestrator's auto_activate and
// recommend flows).
func (s *Store) RecordRecommendation(r RecordedRecommendation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO recommendations (timestamp, context_hash, skill_name, confidence, reason, source, auto_activate)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp, r.ContextHash, r.SkillName, r.Confidence, r.Reason, r.Source, boolToInt(r.AutoActivate))
	if err != nil {
		return 0, ctxerr.Wrap(ctxerr.IO, err, "recording recommendation")
	}
	return res.LastInsertId()
}

// MarkAccepted records that the user acted on a surfaced recommendation.
func (s *Store) MarkAccepted(id int64, accepted bool) error {
	return s.setBoolColumn(id, "was_accepted", accepted)
}

// MarkApplied records whether a recommendation was actually applied
// (e.g. the agent activated successfully).
func (s *Store) MarkApplied(id int64, applied bool) error {
	return s.setBoolColumn(id, "was_applied", applied)
}

func (s *Store) setBoolColumn(id int64, column string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE recommendations SET `+column+` = ? WHERE id = ?`, boolToInt(value), id)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "updating recommendation "+column)
	}
	return nil
}

// RecentReviews returns the most recent ratings for skillName, newest
// first, used by the Orchestrator's skill_ratings operation (spec §4.F
// op 9: "recent_reviews (top 10 by timestamp desc)").
func (s *Store) RecentReviews(skillName string, limit int) ([]Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentReviewsLocked(skillName, limit)
}

// recentReviewsLocked is RecentReviews' body, callable by other
// methods that already hold s.mu (e.g. Export). limit<=0 means
// unbounded, used by Export to pull every rating for a skill.
func (s *Store) recentReviewsLocked(skillName string, limit int) ([]Rating, error) {
	query := `
		SELECT skill_name, user_hash, stars, timestamp, project_type, review, was_helpful, task_succeeded
		FROM ratings WHERE skill_name = ? ORDER BY timestamp DESC`
	args := []any{skillName}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "querying recent reviews")
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var r Rating
		var helpful, succeeded int
		if err := rows.Scan(&r.SkillName, &r.UserHash, &r.Stars, &r.Timestamp, &r.ProjectType, &r.Review, &helpful, &succeeded); err != nil {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning review row")
		}
		r.WasHelpful = helpful != 0
		r.TaskSucceeded = succeeded != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
