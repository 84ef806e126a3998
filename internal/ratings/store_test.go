package ratings

import (
	"path/filepath"
	"testing"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "ratings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRating_RecomputesMetrics(t *testing.T) {
	s := openTestStore(t)

	m, err := s.RecordRating(Rating{
		SkillName: "backend-architect", UserHash: "u1", Stars: 4,
		WasHelpful: true, TaskSucceeded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.AvgRating)
	assert.Equal(t, 1, m.TotalRatings)
	assert.Equal(t, 100.0, m.HelpfulPercentage)

	m, err = s.RecordRating(Rating{
		SkillName: "backend-architect", UserHash: "u2", Stars: 2,
		WasHelpful: false, TaskSucceeded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m.AvgRating)
	assert.Equal(t, 2, m.TotalRatings)
	assert.Equal(t, 50.0, m.HelpfulPercentage)
	assert.Equal(t, 100.0, m.SuccessCorrelationPercentage)
}

func TestRecordRating_SameUserOverwritesNotDuplicates(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRating(Rating{SkillName: "test-automator", UserHash: "u1", Stars: 3})
	require.NoError(t, err)
	m, err := s.RecordRating(Rating{SkillName: "test-automator", UserHash: "u1", Stars: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, m.TotalRatings)
	assert.Equal(t, 5.0, m.AvgRating)
}

func TestGetMetrics_NotFoundReturnsNotFoundCategory(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetMetrics("does-not-exist")
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.NotFound, cat)
}

func TestTopRated_ExcludesBelowMinRatingsAndSortsDeterministically(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRating(Rating{SkillName: "alpha", UserHash: "u1", Stars: 5})
	require.NoError(t, err)
	_, err = s.RecordRating(Rating{SkillName: "alpha", UserHash: "u2", Stars: 5})
	require.NoError(t, err)
	_, err = s.RecordRating(Rating{SkillName: "alpha", UserHash: "u3", Stars: 5})
	require.NoError(t, err)

	_, err = s.RecordRating(Rating{SkillName: "beta", UserHash: "u1", Stars: 5})
	require.NoError(t, err)
	_, err = s.RecordRating(Rating{SkillName: "beta", UserHash: "u2", Stars: 5})
	require.NoError(t, err)
	_, err = s.RecordRating(Rating{SkillName: "beta", UserHash: "u3", Stars: 5})
	require.NoError(t, err)

	// gamma has only 1 rating, below the default min_ratings of 3.
	_, err = s.RecordRating(Rating{SkillName: "gamma", UserHash: "u1", Stars: 5})
	require.NoError(t, err)

	top, err := s.TopRated(10, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alpha", top[0].SkillName) // tie on avg+count, alpha < beta
	assert.Equal(t, "beta", top[1].SkillName)
}

func TestRecordRecommendationAndMarkLifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.RecordRecommendation(RecordedRecommendation{
		ContextHash: "ctx1", SkillName: "backend-architect",
		Confidence: 0.9, Source: "rule",
	})
	require.NoError(t, err)
	require.NoError(t, s.MarkAccepted(id, true))
	require.NoError(t, s.MarkApplied(id, true))
}

func TestRecordTokenSample_FeedsTokenEfficiencyPercentage(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRating(Rating{SkillName: "backend-architect", UserHash: "u1", Stars: 4})
	require.NoError(t, err)
	require.NoError(t, s.RecordTokenSample("backend-architect", 1000, 600))

	m, err := s.RecordRating(Rating{SkillName: "backend-architect", UserHash: "u2", Stars: 4})
	require.NoError(t, err)
	require.NotNil(t, m.TokenEfficiencyPercentage)
	assert.InDelta(t, 40.0, *m.TokenEfficiencyPercentage, 0.001)
}

func TestRecentReviews_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRating(Rating{SkillName: "backend-architect", UserHash: "u1", Stars: 3, Review: "first"})
	require.NoError(t, err)
	_, err = s.RecordRating(Rating{SkillName: "backend-architect", UserHash: "u2", Stars: 4, Review: "second"})
	require.NoError(t, err)

	reviews, err := s.RecentReviews("backend-architect", 10)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "second", reviews[0].Review)
	assert.Equal(t, "first", reviews[1].Review)
}
