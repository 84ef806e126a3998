package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/learner"
	"github.com/nickcrew/claude-ctx/internal/ratings"
	"github.com/stretchr/testify/require"
)

func TestRun_PrunesHistoryAndRecomputesMetrics(t *testing.T) {
	root := t.TempDir()

	// run reads its retention policy from the workspace config.yaml.
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte("retention:\n  max_records: 1\n"), 0o644))

	retention := config.RetentionConfig{MaxRecords: 1, PruneEvery: 1000}
	history := learner.NewHistoryStore(root, retention)
	require.NoError(t, history.Append(learner.SessionRecord{SessionID: "a", Timestamp: time.Now()}))
	require.NoError(t, history.Append(learner.SessionRecord{SessionID: "b", Timestamp: time.Now()}))

	dbPath := filepath.Join(root, "data", "skill_ratings.sqlite")
	store, err := ratings.Open(dbPath)
	require.NoError(t, err)
	_, err = store.RecordRating(ratings.Rating{SkillName: "backend-architect", UserHash: "u1", Stars: 4})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, run(root))

	all, err := history.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
}
