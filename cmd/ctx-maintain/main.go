// Package main implements a narrow maintenance utility for a
// claude-ctx workspace: it prunes history.jsonl ahead of its
// normal on-append schedule and recomputes every skill's
// quality_metrics row from the ratings table, for operators who run it
// out of band (a cron job, a pre-backup hook) rather than waiting on
// the Orchestrator's own lifecycle triggers.
//
// Usage:
//
//	go run ./cmd/ctx-maintain -root ~/.claude-ctx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/learner"
	"github.com/nickcrew/claude-ctx/internal/ratings"
)

func main() {
	root := flag.String("root", config.ResolveRoot(), "claude-ctx workspace root")
	flag.Parse()

	if err := run(*root); err != nil {
		fmt.Fprintln(os.Stderr, "ctx-maintain:", err)
		os.Exit(1)
	}
}

func run(root string) error {
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Root = root

	history := learner.NewHistoryStore(root, cfg.Retention)
	pruned, err := history.PruneNow()
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	fmt.Printf("history.jsonl: %d records retained after pruning\n", pruned)

	dbPath := cfg.Ratings.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(root, dbPath)
	}
	store, err := ratings.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening ratings store: %w", err)
	}
	defer store.Close()

	names, err := store.SkillNames(context.Background())
	if err != nil {
		return fmt.Errorf("listing rated skills: %w", err)
	}
	for _, name := range names {
		if err := store.RecomputeMetrics(name); err != nil {
			return fmt.Errorf("recomputing metrics for %s: %w", name, err)
		}
	}
	fmt.Printf("quality_metrics: recomputed %d skills\n", len(names))
	return nil
}
