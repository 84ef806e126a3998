// Package logging provides config-driven, categorized structured logging
// for claude-ctx. Each core component logs through its own Category; when
// debug_mode is false (the default) nothing is written and calls are
// near-zero-cost no-ops.
package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies which core component emitted a log entry.
type Category string

const (
	CategoryStore        Category = "store"
	CategoryResolver     Category = "resolver"
	CategoryDetector     Category = "detector"
	CategoryLearner      Category = "learner"
	CategoryRatings      Category = "ratings"
	CategoryOrchestrator Category = "orchestrator"
	CategoryEmbedding    Category = "embedding"
	CategoryLLM          Category = "llm"
	CategoryBoot         Category = "boot"
	CategoryPerformance  Category = "performance"
)

// Config mirrors the `logging:` block of config.Config, kept here as a
// narrow subset to avoid an import cycle with the config package.
type Config struct {
	DebugMode  bool
	Categories map[string]bool
	Level      string
	JSONFormat bool
}

var (
	mu         sync.RWMutex
	cfg        Config
	workspace  string
	root       *zap.Logger
	categories = make(map[Category]*zap.SugaredLogger)
)

// Initialize wires the logging subsystem to a workspace root and config.
// Called once at Orchestrator construction time. A zero Config leaves
// logging disabled (no-op loggers for every category).
func Initialize(ws string, c Config) error {
	mu.Lock()
	defer mu.Unlock()

	workspace = ws
	cfg = c
	categories = make(map[Category]*zap.SugaredLogger)

	if !cfg.DebugMode {
		root = zap.NewNop()
		return nil
	}

	logsDir := filepath.Join(workspace, "data", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return err
	}

	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{filepath.Join(logsDir, "claude-ctx.log")}
	zc.ErrorOutputPaths = []string{"stderr"}
	if !cfg.JSONFormat {
		zc.Encoding = "console"
	}

	l, err := zc.Build()
	if err != nil {
		return err
	}
	root = l
	return nil
}

func categoryEnabled(category Category) bool {
	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or lazily creates) the logger for category. It is always
// safe to call, even before Initialize: it returns a no-op logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := categories[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := categories[category]; ok {
		return l
	}

	base := root
	if base == nil || !categoryEnabled(category) {
		base = zap.NewNop()
	}
	l := base.With(zap.String("category", string(category))).Sugar()
	categories[category] = l
	return l
}

// Timer measures and logs the duration of an operation under
// CategoryPerformance once it exceeds slowThreshold.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

const slowThreshold = 200 * time.Millisecond

// StartTimer begins timing op within category.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, start: time.Now()}
}

// Stop finishes timing and logs if the operation was slow.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if d >= slowThreshold {
		Get(CategoryPerformance).Infow("slow operation",
			"category", string(t.category), "op", t.op, "duration_ms", d.Milliseconds())
	}
	return d
}
