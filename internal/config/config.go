// Package config loads and resolves claude-ctx workspace configuration:
// the root directory precedence of spec §6, scan bounds, confidence
// thresholds, retention policy, and the optional LLM/embedding provider
// selection.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all claude-ctx configuration.
type Config struct {
	Root string `yaml:"-"` // resolved workspace root, not persisted

	Detector   DetectorConfig   `yaml:"detector"`
	Learner    LearnerConfig    `yaml:"learner"`
	Ratings    RatingsConfig    `yaml:"ratings"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retention  RetentionConfig  `yaml:"retention"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// DetectorConfig bounds the Context Detector's directory scan (spec §4.C).
type DetectorConfig struct {
	MaxFiles     int      `yaml:"max_files"`
	IgnoreDirs   []string `yaml:"ignore_dirs"`
	IgnoreHidden bool     `yaml:"ignore_hidden"`
}

// LearnerConfig tunes the Pattern Learner's three recommendation streams.
type LearnerConfig struct {
	SemanticTopK        int           `yaml:"semantic_top_k"`
	PredictionDeadline   time.Duration `yaml:"prediction_deadline"`
}

// RatingsConfig configures the SQLite-backed Ratings Store.
type RatingsConfig struct {
	DatabasePath   string `yaml:"database_path"`
	MinRatingsForTopRated int `yaml:"min_ratings_for_top_rated"`
}

// EmbeddingConfig selects and configures the Vectorizer collaborator.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "none", "cosine", "genai"
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`
	TaskType    string `yaml:"task_type"`
}

// LLMConfig selects and configures the optional LLM collaborator.
type LLMConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig is the subset the logging package reads.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// RetentionConfig governs session_history.jsonl pruning (spec §4 Lifecycle).
type RetentionConfig struct {
	MaxRecords int           `yaml:"max_records"`
	MaxAge     time.Duration `yaml:"max_age"`
	PruneEvery int           `yaml:"prune_every"` // prune on every Nth append
}

// ThresholdsConfig carries the confidence policy of spec §4.D / §9.
type ThresholdsConfig struct {
	AutoActivate     float64 `yaml:"auto_activate"`      // 0.80
	LLMFallback      float64 `yaml:"llm_fallback"`       // 0.50
	SemanticSimilarity float64 `yaml:"semantic_similarity"` // 0.60
}

// DefaultConfig returns a configuration matching spec.md's documented
// defaults throughout.
func DefaultConfig() *Config {
	return &Config{
		Detector: DetectorConfig{
			MaxFiles:     500,
			IgnoreDirs:   []string{".git", "node_modules", "vendor", "dist", "build", "target", ".venv", "__pycache__"},
			IgnoreHidden: true,
		},
		Learner: LearnerConfig{
			SemanticTopK:       5,
			PredictionDeadline: 2 * time.Second,
		},
		Ratings: RatingsConfig{
			DatabasePath:          filepath.Join("data", "skill_ratings.sqlite"),
			MinRatingsForTopRated: 3,
		},
		Embedding: EmbeddingConfig{
			Provider: "cosine",
			TaskType: "SEMANTIC_SIMILARITY",
		},
		LLM: LLMConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		Retention: RetentionConfig{
			MaxRecords: 5000,
			MaxAge:     180 * 24 * time.Hour,
			PruneEvery: 100,
		},
		Thresholds: ThresholdsConfig{
			AutoActivate:       0.80,
			LLMFallback:        0.50,
			SemanticSimilarity: 0.60,
		},
	}
}

// ResolveRoot implements the workspace root precedence of spec §6:
// USER_HOME_OVERRIDE (CLAUDE_CTX_HOME) > PLUGIN_ROOT (CLAUDE_PLUGIN_ROOT)
// > default (~/.claude-ctx).
func ResolveRoot() string {
	if root := os.Getenv("CLAUDE_CTX_HOME"); root != "" {
		return root
	}
	if root := os.Getenv("CLAUDE_PLUGIN_ROOT"); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".claude-ctx")
}

// Load reads config.yaml from root (if present), falling back to
// defaults for any unset field, then applies environment overrides.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = root

	path := filepath.Join(root, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Root = root
	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides layers environment variables over a loaded config,
// mirroring the teacher's precedence-chain pattern in
// internal/config/config.go.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("CLAUDE_CTX_GENAI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
		if c.Embedding.Provider == "" || c.Embedding.Provider == "cosine" {
			c.Embedding.Provider = "genai"
		}
	}
	if v := os.Getenv("CLAUDE_CTX_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// UserHash derives the anonymous per-user identity used by the Ratings
// Store (spec §4.F operation 8, §5 "the Ratings Store never sees raw
// identity"). CLAUDE_CTX_USER_ID seeds it if set; otherwise a stable
// machine-level identifier is used.
func UserHash() string {
	seed := os.Getenv("CLAUDE_CTX_USER_ID")
	if seed == "" {
		if host, err := os.Hostname(); err == nil {
			seed = host
		} else {
			seed = "unknown-host"
		}
	}
	return sha256Hex(seed)
}
