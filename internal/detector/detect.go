package detector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
)

func sortStrings(s []string) { sort.Strings(s) }

// apiSegments and frontend/backend/db heuristics per spec §4.C.
var apiSegments = map[string]bool{"api": true, "routes": true, "endpoints": true, "handlers": true}

var webManifests = map[string]bool{"package.json": true, "tsconfig.json": true, "vite.config.js": true, "vite.config.ts": true}
var serviceManifests = map[string]bool{"go.mod": true, "pom.xml": true, "requirements.txt": true, "pyproject.toml": true, "Gemfile": true}

// Detect walks dir (bounded by cfg.MaxFiles) and produces a
// SessionContext (spec §4.C). A non-existent directory yields
// DirectoryNotFound; an empty one yields all-false/empty results
// (spec "Edge cases").
func Detect(dir string, cfg config.DetectorConfig) (SessionContext, error) {
	timer := logging.StartTimer(logging.CategoryDetector, "Detect")
	defer timer.Stop()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return SessionContext{}, ctxerr.New(ctxerr.NotFound, "directory not found").
			WithContext("path", dir)
	}

	ignore := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignore[d] = true
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 500
	}

	now := time.Now().UTC()
	sc := SessionContext{
		FileTypes:    make(map[string]bool),
		Directories:  make(map[string]bool),
		SessionStart: now,
		LastActivity: now,
	}

	var count int
	walkErr := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries, don't fail the whole scan
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}

		base := filepath.Base(rel)
		if fi.IsDir() {
			if ignore[base] || (cfg.IgnoreHidden && strings.HasPrefix(base, ".")) {
				return filepath.SkipDir
			}
			sc.Directories[filepath.ToSlash(rel)] = true
			return nil
		}

		if cfg.IgnoreHidden && strings.HasPrefix(base, ".") {
			return nil
		}
		if count >= maxFiles {
			return nil
		}
		count++

		relSlash := filepath.ToSlash(rel)
		sc.FilesChanged = append(sc.FilesChanged, relSlash)

		if ext := filepath.Ext(base); ext != "" {
			sc.FileTypes[ext] = true
		}

		lowerPath := strings.ToLower(relSlash)
		lowerBase := strings.ToLower(base)

		if !sc.HasTests && (strings.Contains(lowerPath, "test") || isConventionalTestDir(lowerPath)) {
			sc.HasTests = true
		}
		if !sc.HasAuth && containsAny(lowerBase, "auth", "oauth", "login", "session") {
			sc.HasAuth = true
		}
		if !sc.HasAPI && pathHasSegment(lowerPath, apiSegments) {
			sc.HasAPI = true
		}
		if !sc.HasFrontend && (hasTopDir(lowerPath, "src") || hasTopDir(lowerPath, "frontend") || webManifests[lowerBase]) {
			sc.HasFrontend = true
		}
		if !sc.HasBackend && (hasTopDir(lowerPath, "backend") || hasTopDir(lowerPath, "server") || serviceManifests[lowerBase]) {
			sc.HasBackend = true
		}
		if !sc.HasDatabase && containsAny(lowerBase, "db", "database", "schema", "migration") {
			sc.HasDatabase = true
		}

		return nil
	})
	if walkErr != nil {
		return SessionContext{}, ctxerr.Wrap(ctxerr.IO, walkErr, "scanning directory "+dir)
	}

	return sc, nil
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isConventionalTestDir(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == "test" || seg == "tests" || seg == "__tests__" || seg == "spec" {
			return true
		}
	}
	return false
}

func pathHasSegment(path string, segments map[string]bool) bool {
	for _, seg := range strings.Split(path, "/") {
		if segments[seg] {
			return true
		}
	}
	return false
}

func hasTopDir(path, name string) bool {
	parts := strings.Split(path, "/")
	for _, p := range parts[:len(parts)-1] { // exclude the filename itself
		if p == name {
			return true
		}
	}
	return false
}
