package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDetect_DirectoryNotFound(t *testing.T) {
	_, err := Detect("/no/such/dir/ever", config.DefaultConfig().Detector)
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.NotFound, cat)
}

func TestDetect_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	sc, err := Detect(dir, config.DefaultConfig().Detector)
	require.NoError(t, err)
	assert.False(t, sc.HasTests)
	assert.False(t, sc.HasAuth)
	assert.Empty(t, sc.FilesChanged)
	assert.Empty(t, sc.FileTypes)
}

func TestDetect_Signals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "components", "Login.jsx"))
	writeFile(t, filepath.Join(dir, "backend", "server", "main.go"))
	writeFile(t, filepath.Join(dir, "internal", "api", "handlers.go"))
	writeFile(t, filepath.Join(dir, "internal", "auth", "oauth.go"))
	writeFile(t, filepath.Join(dir, "db", "schema.sql"))
	writeFile(t, filepath.Join(dir, "internal", "api_test.go"))

	sc, err := Detect(dir, config.DefaultConfig().Detector)
	require.NoError(t, err)

	assert.True(t, sc.HasFrontend, "expected frontend signal from src/")
	assert.True(t, sc.HasBackend, "expected backend signal from backend/server")
	assert.True(t, sc.HasAPI, "expected api signal from internal/api")
	assert.True(t, sc.HasAuth, "expected auth signal from oauth.go")
	assert.True(t, sc.HasDatabase, "expected database signal from schema.sql")
	assert.True(t, sc.HasTests, "expected test signal from api_test.go")
	assert.Contains(t, sc.FileTypes, ".go")
	assert.Contains(t, sc.FileTypes, ".jsx")
}

func TestDetect_IgnoresVCSAndBuildDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "HEAD"))
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"))
	writeFile(t, filepath.Join(dir, "main.go"))

	sc, err := Detect(dir, config.DefaultConfig().Detector)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, sc.FilesChanged)
}

func TestDetect_BoundedByMaxFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(dir, "file"+string(rune('a'+i))+".txt"))
	}
	cfg := config.DetectorConfig{MaxFiles: 3, IgnoreHidden: true}
	sc, err := Detect(dir, cfg)
	require.NoError(t, err)
	assert.Len(t, sc.FilesChanged, 3)
}
