package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAgent(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\n" + body + "\n---\nSome body text.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.Init())
	return s
}

func TestStore_ListActiveAndInactive(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.activeDir(KindAgent), "python-pro", "name: python-pro\nversion: \"1.0\"\n")
	writeAgent(t, s.layout.inactiveDir(KindAgent), "api-designer", "name: api-designer\nversion: \"1.0\"\n")

	infos, err := s.List(context.Background(), KindAgent)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]ComponentInfo{}
	for _, i := range infos {
		byName[i.Name] = i
	}
	assert.Equal(t, StatusActive, byName["python-pro"].Status)
	assert.Equal(t, StatusInactive, byName["api-designer"].Status)
}

func TestStore_List_BrokenComponentMarkedNotFatal(t *testing.T) {
	s := newTestStore(t)
	dir := s.layout.activeDir(KindAgent)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// Unterminated frontmatter block.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.md"), []byte("---\nname: broken\n"), 0o644))
	writeAgent(t, dir, "ok-agent", "name: ok-agent\n")

	infos, err := s.List(context.Background(), KindAgent)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]ComponentInfo{}
	for _, i := range infos {
		byName[i.Name] = i
	}
	assert.Equal(t, StatusBroken, byName["broken"].Status)
	assert.NotEmpty(t, byName["broken"].BrokenReason)
	assert.Equal(t, StatusActive, byName["ok-agent"].Status)
}

func TestStore_ActivateDeactivate_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.inactiveDir(KindAgent), "api-designer", "name: api-designer\n")

	require.NoError(t, s.Activate(KindAgent, "api-designer"))
	_, status, err := s.locate(KindAgent, "api-designer")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, status)

	require.NoError(t, s.Deactivate(KindAgent, "api-designer"))
	_, status, err = s.locate(KindAgent, "api-designer")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, status)
}

func TestStore_Activate_AlreadyActive(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.activeDir(KindAgent), "python-pro", "name: python-pro\n")

	err := s.Activate(KindAgent, "python-pro")
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.Invariant, cat)
}

func TestStore_Deactivate_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Deactivate(KindAgent, "ghost")
	require.Error(t, err)
	cat, ok := ctxerr.CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, ctxerr.NotFound, cat)
}

func TestStore_ProfileSnapshotApply_NoOp(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.activeDir(KindAgent), "python-pro", "name: python-pro\n")

	snap, err := s.Snapshot(context.Background(), "before")
	require.NoError(t, err)

	report, err := s.Apply(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Nil(t, report.Failed)
}

func TestStore_RulesManifestRegeneratedOnActivate(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.inactiveDir(KindRule), "workflow-tdd", "name: workflow-tdd\ntitle: TDD\n")

	require.NoError(t, s.Activate(KindRule, "workflow-tdd"))

	data, err := os.ReadFile(s.layout.activeRulesManifest())
	require.NoError(t, err)
	assert.Contains(t, string(data), "workflow-tdd")
}

func TestSkillReader_ProgressiveDisclosure(t *testing.T) {
	s := newTestStore(t)
	dir := filepath.Join(s.layout.activeDir(KindSkill), "owasp-top-10")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: owasp-top-10\ndescription: Security checklist. Use when reviewing auth code.\n---\n" +
		"# OWASP Top 10\nSee [checklist](assets/checklist.md) for details.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))

	reader := s.NewSkillReader("owasp-top-10")
	meta, err := reader.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "owasp-top-10", meta.Name)
	assert.Contains(t, meta.Description, "Use when")

	body, err := reader.Instructions()
	require.NoError(t, err)
	assert.Contains(t, body, "OWASP Top 10")

	resources, err := reader.Resources()
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/checklist.md"}, resources)
}

func TestRule_CategoryFromFilename(t *testing.T) {
	s := newTestStore(t)
	writeAgent(t, s.layout.activeDir(KindRule), "quality-no-dead-code", "name: quality-no-dead-code\ntitle: No dead code\n")

	r, err := s.LoadRule("quality-no-dead-code")
	require.NoError(t, err)
	assert.Equal(t, RuleQuality, r.Category)
}
