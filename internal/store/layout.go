package store

import (
	"os"
	"path/filepath"
	"strings"
)

// layout resolves the on-disk paths of spec §6 relative to a workspace
// root. The disabled-rules directory may be either rules/disabled or
// rules-disabled (spec §6 note): whichever exists is used for both
// reads and writes, rules/disabled when both or neither exist. Only
// one of the two is ever read.
type layout struct {
	root string
}

func newLayout(root string) *layout { return &layout{root: root} }

func (l *layout) activeDir(kind Kind) string {
	switch kind {
	case KindAgent:
		return filepath.Join(l.root, "agents")
	case KindMode:
		return filepath.Join(l.root, "modes")
	case KindRule:
		return filepath.Join(l.root, "rules")
	case KindSkill:
		return filepath.Join(l.root, "skills")
	default:
		return ""
	}
}

func (l *layout) inactiveDir(kind Kind) string {
	switch kind {
	case KindAgent:
		return filepath.Join(l.root, "inactive", "agents")
	case KindMode:
		return filepath.Join(l.root, "inactive", "modes")
	case KindRule:
		return l.rulesDisabledDir()
	case KindSkill:
		// Skills have no inactive directory in spec §6; presence under
		// skills/<name>/SKILL.md is itself "active". Kept for interface
		// symmetry; Activate and Deactivate handle skills without it.
		return ""
	default:
		return ""
	}
}

// rulesDisabledDir returns whichever of rules/disabled or
// rules-disabled already exists, preferring rules/disabled for writes
// when neither exists yet.
func (l *layout) rulesDisabledDir() string {
	canonical := filepath.Join(l.root, "rules", "disabled")
	legacy := filepath.Join(l.root, "rules-disabled")
	if _, err := os.Stat(canonical); err == nil {
		return canonical
	}
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return canonical
}

func (l *layout) profilesDir() string { return filepath.Join(l.root, "profiles") }
func (l *layout) workflowsDir() string { return filepath.Join(l.root, "workflows") }
func (l *layout) dataDir() string      { return filepath.Join(l.root, "data") }
func (l *layout) activeRulesManifest() string { return filepath.Join(l.root, ".active-rules") }
func (l *layout) lockFile() string     { return filepath.Join(l.root, ".claude-ctx.lock") }

// definitionPath returns the file holding a component's definition
// within its directory. Skills nest under a per-skill directory.
func (l *layout) definitionPath(kind Kind, dir, name string) string {
	if kind == KindSkill {
		return filepath.Join(dir, name, "SKILL.md")
	}
	return filepath.Join(dir, name+".md")
}

// nameFromFilename strips the .md extension used by agents/modes/rules.
func nameFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
