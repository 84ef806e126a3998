package store

import (
	"os"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
)

// Activate moves a component's definition file from its inactive
// location to its active one, via stage-then-rename so no operation
// partially mutates a file's contents (spec §4.A). Skills have no
// inactive directory; Activate on a skill is a no-op success if the
// skill exists, since a skill is "active" by presence under skills/.
func (s *Store) Activate(kind Kind, name string) error {
	release, err := s.layout.acquire()
	if err != nil {
		return err
	}
	defer release()

	logging.Get(logging.CategoryStore).Debugw("activate", "kind", kind, "name", name)

	if kind == KindSkill {
		if _, _, err := s.locate(kind, name); err != nil {
			return err
		}
		return nil
	}

	activeDir := s.layout.activeDir(kind)
	inactiveDir := s.layout.inactiveDir(kind)

	activePath := s.layout.definitionPath(kind, activeDir, name)
	if _, err := os.Stat(activePath); err == nil {
		return ctxerr.New(ctxerr.Invariant, "component already active").
			WithContext("kind", kind).WithContext("name", name)
	}

	inactivePath := s.layout.definitionPath(kind, inactiveDir, name)
	if _, err := os.Stat(inactivePath); err != nil {
		return ctxerr.New(ctxerr.NotFound, "component not found in inactive set").
			WithContext("kind", kind).WithContext("name", name)
	}

	if err := os.MkdirAll(activeDir, 0o755); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "creating active directory")
	}
	if err := stageRename(inactivePath, activePath); err != nil {
		return err
	}

	if kind == KindRule {
		if err := s.regenerateActiveRulesManifest(); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate is the inverse of Activate. Callers are responsible for
// checking the reverse-dependency invariant (spec invariant 4) before
// calling this for agents; Store itself only moves the file.
func (s *Store) Deactivate(kind Kind, name string) error {
	release, err := s.layout.acquire()
	if err != nil {
		return err
	}
	defer release()

	logging.Get(logging.CategoryStore).Debugw("deactivate", "kind", kind, "name", name)

	if kind == KindSkill {
		return ctxerr.New(ctxerr.Invariant, "skills have no inactive state").WithContext("name", name)
	}

	activeDir := s.layout.activeDir(kind)
	inactiveDir := s.layout.inactiveDir(kind)

	activePath := s.layout.definitionPath(kind, activeDir, name)
	if _, err := os.Stat(activePath); err != nil {
		return ctxerr.New(ctxerr.NotFound, "component not active").
			WithContext("kind", kind).WithContext("name", name)
	}

	inactivePath := s.layout.definitionPath(kind, inactiveDir, name)
	if _, err := os.Stat(inactivePath); err == nil {
		return ctxerr.New(ctxerr.Invariant, "component already inactive").
			WithContext("kind", kind).WithContext("name", name)
	}

	if err := os.MkdirAll(inactiveDir, 0o755); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "creating inactive directory")
	}
	if err := stageRename(activePath, inactivePath); err != nil {
		return err
	}

	if kind == KindRule {
		if err := s.regenerateActiveRulesManifest(); err != nil {
			return err
		}
	}
	return nil
}

// stageRename performs the whole-file move as a copy-to-temp +
// rename-into-place followed by removal of the source, so a crash
// mid-operation never leaves a half-written destination file.
func stageRename(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "reading "+src)
	}

	tmp := dst + ".stage"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "staging "+dst)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return ctxerr.Wrap(ctxerr.IO, err, "renaming into place "+dst)
	}
	if err := os.Remove(src); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "removing source "+src)
	}
	return nil
}

// regenerateActiveRulesManifest rewrites .active-rules from the
// filesystem's active rules directory, resolving Open Question 3 of
// spec §9: filesystem is authoritative, the manifest is a cache of it.
func (s *Store) regenerateActiveRulesManifest() error {
	entries, err := s.enumerate(KindRule)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.status == StatusActive {
			names = append(names, e.name)
		}
	}

	manifest := s.layout.activeRulesManifest()
	tmp := manifest + ".stage"
	content := ""
	for _, n := range names {
		content += n + "\n"
	}
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "staging .active-rules")
	}
	if err := os.Rename(tmp, manifest); err != nil {
		os.Remove(tmp)
		return ctxerr.Wrap(ctxerr.IO, err, "writing .active-rules")
	}
	return nil
}
