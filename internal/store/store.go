package store

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Store is the filesystem-backed repository of component definitions.
// It owns the on-disk layout of spec §6 and is the only component that
// touches component definition files directly (spec §2 component A).
type Store struct {
	layout *layout
}

// New returns a Store rooted at root. The root directory tree is not
// created here; callers that need a fresh workspace should call Init.
func New(root string) *Store {
	return &Store{layout: newLayout(root)}
}

// Init creates the standard directory tree under the Store's root if
// it does not already exist (spec §6 on-disk layout).
func (s *Store) Init() error {
	dirs := []string{
		s.layout.activeDir(KindAgent), s.layout.inactiveDir(KindAgent),
		s.layout.activeDir(KindMode), s.layout.inactiveDir(KindMode),
		s.layout.activeDir(KindRule), s.layout.rulesDisabledDir(),
		s.layout.activeDir(KindSkill),
		s.layout.profilesDir(), s.layout.workflowsDir(), s.layout.dataDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return ctxerr.Wrap(ctxerr.IO, err, "creating workspace directory "+d)
		}
	}
	return nil
}

// List returns every component of kind, active and inactive, each with
// its status and parsed (or broken) frontmatter. Per spec invariant 1,
// a component whose file is unreadable or unparseable is reported as
// "broken" rather than omitted or propagated as an error.
func (s *Store) List(ctx context.Context, kind Kind) ([]ComponentInfo, error) {
	timer := logging.StartTimer(logging.CategoryStore, "List")
	defer timer.Stop()

	entries, err := s.enumerate(kind)
	if err != nil {
		return nil, err
	}

	infos := make([]ComponentInfo, len(entries))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			infos[i] = s.readInfo(kind, e)
			return nil
		})
	}
	_ = g.Wait() // readInfo never returns an error; broken files are marked, not propagated

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

type dirEntry struct {
	name   string
	path   string
	status Status
}

func (s *Store) enumerate(kind Kind) ([]dirEntry, error) {
	var out []dirEntry
	collect := func(dir string, status Status) error {
		if dir == "" {
			return nil
		}
		if kind == KindSkill {
			subdirs, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return ctxerr.Wrap(ctxerr.IO, err, "reading skills directory")
			}
			for _, sd := range subdirs {
				if !sd.IsDir() {
					continue
				}
				p := s.layout.definitionPath(kind, dir, sd.Name())
				if _, err := os.Stat(p); err == nil {
					out = append(out, dirEntry{name: sd.Name(), path: p, status: status})
				}
			}
			return nil
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return ctxerr.Wrap(ctxerr.IO, err, "reading "+dir)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			out = append(out, dirEntry{
				name:   nameFromFilename(e.Name()),
				path:   filepath.Join(dir, e.Name()),
				status: status,
			})
		}
		return nil
	}

	if err := collect(s.layout.activeDir(kind), StatusActive); err != nil {
		return nil, err
	}
	if kind != KindSkill {
		if err := collect(s.layout.inactiveDir(kind), StatusInactive); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) readInfo(kind Kind, e dirEntry) ComponentInfo {
	info := ComponentInfo{Kind: kind, Name: e.name, Status: e.status, Path: e.path}

	fi, err := os.Stat(e.path)
	if err != nil {
		info.Status = StatusBroken
		info.BrokenReason = "file missing or unreadable: " + err.Error()
		return info
	}
	info.ModifiedAt = fi.ModTime()

	content, err := os.ReadFile(e.path)
	if err != nil {
		info.Status = StatusBroken
		info.BrokenReason = "read failed: " + err.Error()
		return info
	}

	raw, _, err := splitFrontmatter(content)
	if err != nil {
		info.Status = StatusBroken
		info.BrokenReason = err.Error()
		return info
	}
	info.Frontmatter = raw
	return info
}

// Load returns the fully parsed Component for (kind, name), including
// its body. Kind-specific typed accessors (LoadAgent, LoadSkill, ...)
// are preferred by callers that know the kind statically.
func (s *Store) Load(kind Kind, name string) (any, error) {
	switch kind {
	case KindAgent:
		return s.LoadAgent(name)
	case KindSkill:
		return s.LoadSkill(name)
	case KindMode:
		return s.LoadMode(name)
	case KindRule:
		return s.LoadRule(name)
	default:
		return nil, ctxerr.New(ctxerr.Invariant, "unknown component kind").WithContext("kind", kind)
	}
}

// locate finds a component's current path and status by scanning both
// its active and inactive directories.
func (s *Store) locate(kind Kind, name string) (path string, status Status, err error) {
	active := s.layout.activeDir(kind)
	p := s.layout.definitionPath(kind, active, name)
	if _, statErr := os.Stat(p); statErr == nil {
		return p, StatusActive, nil
	}

	if kind != KindSkill {
		inactive := s.layout.inactiveDir(kind)
		p = s.layout.definitionPath(kind, inactive, name)
		if _, statErr := os.Stat(p); statErr == nil {
			return p, StatusInactive, nil
		}
	}

	return "", "", ctxerr.New(ctxerr.NotFound, "component not found").
		WithContext("kind", kind).WithContext("name", name)
}

func readAndSplit(path string) (map[string]any, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", ctxerr.Wrap(ctxerr.IO, err, "reading "+path)
	}
	return splitFrontmatter(content)
}
