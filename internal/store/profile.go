package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"gopkg.in/yaml.v3"
)

// Snapshot captures the currently active agents/modes/rules as a
// Profile (spec §4.A operation profile_snapshot).
func (s *Store) Snapshot(ctx context.Context, name string) (Profile, error) {
	p := Profile{Name: name}
	for kind, dst := range map[Kind]*[]string{
		KindAgent: &p.Agents,
		KindMode:  &p.Modes,
		KindRule:  &p.Rules,
	} {
		entries, err := s.enumerate(kind)
		if err != nil {
			return Profile{}, err
		}
		for _, e := range entries {
			if e.status == StatusActive {
				*dst = append(*dst, e.name)
			}
		}
		sort.Strings(*dst)
	}
	return p, nil
}

// SaveProfile persists a Profile under profiles/<name>.yaml.
func (s *Store) SaveProfile(p Profile) error {
	if err := os.MkdirAll(s.layout.profilesDir(), 0o755); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "creating profiles directory")
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return ctxerr.Wrap(ctxerr.Parse, err, "encoding profile")
	}
	path := filepath.Join(s.layout.profilesDir(), p.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "writing profile "+path)
	}
	return nil
}

// LoadProfile reads a previously saved profile by name.
func (s *Store) LoadProfile(name string) (Profile, error) {
	path := filepath.Join(s.layout.profilesDir(), name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Profile{}, ctxerr.New(ctxerr.NotFound, "profile not found").WithContext("name", name)
		}
		return Profile{}, ctxerr.Wrap(ctxerr.IO, err, "reading profile "+path)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, ctxerr.Wrap(ctxerr.Parse, err, "decoding profile "+path)
	}
	return p, nil
}

// Diff computes the minimal sequence of activate/deactivate steps that
// would bring the current active set to match target.
func (s *Store) Diff(ctx context.Context, target Profile) ([]ProfileStep, error) {
	current, err := s.Snapshot(ctx, "")
	if err != nil {
		return nil, err
	}

	var steps []ProfileStep
	steps = append(steps, diffSet(KindAgent, current.Agents, target.Agents)...)
	steps = append(steps, diffSet(KindMode, current.Modes, target.Modes)...)
	steps = append(steps, diffSet(KindRule, current.Rules, target.Rules)...)
	return steps, nil
}

func diffSet(kind Kind, current, target []string) []ProfileStep {
	curSet := toSet(current)
	tgtSet := toSet(target)

	var steps []ProfileStep
	for name := range tgtSet {
		if !curSet[name] {
			steps = append(steps, ProfileStep{Kind: kind, Name: name, Action: ActionActivate})
		}
	}
	for name := range curSet {
		if !tgtSet[name] {
			steps = append(steps, ProfileStep{Kind: kind, Name: name, Action: ActionDeactivate})
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Action != steps[j].Action {
			return steps[i].Action < steps[j].Action
		}
		return steps[i].Name < steps[j].Name
	})
	return steps
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// DiffReport is the result of applying a computed diff: what succeeded
// before an optional first failure (spec §4.A: "if any single
// operation fails, subsequent operations are not attempted").
type DiffReport struct {
	Applied []ProfileStep
	Failed  *ProfileStep
	Err     error
}

// Apply computes the diff against target and applies it step by step,
// stopping at the first failure.
func (s *Store) Apply(ctx context.Context, target Profile) (DiffReport, error) {
	steps, err := s.Diff(ctx, target)
	if err != nil {
		return DiffReport{}, err
	}

	var report DiffReport
	for _, step := range steps {
		var applyErr error
		switch step.Action {
		case ActionActivate:
			applyErr = s.Activate(step.Kind, step.Name)
		case ActionDeactivate:
			applyErr = s.Deactivate(step.Kind, step.Name)
		}
		if applyErr != nil {
			step := step
			report.Failed = &step
			report.Err = applyErr
			return report, nil
		}
		report.Applied = append(report.Applied, step)
	}
	return report, nil
}
