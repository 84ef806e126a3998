package store

import (
	"path/filepath"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

var agentKnownKeys = keySet("name", "version", "summary", "category", "tier",
	"model", "tools", "activation", "dependencies", "skills", "workflows", "metrics")

var skillKnownKeys = keySet("name", "description", "version", "depends_on")

var modeKnownKeys = keySet("name")

var ruleKnownKeys = keySet("name", "title", "description")

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// LoadAgent loads and fully parses an Agent definition.
func (s *Store) LoadAgent(name string) (*Agent, error) {
	path, _, err := s.locate(KindAgent, name)
	if err != nil {
		return nil, err
	}
	raw, body, err := readAndSplit(path)
	if err != nil {
		return nil, err
	}
	a := &Agent{Body: body}
	extra, err := decodeInto(raw, a, agentKnownKeys)
	if err != nil {
		return nil, err
	}
	a.Extra = extra
	if a.Name == "" {
		a.Name = name
	}
	return a, nil
}

// LoadSkill loads and fully parses a Skill definition, including its
// progressive-disclosure body. Per spec §3, Name must be hyphen-case
// and unique, and Description must contain "Use when" and stay under
// 1024 characters; Load itself does not enforce these, it only parses.
// Validate checks them; neither LoadSkill nor List calls it.
func (s *Store) LoadSkill(name string) (*Skill, error) {
	dir := s.layout.activeDir(KindSkill)
	path := s.layout.definitionPath(KindSkill, dir, name)
	raw, body, err := readAndSplit(path)
	if err != nil {
		if cat, ok := ctxerr.CategoryOf(err); ok && cat == ctxerr.IO {
			return nil, ctxerr.New(ctxerr.NotFound, "skill not found").WithContext("name", name)
		}
		return nil, err
	}
	sk := &Skill{Body: body}
	extra, err := decodeInto(raw, sk, skillKnownKeys)
	if err != nil {
		return nil, err
	}
	sk.Extra = extra
	if sk.Name == "" {
		sk.Name = name
	}
	return sk, nil
}

// Validate enforces the Skill structural invariants of spec §3.
func (sk *Skill) Validate() error {
	if sk.Name == "" || sk.Name != strings.ToLower(sk.Name) || strings.ContainsAny(sk.Name, " _") {
		return ctxerr.New(ctxerr.Parse, "skill name must be hyphen-case").WithContext("name", sk.Name)
	}
	if len(sk.Description) >= 1024 {
		return ctxerr.New(ctxerr.Parse, "skill description exceeds 1024 characters").WithContext("name", sk.Name)
	}
	if !strings.Contains(sk.Description, "Use when") {
		return ctxerr.New(ctxerr.Parse, `skill description must contain "Use when"`).WithContext("name", sk.Name)
	}
	return nil
}

// LoadMode loads and fully parses a Mode definition.
func (s *Store) LoadMode(name string) (*Mode, error) {
	path, _, err := s.locate(KindMode, name)
	if err != nil {
		return nil, err
	}
	raw, body, err := readAndSplit(path)
	if err != nil {
		return nil, err
	}
	m := &Mode{Body: body}
	extra, err := decodeInto(raw, m, modeKnownKeys)
	if err != nil {
		return nil, err
	}
	m.Extra = extra
	if m.Name == "" {
		m.Name = name
	}
	return m, nil
}

// LoadRule loads and fully parses a Rule definition. Category is
// derived from the filename per spec §3, not the frontmatter.
func (s *Store) LoadRule(name string) (*Rule, error) {
	path, _, err := s.locate(KindRule, name)
	if err != nil {
		return nil, err
	}
	raw, body, err := readAndSplit(path)
	if err != nil {
		return nil, err
	}
	r := &Rule{Body: body}
	extra, err := decodeInto(raw, r, ruleKnownKeys)
	if err != nil {
		return nil, err
	}
	r.Extra = extra
	if r.Name == "" {
		r.Name = name
	}
	r.Category = categoryFromFilename(filepath.Base(path))
	return r, nil
}

// categoryFromFilename derives a Rule's category from a filename
// prefix (spec §3: "category derived from filename").
func categoryFromFilename(filename string) RuleCategory {
	base := strings.ToLower(nameFromFilename(filename))
	switch {
	case strings.HasPrefix(base, "workflow"):
		return RuleWorkflow
	case strings.HasPrefix(base, "quality"):
		return RuleQuality
	case strings.HasPrefix(base, "execution"):
		return RuleExecution
	case strings.HasPrefix(base, "efficiency"):
		return RuleEfficiency
	default:
		return RuleGeneral
	}
}
