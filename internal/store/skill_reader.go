package store

import (
	"strings"
)

// SkillReader provides progressive disclosure over a skill definition
// (spec §9 re-architecture note): callers fetch metadata cheaply, then
// opt into the full body and any referenced resource files, without the
// Store ever caching tier 2/3 content across operations.
type SkillReader struct {
	store *Store
	name  string
}

// NewSkillReader returns a reader for the named skill. It does not
// touch disk until one of its methods is called.
func (s *Store) NewSkillReader(name string) *SkillReader {
	return &SkillReader{store: s, name: name}
}

// SkillMetadata is the cheap tier-1 view of a skill.
type SkillMetadata struct {
	Name        string
	Description string
	Version     string
	DependsOn   map[string]string
}

// Metadata re-reads the skill's frontmatter and returns its tier-1
// metadata.
func (r *SkillReader) Metadata() (SkillMetadata, error) {
	sk, err := r.store.LoadSkill(r.name)
	if err != nil {
		return SkillMetadata{}, err
	}
	return SkillMetadata{
		Name:        sk.Name,
		Description: sk.Description,
		Version:     sk.Version,
		DependsOn:   sk.DependsOn,
	}, nil
}

// Instructions re-reads and returns the skill's full markdown body
// (tier 2).
func (r *SkillReader) Instructions() (string, error) {
	sk, err := r.store.LoadSkill(r.name)
	if err != nil {
		return "", err
	}
	return sk.Body, nil
}

// Resources lists the names of any resource files referenced by the
// skill's body via a relative link (e.g. "assets/template.md"), tier 3.
// It re-scans the body each call rather than caching the result.
func (r *SkillReader) Resources() ([]string, error) {
	body, err := r.Instructions()
	if err != nil {
		return nil, err
	}
	return extractResourceLinks(body), nil
}

// extractResourceLinks does a best-effort scan for markdown relative
// links that are not http(s) URLs, treating them as bundled resources.
func extractResourceLinks(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		start := strings.Index(line, "](")
		if start < 0 {
			continue
		}
		rest := line[start+2:]
		end := strings.Index(rest, ")")
		if end < 0 {
			continue
		}
		link := rest[:end]
		if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "#") {
			continue
		}
		out = append(out, link)
	}
	return out
}
