package store

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"gopkg.in/yaml.v3"
)

// frontmatterDelim is the fixed 3-character delimiter line bounding the
// leading metadata block (spec §3, §6): a markdown file begins with a
// line of exactly "---", a YAML document, then another "---" line.
const frontmatterDelim = "---"

// splitFrontmatter separates a component definition file's leading
// frontmatter block from its markdown body. It tolerates a missing
// frontmatter block (returns nil map, full content as body) but rejects
// an unterminated one, per spec §4.A "rejects unterminated blocks".
func splitFrontmatter(content []byte) (raw map[string]any, body string, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, "", nil // empty file: no frontmatter, empty body
	}
	first := strings.TrimRight(scanner.Text(), "\r\n")
	if first != frontmatterDelim {
		// No frontmatter block at all; whole file is body.
		return nil, string(content), nil
	}

	var yamlBuf bytes.Buffer
	terminated := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimRight(line, "\r\n") == frontmatterDelim {
			terminated = true
			break
		}
		yamlBuf.WriteString(line)
		yamlBuf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, "", ctxerr.Wrap(ctxerr.IO, err, "reading component file")
	}
	if !terminated {
		return nil, "", ctxerr.New(ctxerr.Parse, "unterminated frontmatter block").
			WithHint("add a closing '---' line after the metadata block")
	}

	var m map[string]any
	if yamlBuf.Len() > 0 {
		if err := yaml.Unmarshal(yamlBuf.Bytes(), &m); err != nil {
			return nil, "", ctxerr.Wrap(ctxerr.Parse, err, "malformed frontmatter YAML")
		}
	}

	var bodyBuf bytes.Buffer
	for scanner.Scan() {
		bodyBuf.WriteString(scanner.Text())
		bodyBuf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, "", ctxerr.Wrap(ctxerr.IO, err, "reading component body")
	}

	return m, strings.TrimPrefix(bodyBuf.String(), "\n"), nil
}

// renderFrontmatter is the inverse of splitFrontmatter: it serializes
// raw (preserving unknown keys verbatim) and body back into a component
// definition file. Store operations move whole files and do not call
// it; the frontmatter round-trip test does.
func renderFrontmatter(raw map[string]any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim)
	buf.WriteByte('\n')
	if len(raw) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(raw); err != nil {
			return nil, ctxerr.Wrap(ctxerr.Parse, err, "encoding frontmatter")
		}
		enc.Close()
	}
	buf.WriteString(frontmatterDelim)
	buf.WriteByte('\n')
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// decodeInto decodes raw frontmatter into dst (a pointer to one of
// Agent/Skill/Mode/Rule), preserving any keys not matched by dst's YAML
// tags into an Extra map so they round-trip unchanged on write.
func decodeInto(raw map[string]any, dst any, knownKeys map[string]bool) (map[string]any, error) {
	node, err := yaml.Marshal(raw)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.Parse, err, "re-marshaling frontmatter")
	}
	if err := yaml.Unmarshal(node, dst); err != nil {
		return nil, ctxerr.Wrap(ctxerr.Parse, err, "decoding frontmatter fields")
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	return extra, nil
}
