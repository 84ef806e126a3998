package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

// SemVer is a parsed MAJOR.MINOR.PATCH version.
type SemVer struct {
	Major, Minor, Patch int
}

func (v SemVer) String() string { return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch) }

// Less reports whether v < other.
func (v SemVer) Less(other SemVer) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

var semverRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseSemVer parses a strict MAJOR.MINOR.PATCH string.
func ParseSemVer(s string) (SemVer, error) {
	m := semverRe.FindStringSubmatch(s)
	if m == nil {
		return SemVer{}, ctxerr.New(ctxerr.Parse, "malformed version").WithContext("version", s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return SemVer{major, minor, patch}, nil
}

// constraintKind is the operator of a version spec.
type constraintKind int

const (
	constraintExact constraintKind = iota
	constraintCaret                // ^MAJOR.MINOR.PATCH: same major, >= specified
	constraintTilde                // ~MAJOR.MINOR.PATCH: same major.minor, >= specified
	constraintGTE                  // >=X.Y.Z
	constraintLatest
)

// Constraint is a parsed version-spec per the grammar of spec §4.B:
// `^MAJOR.MINOR.PATCH | ~MAJOR.MINOR.PATCH | >=X.Y.Z | MAJOR.MINOR.PATCH | "latest"`.
type Constraint struct {
	kind constraintKind
	base SemVer
}

// ParseConstraint parses a depends_on version-spec string.
func ParseConstraint(spec string) (Constraint, error) {
	spec = strings.TrimSpace(spec)
	if spec == "latest" || spec == `"latest"` {
		return Constraint{kind: constraintLatest}, nil
	}
	switch {
	case strings.HasPrefix(spec, "^"):
		v, err := ParseSemVer(spec[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{kind: constraintCaret, base: v}, nil
	case strings.HasPrefix(spec, "~"):
		v, err := ParseSemVer(spec[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{kind: constraintTilde, base: v}, nil
	case strings.HasPrefix(spec, ">="):
		v, err := ParseSemVer(spec[2:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{kind: constraintGTE, base: v}, nil
	default:
		v, err := ParseSemVer(spec)
		if err != nil {
			return Constraint{}, ctxerr.New(ctxerr.Parse, "malformed version spec").WithContext("spec", spec)
		}
		return Constraint{kind: constraintExact, base: v}, nil
	}
}

// Satisfies reports whether candidate satisfies c.
func (c Constraint) Satisfies(candidate SemVer) bool {
	switch c.kind {
	case constraintLatest:
		return true
	case constraintExact:
		return candidate == c.base
	case constraintGTE:
		return !candidate.Less(c.base)
	case constraintCaret:
		return candidate.Major == c.base.Major && !candidate.Less(c.base)
	case constraintTilde:
		return candidate.Major == c.base.Major && candidate.Minor == c.base.Minor && !candidate.Less(c.base)
	default:
		return false
	}
}

// ResolveVersion selects the highest version in available that
// satisfies spec, per spec §4.B "Skill dependency resolution". It
// returns NoCompatibleVersion (as a *ctxerr.Error in category
// Invariant) when nothing satisfies.
func ResolveVersion(name, spec string, available []SemVer) (SemVer, error) {
	c, err := ParseConstraint(spec)
	if err != nil {
		return SemVer{}, err
	}

	sorted := append([]SemVer(nil), available...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) }) // descending

	for _, v := range sorted {
		if c.Satisfies(v) {
			return v, nil
		}
	}

	avail := make([]string, len(sorted))
	for i, v := range sorted {
		avail[i] = v.String()
	}
	return SemVer{}, ctxerr.New(ctxerr.Invariant, "no compatible version").
		WithContext("name", name).WithContext("spec", spec).WithContext("available", avail)
}
