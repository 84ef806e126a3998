package learner

import (
	"sort"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/detector"
)

const maxFingerprintFiles = 20

// Fingerprint serializes a SessionContext into the canonical textual
// fingerprint of spec §4.D: sorted file types, architectural flags,
// top files truncated to 20, active agents. The same context always
// produces the same string, which is what makes it embeddable and
// comparable across sessions.
func Fingerprint(ctx detector.SessionContext) string {
	var sb strings.Builder

	sb.WriteString("file_types: ")
	sb.WriteString(strings.Join(ctx.SortedFileTypes(), ", "))
	sb.WriteString("\n")

	sb.WriteString("flags: ")
	sb.WriteString(strings.Join(architecturalFlags(ctx), ", "))
	sb.WriteString("\n")

	files := append([]string(nil), ctx.FilesChanged...)
	if len(files) > maxFingerprintFiles {
		files = files[:maxFingerprintFiles]
	}
	sb.WriteString("files: ")
	sb.WriteString(strings.Join(files, ", "))
	sb.WriteString("\n")

	agents := append([]string(nil), ctx.ActiveAgents...)
	sort.Strings(agents)
	sb.WriteString("agents: ")
	sb.WriteString(strings.Join(agents, ", "))

	return sb.String()
}

// architecturalFlags renders a SessionContext's boolean signals as a
// sorted, stable set of flag names for fingerprinting and the
// frequency-pattern stream's grouping key.
func architecturalFlags(ctx detector.SessionContext) []string {
	var flags []string
	if ctx.HasTests {
		flags = append(flags, "has_tests")
	}
	if ctx.HasAuth {
		flags = append(flags, "has_auth")
	}
	if ctx.HasAPI {
		flags = append(flags, "has_api")
	}
	if ctx.HasFrontend {
		flags = append(flags, "has_frontend")
	}
	if ctx.HasBackend {
		flags = append(flags, "has_backend")
	}
	if ctx.HasDatabase {
		flags = append(flags, "has_database")
	}
	sort.Strings(flags)
	return flags
}

// FlagTupleKey joins a sorted flag set into the frequency stream's
// grouping key.
func FlagTupleKey(flags []string) string {
	sorted := append([]string(nil), flags...)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}
