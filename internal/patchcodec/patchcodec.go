// Package patchcodec transforms between backend-generated diffs and
// Quilt-style patch files.
//
// A Quilt patch file is an optional free-text description block, one blank
// line, then a unified diff whose header paths use a/ and b/ prefixes. The
// codec handles the three transforms pop and fold need: splitting a patch
// file into description and diff, rewriting a backend diff into Quilt form,
// and canonicalizing header paths before reverse application. All transforms
// are pure functions over strings.
package patchcodec

import (
	"regexp"
	"strings"
	"unicode"
)

// diffStartPrefixes end the description block; the line carrying one of
// them is the first diff line.
var diffStartPrefixes = []string{"--- ", "diff --git", "rename from"}

// SeparateDescription splits a patch file's content into its diff body and
// description block.
//
// The description ends at the first line beginning with "--- ", "diff --git"
// or "rename from". A line beginning with "Index: " also ends it, with the
// diff starting two lines later (the Index: line and the separator line
// after it are skipped). Description lines are individually right-trimmed
// and newline-joined, then the block is right-trimmed; the diff body is
// left-trimmed.
func SeparateDescription(content string) (diff, description string) {
	lines := splitKeepEnds(content)
	lines = append(lines, "")

	diffStart := len(lines) - 1
	var descLines []string
	for i, line := range lines {
		if hasDiffStart(line) {
			diffStart = i
			break
		}
		if strings.HasPrefix(line, "Index: ") {
			diffStart = i + 2
			break
		}
		descLines = append(descLines, strings.TrimRightFunc(line, unicode.IsSpace))
	}
	if diffStart > len(lines) {
		diffStart = len(lines)
	}

	diff = strings.TrimLeftFunc(strings.Join(lines[diffStart:], ""), unicode.IsSpace)
	description = strings.TrimRightFunc(strings.Join(descLines, "\n"), unicode.IsSpace)
	return diff, description
}

// ToQuiltPatch rewrites a backend diff (header paths carrying the root
// prefix, no a/ b/ prefixes) into Quilt form.
//
// Per line, preserving each line's original terminator:
//   - "diff --git" lines are dropped; Quilt's diff generation does not
//     produce them.
//   - "--- <root>..." becomes "--- a..." and "+++ <root>..." becomes
//     "+++ b...", matching Quilt's '-p ab' layout.
//   - "@@ " hunk-header lines lose their trailing whitespace. Quilt strips
//     it when generating hunk headers; this applies to the header line only,
//     not to body or context lines.
func ToQuiltPatch(diff, rootPath string) string {
	rootBase := strings.TrimRight(rootPath, "/")
	oldHeader := "--- " + rootBase
	newHeader := "+++ " + rootBase

	var b strings.Builder
	b.Grow(len(diff))
	for _, line := range splitKeepEnds(diff) {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			// skip
		case strings.HasPrefix(line, oldHeader):
			b.WriteString("--- a")
			b.WriteString(line[len(oldHeader):])
		case strings.HasPrefix(line, newHeader):
			b.WriteString("+++ b")
			b.WriteString(line[len(newHeader):])
		case strings.HasPrefix(line, "@@ "):
			body, term := splitTerminator(line)
			b.WriteString(strings.TrimRightFunc(body, unicode.IsSpace))
			b.WriteString(term)
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}

// CanonicalizePaths normalizes the header paths of a patch file so that
// "---" and "+++" lines reference rootPath directly: a single optional
// directory-prefix segment immediately preceding a literal occurrence of
// rootPath is stripped, whatever leading components the file originally
// carried. The transform is idempotent.
func CanonicalizePaths(content, rootPath string) string {
	pattern := regexp.MustCompile(`(^|\n)(---|\+\+\+)(\s)(\S*/)?` + regexp.QuoteMeta(rootPath))
	replacement := `${1}${2}${3}` + strings.ReplaceAll(rootPath, "$", "$$")
	return pattern.ReplaceAllString(content, replacement)
}

func hasDiffStart(line string) bool {
	for _, p := range diffStartPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// splitKeepEnds splits s into lines, each retaining its terminator. A final
// fragment without a newline is returned as-is.
func splitKeepEnds(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// splitTerminator separates a line from its terminator ("\r\n", "\n", or
// none for a final unterminated line).
func splitTerminator(line string) (body, term string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
