// Package changeset classifies commits by their description text.
//
// Quahog recognizes two special commit flavors purely from free-text
// descriptions: base commits carrying the #QUAHOG marker, and patch commits
// whose first line is a [PATCH] header. Classification lives here behind a
// small pure API so the engines never re-parse descriptions.
package changeset

import (
	"regexp"
	"strings"
)

// Kind tags a commit's role in a patch set.
type Kind int

const (
	// Plain is any commit quahog does not treat specially.
	Plain Kind = iota

	// Quahog is a base commit that patches are popped from and folded into.
	Quahog

	// Patch is a commit representing a single in-flight patch file.
	Patch
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Quahog:
		return "quahog"
	case Patch:
		return "patch"
	default:
		return "plain"
	}
}

// quahogMarker identifies base commits, case-insensitively, anywhere in the
// description.
const quahogMarker = "#QUAHOG"

// patchRe must fully match the first description line of a patch commit.
// Group 2 captures the free-text patch name.
var patchRe = regexp.MustCompile(`(?i)^(do not submit\s*)?\[patch\]([^\r\n]+)$`)

// whitespaceRuns matches runs of whitespace inside patch names.
var whitespaceRuns = regexp.MustCompile(`\s+`)

// IsQuahog reports whether the description marks a quahog base commit.
func IsQuahog(description string) bool {
	return strings.Contains(strings.ToUpper(description), quahogMarker)
}

// IsPatch reports whether the description's first line marks a patch commit.
func IsPatch(description string) bool {
	return patchRe.MatchString(firstLine(description))
}

// KindOf returns the commit kind for a description. The two predicates are
// not mutually exclusive over arbitrary text; when both match, Quahog wins.
// A commit carrying the #QUAHOG marker is a base regardless of how its first
// line is shaped.
func KindOf(description string) Kind {
	switch {
	case IsQuahog(description):
		return Quahog
	case IsPatch(description):
		return Patch
	default:
		return Plain
	}
}

// PatchName extracts the trimmed patch name from a patch commit description.
// The second return is false when the description is not a patch header.
func PatchName(description string) (string, bool) {
	m := patchRe.FindStringSubmatch(firstLine(description))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[2]), true
}

// NormalizeName collapses every run of whitespace in a patch name to a
// single hyphen, producing a usable file name. The result differs from the
// input exactly when a rename should be reported.
func NormalizeName(name string) string {
	return whitespaceRuns.ReplaceAllString(name, "-")
}

// Body returns the description minus its first line, trimmed, with line
// endings normalized to \n. For patch commits this is the text stored in the
// patch file's description block.
func Body(description string) string {
	i := strings.IndexAny(description, "\r\n")
	if i < 0 {
		return ""
	}
	body := strings.ReplaceAll(description[i:], "\r\n", "\n")
	return strings.TrimSpace(body)
}

func firstLine(description string) string {
	if i := strings.IndexAny(description, "\r\n"); i >= 0 {
		return description[:i]
	}
	return description
}
