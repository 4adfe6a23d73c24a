package changeset

import "testing"

func TestIsQuahog(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    bool
	}{
		{
			name:        "marker at start",
			description: "#QUAHOG Modify patches for demo.",
			expected:    true,
		},
		{
			name:        "marker mid-line",
			description: "Update base #QUAHOG after sync",
			expected:    true,
		},
		{
			name:        "marker lowercase",
			description: "#quahog modify patches",
			expected:    true,
		},
		{
			name:        "marker in body",
			description: "Unrelated summary\n\nSee #QUAHOG tracking.",
			expected:    true,
		},
		{
			name:        "no marker",
			description: "Fix the frobnicator",
			expected:    false,
		},
		{
			name:        "empty description",
			description: "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuahog(tt.description); got != tt.expected {
				t.Errorf("IsQuahog(%q) = %v, expected %v", tt.description, got, tt.expected)
			}
		})
	}
}

func TestIsPatch(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    bool
	}{
		{
			name:        "plain patch header",
			description: "[PATCH] my-fix.diff",
			expected:    true,
		},
		{
			name:        "do not submit prefix",
			description: "DO NOT SUBMIT [PATCH] my-fix.diff",
			expected:    true,
		},
		{
			name:        "case insensitive",
			description: "do not submit [patch] my-fix.diff",
			expected:    true,
		},
		{
			name:        "header with body",
			description: "[PATCH] my-fix.diff\n\nLonger explanation.",
			expected:    true,
		},
		{
			name:        "header not on first line",
			description: "Summary\n[PATCH] my-fix.diff",
			expected:    false,
		},
		{
			name:        "trailing text required",
			description: "[PATCH]",
			expected:    false,
		},
		{
			name:        "leading text rejected",
			description: "WIP [PATCH] my-fix.diff",
			expected:    false,
		},
		{
			name:        "plain commit",
			description: "Fix the frobnicator",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPatch(tt.description); got != tt.expected {
				t.Errorf("IsPatch(%q) = %v, expected %v", tt.description, got, tt.expected)
			}
		})
	}
}

// A description carrying both markers classifies as the base commit: the
// fold target walk must never mistake a base for a foldable patch.
func TestKindOfPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    Kind
	}{
		{
			name:        "quahog",
			description: "#QUAHOG Modify patches for demo.",
			expected:    Quahog,
		},
		{
			name:        "patch",
			description: "DO NOT SUBMIT [PATCH] my-fix.diff",
			expected:    Patch,
		},
		{
			name:        "both markers",
			description: "[PATCH] #QUAHOG weird.diff",
			expected:    Quahog,
		},
		{
			name:        "plain",
			description: "Fix the frobnicator",
			expected:    Plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.description); got != tt.expected {
				t.Errorf("KindOf(%q) = %v, expected %v", tt.description, got, tt.expected)
			}
		})
	}
}

func TestPatchName(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
		ok          bool
	}{
		{
			name:        "simple name",
			description: "DO NOT SUBMIT [PATCH] my-fix.diff",
			expected:    "my-fix.diff",
			ok:          true,
		},
		{
			name:        "surrounding whitespace trimmed",
			description: "[PATCH]   spaced.diff  ",
			expected:    "spaced.diff",
			ok:          true,
		},
		{
			name:        "inner whitespace kept",
			description: "[PATCH] two words.diff",
			expected:    "two words.diff",
			ok:          true,
		},
		{
			name:        "not a patch",
			description: "Fix the frobnicator",
			expected:    "",
			ok:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PatchName(tt.description)
			if ok != tt.ok {
				t.Fatalf("PatchName(%q) ok = %v, expected %v", tt.description, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("PatchName(%q) = %q, expected %q", tt.description, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already clean",
			input:    "my-fix.diff",
			expected: "my-fix.diff",
		},
		{
			name:     "single spaces",
			input:    "two words.diff",
			expected: "two-words.diff",
		},
		{
			name:     "whitespace runs collapse",
			input:    "a  \t b.diff",
			expected: "a-b.diff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{
			name:        "header only",
			description: "[PATCH] my-fix.diff",
			expected:    "",
		},
		{
			name:        "header with body",
			description: "[PATCH] my-fix.diff\n\nLonger explanation.\nSecond line.",
			expected:    "Longer explanation.\nSecond line.",
		},
		{
			name:        "empty",
			description: "",
			expected:    "",
		},
		{
			name:        "crlf endings",
			description: "[PATCH] my-fix.diff\r\n\r\nLonger explanation.\r\nSecond line.\r\n",
			expected:    "Longer explanation.\nSecond line.",
		},
		{
			name:        "lone carriage return first line",
			description: "[PATCH] my-fix.diff\rrest",
			expected:    "rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Body(tt.description); got != tt.expected {
				t.Errorf("Body(%q) = %q, expected %q", tt.description, got, tt.expected)
			}
		})
	}
}
