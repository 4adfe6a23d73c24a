package series

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSeries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write series file: %v", err)
	}
	return path
}

func readSeries(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read series file: %v", err)
	}
	return string(data)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "series"))
	if !errors.Is(err, ErrNoSeries) {
		t.Errorf("Expected ErrNoSeries, got %v", err)
	}
}

func TestActive(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "empty file",
			content:  "",
			expected: nil,
		},
		{
			name:     "plain entries",
			content:  "a.diff\nb.diff\n",
			expected: []string{"a.diff", "b.diff"},
		},
		{
			name:     "comments and blanks skipped",
			content:  "# applied first\na.diff\n\n# second batch\nb.diff\n",
			expected: []string{"a.diff", "b.diff"},
		},
		{
			name:     "entries trimmed",
			content:  "  a.diff  \n",
			expected: []string{"a.diff"},
		},
		{
			name:     "no trailing newline",
			content:  "a.diff\nb.diff",
			expected: []string{"a.diff", "b.diff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(writeSeries(t, tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			got := f.Active()
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d entries, got %d (%v)", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Entry %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestWriteActivePrefix(t *testing.T) {
	content := "# header\na.diff\n\n# note on b\nb.diff\nc.diff\n"
	path := writeSeries(t, content)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Dropping c.diff keeps everything before it, comments included.
	if err := f.WriteActivePrefix(2); err != nil {
		t.Fatalf("WriteActivePrefix failed: %v", err)
	}
	expected := "# header\na.diff\n\n# note on b\nb.diff\n"
	if got := readSeries(t, path); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	// Dropping everything keeps only the lines before the first entry.
	if err := f.WriteActivePrefix(0); err != nil {
		t.Fatalf("WriteActivePrefix failed: %v", err)
	}
	if got := readSeries(t, path); got != "# header\n" {
		t.Errorf("Expected header only, got %q", got)
	}
}

func TestWriteActivePrefixFull(t *testing.T) {
	content := "a.diff\nb.diff\n"
	path := writeSeries(t, content)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := f.WriteActivePrefix(2); err != nil {
		t.Fatalf("WriteActivePrefix failed: %v", err)
	}
	if got := readSeries(t, path); got != content {
		t.Errorf("Expected content unchanged, got %q", got)
	}
}

func TestWriteActivePrefixOutOfRange(t *testing.T) {
	f, err := Load(writeSeries(t, "a.diff\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := f.WriteActivePrefix(2); err == nil {
		t.Error("Expected error for out-of-range prefix")
	}
	if err := f.WriteActivePrefix(-1); err == nil {
		t.Error("Expected error for negative prefix")
	}
}

func TestAppend(t *testing.T) {
	path := writeSeries(t, "a.diff\n")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := f.Append([]string{"b.diff", "c.diff"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	expected := "a.diff\nb.diff\nc.diff\n"
	if got := readSeries(t, path); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	// An empty append leaves the file alone.
	if err := f.Append(nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := readSeries(t, path); got != expected {
		t.Errorf("Expected %q after empty append, got %q", expected, got)
	}
}

func TestRestore(t *testing.T) {
	content := "# header\na.diff\nb.diff\n"
	path := writeSeries(t, content)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := f.WriteActivePrefix(0); err != nil {
		t.Fatalf("WriteActivePrefix failed: %v", err)
	}
	if err := f.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := readSeries(t, path); got != content {
		t.Errorf("Expected original content %q, got %q", content, got)
	}
}
