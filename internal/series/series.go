// Package series reads and rewrites Quilt series files.
//
// A series file lists patch file names in application order, one per line.
// Blank lines and lines starting with '#' are ignored when computing the
// active patch list but are preserved verbatim when the file is rewritten.
// All writes go through a temporary file in the same directory followed by a
// rename, so a series file is never observed half-written.
package series

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSeries is returned when the series file does not exist. A missing
// series file is a precondition failure, not an I/O condition to retry.
var ErrNoSeries = errors.New("series file not found")

// File is an in-memory snapshot of a series file.
type File struct {
	path string

	// original is the exact byte content at load time, kept for Restore.
	original []byte

	// lines are the raw lines without terminators.
	lines []string

	// active maps active-entry positions to indices into lines.
	active []int
}

// Load reads the series file at path. Missing files wrap ErrNoSeries.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSeries, path)
		}
		return nil, err
	}

	f := &File{path: path, original: data}
	f.lines = splitLines(string(data))
	for i, line := range f.lines {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		f.active = append(f.active, i)
	}
	return f, nil
}

// Path returns the series file path.
func (f *File) Path() string {
	return f.path
}

// Active returns the active patch names in series order.
func (f *File) Active() []string {
	names := make([]string, len(f.active))
	for i, idx := range f.active {
		names[i] = strings.TrimSpace(f.lines[idx])
	}
	return names
}

// WriteActivePrefix atomically rewrites the series file so that only the
// first n active entries remain. Raw lines before the truncation point,
// comments and blanks included, are preserved verbatim; the (n+1)-th active
// entry and everything after it are dropped.
func (f *File) WriteActivePrefix(n int) error {
	if n < 0 || n > len(f.active) {
		return fmt.Errorf("active prefix %d out of range (have %d entries)", n, len(f.active))
	}

	var keep []string
	if n == len(f.active) {
		keep = f.lines
	} else {
		keep = f.lines[:f.active[n]]
	}

	content := ""
	if len(keep) > 0 {
		content = strings.Join(keep, "\n") + "\n"
	}
	return writeAtomic(f.path, []byte(content))
}

// Append atomically appends the given names, newline-joined, to the series
// file in one write.
func (f *File) Append(names []string) error {
	if len(names) == 0 {
		return nil
	}
	current, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	content := append(current, []byte(strings.Join(names, "\n")+"\n")...)
	return writeAtomic(f.path, content)
}

// Restore atomically puts back the exact content the file had at load time.
func (f *File) Restore() error {
	return writeAtomic(f.path, f.original)
}

// writeAtomic writes data to path via a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".series-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// splitLines splits on '\n', dropping a single trailing empty element so a
// final newline does not produce a phantom line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
