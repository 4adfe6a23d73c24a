package patchcodec

import (
	"github.com/sourcegraph/go-diff/diff"
)

// Stats summarizes a diff body.
type Stats struct {
	// Files is the number of files the diff touches.
	Files int

	// Hunks is the total hunk count across all files.
	Hunks int
}

// Stat parses a unified diff body and reports how many files and hunks it
// contains. Used for status output only; parse failures surface so callers
// can fall back to printing nothing.
func Stat(diffBody string) (Stats, error) {
	fileDiffs, err := diff.ParseMultiFileDiff([]byte(diffBody))
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Files: len(fileDiffs)}
	for _, fd := range fileDiffs {
		s.Hunks += len(fd.Hunks)
	}
	return s, nil
}
