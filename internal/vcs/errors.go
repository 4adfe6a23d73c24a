package vcs

import (
	"context"
	"errors"
)

// Common errors returned by backend operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, vcs.ErrDirtyWorkingCopy) {
//	    // refuse to start the operation
//	}
var (
	// ErrNotInRepo is returned when the operation requires being inside
	// a repository but none was found.
	ErrNotInRepo = errors.New("not in a repository")

	// ErrBackendNotAvailable is returned when the backend binary
	// is not installed or not in PATH.
	ErrBackendNotAvailable = errors.New("backend binary not available")

	// ErrDirtyWorkingCopy is returned when an operation requires a clean
	// working copy but there are uncommitted changes.
	ErrDirtyWorkingCopy = errors.New("working copy has uncommitted changes")

	// ErrUnfinishedOperation is returned when a previous operation
	// (rebase, merge) has not been finished or aborted.
	ErrUnfinishedOperation = errors.New("unfinished operation in progress")

	// ErrEmptyRevset is returned when a revset resolves to no commits
	// in a position that requires at least one.
	ErrEmptyRevset = errors.New("revset matched no commits")

	// ErrAmbiguousRevset is returned when a revset resolves to multiple
	// commits in a position that requires exactly one.
	ErrAmbiguousRevset = errors.New("revset matched multiple commits")

	// ErrConflicts is returned when a checkout or rebase cannot complete
	// without leaving unresolved conflicts.
	ErrConflicts = errors.New("unresolved conflicts")

	// ErrImmutable is returned when a mutation targets a public commit.
	ErrImmutable = errors.New("commit is immutable")
)

// ResolveOne resolves a revset that must name exactly one commit.
// It wraps ErrEmptyRevset or ErrAmbiguousRevset on violation so callers can
// attach their own context.
func ResolveOne(ctx context.Context, b Backend, revset string) (Commit, error) {
	commits, err := b.Resolve(ctx, revset)
	if err != nil {
		return Commit{}, err
	}
	if len(commits) == 0 {
		return Commit{}, ErrEmptyRevset
	}
	if len(commits) > 1 {
		return Commit{}, ErrAmbiguousRevset
	}
	return commits[0], nil
}
