package engine

import "errors"

// Error categories for pop and fold failures. Each abort path wraps one of
// these so callers can classify with errors.Is().
var (
	// ErrValidation marks conflicting or invalid options, detected before
	// any mutation.
	ErrValidation = errors.New("invalid options")

	// ErrPrecondition marks a repository state that blocks the operation
	// (dirty working copy, unfinished operation, missing root or series
	// file), detected before any mutation.
	ErrPrecondition = errors.New("precondition failed")

	// ErrClassification marks a commit playing the wrong role: a non-base
	// fold target, a non-linear explicit chain, an ambiguous multi-child
	// chain, an immutable target.
	ErrClassification = errors.New("commit classification error")

	// ErrInternalInvariant marks a broken assumption about history
	// rewriting, such as a rewritten commit diverging or splitting.
	ErrInternalInvariant = errors.New("internal invariant violation")
)
