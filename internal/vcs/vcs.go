// Package vcs defines the narrow backend interface quahog needs from a
// version control system.
//
// The pop and fold engines never talk to a VCS binary directly. They work
// against the Backend interface below, which covers revision-graph queries,
// phase and successor lookup, the commit/amend/fold/rebase/checkout
// primitives, scoped diff generation, and a repository-wide transaction
// scope. This keeps the graph-rewriting logic unit-testable against a fake
// backend.
//
// # Implementations
//
//   - internal/vcs/jj: Jujutsu implementation driving the jj CLI
//
// Transactions map onto whatever rollback machinery the backend provides
// (the jj implementation uses the operation log). Any error returned from
// the function passed to Transact must leave the repository graph as it was
// before the transaction started.
package vcs

import "context"

// Phase is the mutability classification of a commit.
type Phase int

const (
	// PhaseDraft marks a mutable commit that history rewriting may touch.
	PhaseDraft Phase = iota

	// PhasePublic marks an immutable commit. Quahog never rewrites these.
	PhasePublic
)

// String returns the phase name as backends report it.
func (p Phase) String() string {
	if p == PhasePublic {
		return "public"
	}
	return "draft"
}

// Commit is the subset of commit metadata the engines operate on.
// Commits are owned by the backend; quahog only ever creates them through
// Backend primitives.
type Commit struct {
	// ID is the backend's stable identity for the commit.
	ID string

	// Description is the full commit message.
	Description string

	// Parents holds the parent commit IDs (0-2 entries).
	Parents []string

	// Phase is the commit's mutability phase.
	Phase Phase
}

// FirstLine returns the first line of the commit description.
func (c Commit) FirstLine() string {
	for i := 0; i < len(c.Description); i++ {
		if c.Description[i] == '\n' || c.Description[i] == '\r' {
			return c.Description[:i]
		}
	}
	return c.Description
}

// CommitOptions configures a Commit call.
type CommitOptions struct {
	// Message is the commit message (required).
	Message string

	// AllowEmpty permits creating a commit with no file changes.
	// Quahog base commits are created empty and amended afterwards.
	AllowEmpty bool
}

// Backend is the version-control capability quahog requires.
//
// All mutating methods must only be called inside a Transact scope. Blocking
// operations accept a context, but quahog applies no timeouts of its own: a
// hung backend call hangs the invocation.
type Backend interface {
	// Root returns the repository root directory (absolute path).
	Root() (string, error)

	// Head returns the currently checked-out commit.
	Head(ctx context.Context) (Commit, error)

	// Resolve resolves a user-supplied revset expression to commits.
	// The result order is the backend's default log order. An unknown
	// revision is an error; an empty result is not.
	Resolve(ctx context.Context, revset string) ([]Commit, error)

	// Lookup returns a single commit by ID. Wraps ErrEmptyRevset when the
	// ID no longer names a visible commit.
	Lookup(ctx context.Context, id string) (Commit, error)

	// Children returns the commits whose parent set includes id.
	Children(ctx context.Context, id string) ([]Commit, error)

	// SuccessorsOf returns the successor sets recorded for a rewritten
	// commit. A live commit yields one set containing itself. A divergent
	// rewrite yields multiple sets; a split yields a set with multiple
	// members.
	SuccessorsOf(ctx context.Context, id string) ([][]string, error)

	// Checkout updates the working copy to the given commit without
	// allowing conflicts.
	Checkout(ctx context.Context, id string) error

	// Commit creates a new commit on top of the current checkout from the
	// working-copy changes and returns it.
	Commit(ctx context.Context, opts CommitOptions) (Commit, error)

	// Amend absorbs the working-copy changes into the given commit without
	// editing its message, returning the replacement commit.
	Amend(ctx context.Context, id string) (Commit, error)

	// Fold collapses the given commits (ascending topological order, an
	// unbroken chain) into a single commit carrying message, and returns
	// it. The replaced identities are registered as predecessors of the
	// result.
	Fold(ctx context.Context, ids []string, message string) (Commit, error)

	// Rebase moves the source commits (and their descendants) onto dest.
	Rebase(ctx context.Context, source []string, dest string) error

	// Diff returns the unified diff between a commit and its first parent,
	// limited to paths under scope (repo-relative). Header paths carry no
	// a/ b/ prefixes.
	Diff(ctx context.Context, id string, scope string) (string, error)

	// Track marks the given working-copy files as tracked.
	Track(ctx context.Context, paths []string) error

	// Forget stops tracking the given files without deleting them.
	Forget(ctx context.Context, paths []string) error

	// SyncTracking reconciles tracking state with the working copy:
	// missing tracked files become untracked, present unknown files
	// become tracked.
	SyncTracking(ctx context.Context) error

	// EnsureTracked widens the working-copy scope to include root and
	// everything under it. A no-op for backends without narrow checkouts.
	EnsureTracked(ctx context.Context, root string) error

	// CheckClean returns ErrDirtyWorkingCopy if there are uncommitted
	// changes.
	CheckClean(ctx context.Context) error

	// CheckUnfinished returns ErrUnfinishedOperation if a previous
	// operation (rebase, merge, ...) is still in progress.
	CheckUnfinished(ctx context.Context) error

	// Transact runs fn under the repository lock inside a single
	// transaction named name. If fn returns an error, every graph and
	// content mutation made inside fn is rolled back before Transact
	// returns that error.
	Transact(ctx context.Context, name string, fn func(ctx context.Context) error) error
}
