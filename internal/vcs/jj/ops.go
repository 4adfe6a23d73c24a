package jj

import (
	"context"
	"fmt"
	"strings"

	"github.com/quahogtools/quahog/internal/vcs"
)

// ===================
// Graph Mutation
// ===================

// Checkout positions the working copy on id by creating a fresh empty
// working commit on top of it. Conflicted results are rejected by jj.
func (j *JJ) Checkout(ctx context.Context, id string) error {
	_, err := j.Exec(ctx, "new", id)
	return err
}

// Commit finalizes the working-copy changes as a commit with the given
// message and leaves a fresh empty working commit on top.
//
// jj has no objection to empty commits, so AllowEmpty is always honored.
func (j *JJ) Commit(ctx context.Context, opts vcs.CommitOptions) (vcs.Commit, error) {
	if _, err := j.Exec(ctx, "commit", "-m", opts.Message); err != nil {
		return vcs.Commit{}, err
	}
	return j.Lookup(ctx, "@-")
}

// Amend absorbs the working-copy changes into id, keeping id's message.
func (j *JJ) Amend(ctx context.Context, id string) (vcs.Commit, error) {
	_, err := j.Exec(ctx, "squash", "--from", "@", "--into", id, "--use-destination-message")
	if err != nil {
		return vcs.Commit{}, err
	}
	return j.Lookup(ctx, id)
}

// Fold collapses ids (ascending order, an unbroken chain) into its first
// member, which keeps message as its description.
func (j *JJ) Fold(ctx context.Context, ids []string, message string) (vcs.Commit, error) {
	if len(ids) == 0 {
		return vcs.Commit{}, fmt.Errorf("nothing to fold")
	}
	dest := ids[0]
	if len(ids) > 1 {
		args := []string{
			"squash",
			"--use-destination-message",
			"--into", dest,
			"--from", strings.Join(ids[1:], "|"),
		}
		if _, err := j.Exec(ctx, args...); err != nil {
			return vcs.Commit{}, err
		}
	}
	if _, err := j.Exec(ctx, "describe", "-m", message, "-r", dest); err != nil {
		return vcs.Commit{}, err
	}
	return j.Lookup(ctx, dest)
}

// Rebase moves the source commits, with their descendants, onto dest.
func (j *JJ) Rebase(ctx context.Context, source []string, dest string) error {
	if len(source) == 0 {
		return nil
	}
	args := []string{"rebase", "-d", dest}
	for _, s := range source {
		args = append(args, "-s", s)
	}
	_, err := j.Exec(ctx, args...)
	return err
}

// ===================
// Diff Generation
// ===================

// Diff returns the unified diff between id and its first parent, limited to
// paths under scope. Header paths are rewritten to carry no a/ b/ prefixes,
// matching the Backend contract.
func (j *JJ) Diff(ctx context.Context, id string, scope string) (string, error) {
	args := []string{"diff", "--git", "-r", id}
	if scope != "" {
		args = append(args, "--", scope)
	}
	out, err := j.Exec(ctx, args...)
	if err != nil {
		return "", err
	}
	return stripDiffPrefixes(string(out)), nil
}

// stripDiffPrefixes removes the a/ and b/ path prefixes from git-style
// ---/+++ header lines. /dev/null headers pass through untouched.
func stripDiffPrefixes(diff string) string {
	var b strings.Builder
	b.Grow(len(diff))
	rest := diff
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		switch {
		case strings.HasPrefix(line, "--- a/"):
			b.WriteString("--- ")
			b.WriteString(line[len("--- a/"):])
		case strings.HasPrefix(line, "+++ b/"):
			b.WriteString("+++ ")
			b.WriteString(line[len("+++ b/"):])
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}

// ===================
// Working Copy
// ===================

// Track is a no-op: jj snapshots new files automatically.
func (j *JJ) Track(ctx context.Context, paths []string) error {
	return nil
}

// Forget is a no-op: jj picks up file removals automatically.
func (j *JJ) Forget(ctx context.Context, paths []string) error {
	return nil
}

// SyncTracking is a no-op: jj reconciles tracking state on every snapshot.
func (j *JJ) SyncTracking(ctx context.Context) error {
	return nil
}

// EnsureTracked is a no-op: jj has no narrow checkout to widen.
func (j *JJ) EnsureTracked(ctx context.Context, root string) error {
	return nil
}

// CheckClean verifies the working commit is empty and undescribed, the jj
// equivalent of a clean working copy.
func (j *JJ) CheckClean(ctx context.Context) error {
	entries, err := j.logEntries(ctx, "@")
	if err != nil {
		return err
	}
	if len(entries) != 1 {
		return fmt.Errorf("expected one working-copy commit, got %d", len(entries))
	}
	if !entries[0].empty || entries[0].commit.Description != "" {
		return vcs.ErrDirtyWorkingCopy
	}
	return nil
}

// CheckUnfinished verifies no commit in the working copy's ancestry carries
// unresolved conflicts.
func (j *JJ) CheckUnfinished(ctx context.Context) error {
	entries, err := j.logEntries(ctx, "conflicts() & ::@")
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s has conflicts", vcs.ErrUnfinishedOperation,
			vcs.ShortID(entries[0].commit.ID))
	}
	return nil
}

// ===================
// Transactions
// ===================

// Transact runs fn and, if it fails, restores the repository to the
// operation-log state captured on entry. jj serializes operations through
// its repository lock, which provides the cross-invocation exclusion quahog
// relies on.
func (j *JJ) Transact(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	baseOp, err := j.execString(ctx, "op", "log", "--no-graph", "--template", "id", "--limit", "1")
	if err != nil {
		return fmt.Errorf("failed to capture base operation for %s: %w", name, err)
	}

	if err := fn(ctx); err != nil {
		if _, restoreErr := j.Exec(ctx, "op", "restore", baseOp); restoreErr != nil {
			return fmt.Errorf("%s failed (%w); rollback also failed: %v", name, err, restoreErr)
		}
		return err
	}
	return nil
}
