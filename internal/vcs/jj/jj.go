// Package jj implements the vcs.Backend interface for Jujutsu (jj).
//
// Jujutsu is a Git-compatible version control system with an operation log,
// stable change IDs, and automatic working-copy snapshotting. This
// implementation wraps the jj CLI using os/exec.
//
// # Mapping to the Backend model
//
// Quahog's engines assume an hg-like model: a checked-out commit plus a
// working copy that is either clean or dirty. jj instead always materializes
// the working copy as the @ commit. The mapping used here:
//
//   - Checkout(id) runs "jj new id": @ becomes a fresh empty child of id,
//     which is the jj equivalent of a clean checkout of id.
//   - Head() returns @'s parent while @ is an empty, undescribed working
//     commit, otherwise @ itself.
//   - CheckClean() requires @ to be empty and undescribed.
//   - Amend(id) squashes @'s accumulated changes into id, keeping id's
//     message.
//   - Transact captures the current operation ID and restores it with
//     "jj op restore" if the transaction body fails.
//
// Tracking-related methods are no-ops: jj snapshots file additions and
// removals automatically.
package jj

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/quahogtools/quahog/internal/vcs"
)

var _ vcs.Backend = (*JJ)(nil)

// JJ implements vcs.Backend by driving the jj command-line tool.
type JJ struct {
	// repoRoot is the repository root directory
	repoRoot string

	// jjDir is the .jj directory path
	jjDir string

	// bin is the jj binary to invoke (default "jj")
	bin string
}

// Option configures a JJ instance.
type Option func(*JJ)

// WithBinary overrides the jj binary path.
func WithBinary(path string) Option {
	return func(j *JJ) {
		if path != "" {
			j.bin = path
		}
	}
}

// New creates a JJ instance for the given repository root.
// The repository must already be initialized (have a .jj directory).
func New(repoRoot string, opts ...Option) (*JJ, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	jjDir := filepath.Join(absRoot, ".jj")
	if _, err := os.Stat(jjDir); err != nil {
		return nil, vcs.ErrNotInRepo
	}

	j := &JJ{repoRoot: absRoot, jjDir: jjDir, bin: "jj"}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Open walks up from dir looking for a .jj directory and returns a JJ
// instance rooted there. Returns vcs.ErrNotInRepo if none is found.
func Open(dir string, opts ...Option) (*JJ, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, ".jj")); err == nil {
			return New(current, opts...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, vcs.ErrNotInRepo
		}
		current = parent
	}
}

// Init initializes a new jj repository at path (colocated with git) and
// returns a JJ instance for it. Used by integration tests.
func Init(path string) (*JJ, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	cmd := exec.Command("jj", "git", "init", "--colocate")
	cmd.Dir = absPath
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to initialize jj repository: %w", err)
	}

	return New(absPath)
}

// Available returns true if the jj binary can be found in PATH.
func Available() bool {
	_, err := exec.LookPath("jj")
	return err == nil
}

// Root returns the repository root directory path.
func (j *JJ) Root() (string, error) {
	return j.repoRoot, nil
}

// Exec executes a raw jj command in the repository root.
// This is the internal command runner used by all other methods.
func (j *JJ) Exec(ctx context.Context, args ...string) ([]byte, error) {
	out, err := vcs.ExecContext(ctx, j.repoRoot, j.bin, args...)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "no jj repo"), strings.Contains(msg, "There is no jj repo"):
			return nil, vcs.ErrNotInRepo
		case strings.Contains(msg, "executable file not found"):
			return nil, vcs.ErrBackendNotAvailable
		case strings.Contains(msg, "would create a conflict"), strings.Contains(msg, "merge conflict"):
			return nil, fmt.Errorf("%w: %s", vcs.ErrConflicts, msg)
		case strings.Contains(msg, "is immutable"):
			return nil, fmt.Errorf("%w: %s", vcs.ErrImmutable, msg)
		}
		return nil, err
	}
	return out, nil
}

// execString runs a command and returns trimmed stdout.
func (j *JJ) execString(ctx context.Context, args ...string) (string, error) {
	out, err := j.Exec(ctx, args...)
	if err != nil {
		return "", err
	}
	return vcs.TrimOutput(out), nil
}
