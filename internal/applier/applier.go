// Package applier applies unified diffs to the working tree through an
// external tool.
//
// Quahog does not implement patch application itself. The default
// implementation shells out to "git apply", feeding the diff on stdin and
// scoping the application to a directory with --directory. Application is
// synchronous, untimed, and never retried; a failure surfaces the invoked
// command and the tool's stderr verbatim.
package applier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Applier applies a diff against a directory scope, forward or in reverse.
type Applier interface {
	Apply(ctx context.Context, diff string, scope string, reverse bool) error
}

// ApplyError reports a failed external apply invocation.
type ApplyError struct {
	// Args is the full argv of the invoked command.
	Args []string

	// Stderr is the tool's error output, verbatim.
	Stderr string

	// Err is the underlying execution error.
	Err error
}

// Error formats the failing command and its diagnostic output.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("command failed: %s: %v\n%s",
		strings.Join(e.Args, " "), e.Err, e.Stderr)
}

// Unwrap exposes the underlying execution error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// GitApplier applies diffs with the git apply subcommand.
type GitApplier struct {
	// WorkDir is the directory to run the tool from (the repository root,
	// so that --directory scopes resolve against it).
	WorkDir string

	// Binary is the tool to invoke (default "git").
	Binary string
}

// NewGitApplier returns a GitApplier running git from workDir.
func NewGitApplier(workDir string) *GitApplier {
	return &GitApplier{WorkDir: workDir, Binary: "git"}
}

// Apply runs "git apply [--reverse] --directory <scope> -" with the diff on
// stdin. A non-zero exit returns an *ApplyError; the call blocks until the
// tool exits.
func (g *GitApplier) Apply(ctx context.Context, diff string, scope string, reverse bool) error {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}

	args := []string{"apply"}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, "--directory", scope, "-")

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.WorkDir
	cmd.Stdin = strings.NewReader(diff)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ApplyError{
			Args:   append([]string{bin}, args...),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}
