// Package engine implements the pop and fold operations over a vcs.Backend.
//
// Pop materializes trailing series entries as individually editable patch
// commits by reverse-applying their diffs; fold is its inverse, collapsing a
// chain of patch commits back into diff files and an updated base commit.
// Both operations run inside a single backend transaction: any failure rolls
// back every graph and content mutation. The one asymmetry is the series
// file during pop, which sits outside the backend's rollback scope and is
// restored manually by the failure handler.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/quahogtools/quahog/internal/applier"
	"github.com/quahogtools/quahog/internal/vcs"
)

// IO carries the status and warning streams for an operation.
type IO struct {
	Out io.Writer
	Err io.Writer
}

// Engine runs pop and fold against a backend and an external patch applier.
type Engine struct {
	Backend vcs.Backend
	Applier applier.Applier
	IO      IO
	Logger  *log.Logger
}

// New wires up an engine. A nil logger is replaced with a discarding one;
// missing IO streams default to the process streams.
func New(backend vcs.Backend, app applier.Applier, cio IO, logger *log.Logger) *Engine {
	if cio.Out == nil {
		cio.Out = os.Stdout
	}
	if cio.Err == nil {
		cio.Err = os.Stderr
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{Backend: backend, Applier: app, IO: cio, Logger: logger}
}

func (e *Engine) statusf(format string, args ...any) {
	fmt.Fprintf(e.IO.Out, format+"\n", args...)
}

func (e *Engine) warnf(format string, args ...any) {
	fmt.Fprintf(e.IO.Err, format+"\n", args...)
}

// Root locates the patch set being operated on.
type Root struct {
	// Abs is the absolute directory path.
	Abs string

	// Rel is the path relative to the repository root, slash-separated.
	Rel string

	// PatchesDir is the absolute path of the patches/ subdirectory.
	PatchesDir string

	// SeriesPath is the absolute path of the series file.
	SeriesPath string
}

// RelPatch returns the repo-relative path of a patch file.
func (r Root) RelPatch(name string) string {
	return r.Rel + "/patches/" + name
}

// ResolveRoot validates dir as a patch-set root: it must exist inside the
// repository and contain a patches/ subdirectory. An empty dir is inferred
// as the current directory. The working-copy scope is widened to include the
// root before returning.
func (e *Engine) ResolveRoot(ctx context.Context, dir string) (Root, error) {
	repoRoot, err := e.Backend.Root()
	if err != nil {
		return Root{}, err
	}

	inferred := dir == ""
	if inferred {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, err
	}

	rel, err := filepath.Rel(repoRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Root{}, fmt.Errorf("%w: %s: not inside repository %s", ErrPrecondition, abs, repoRoot)
	}
	rel = filepath.ToSlash(rel)
	if inferred {
		e.statusf("inferring --root as %q", rel)
	}

	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return Root{}, fmt.Errorf("%w: %s: directory not found", ErrPrecondition, abs)
	}
	patchesDir := filepath.Join(abs, "patches")
	if info, err := os.Stat(patchesDir); err != nil || !info.IsDir() {
		return Root{}, fmt.Errorf("%w: %s: does not contain patches/ subdirectory", ErrPrecondition, abs)
	}

	if err := e.Backend.EnsureTracked(ctx, rel); err != nil {
		return Root{}, err
	}

	return Root{
		Abs:        abs,
		Rel:        rel,
		PatchesDir: patchesDir,
		SeriesPath: filepath.Join(patchesDir, "series"),
	}, nil
}

// baseMessage builds the description for a synthesized quahog base commit.
// The path in the message drops the root's first segment (the repository's
// fixed top-level directory).
func baseMessage(rootRel string) string {
	rel := rootRel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		rel = rel[i+1:]
	}
	return fmt.Sprintf("#QUAHOG Modify patches for %s.", rel)
}

// successor re-resolves a rewritten commit identity. The rewrite must have
// produced exactly one non-divergent, non-split successor.
func (e *Engine) successor(ctx context.Context, id string) (vcs.Commit, error) {
	sets, err := e.Backend.SuccessorsOf(ctx, id)
	if err != nil {
		return vcs.Commit{}, err
	}
	if len(sets) != 1 {
		return vcs.Commit{}, fmt.Errorf("%w: rev %s unexpectedly divergent", ErrInternalInvariant, vcs.ShortID(id))
	}
	if len(sets[0]) != 1 {
		return vcs.Commit{}, fmt.Errorf("%w: rev %s unexpectedly split", ErrInternalInvariant, vcs.ShortID(id))
	}
	return e.Backend.Lookup(ctx, sets[0][0])
}

// reresolve returns the commit for id, following successor mappings if the
// identity no longer names a visible commit.
func (e *Engine) reresolve(ctx context.Context, id string) (vcs.Commit, error) {
	c, err := e.Backend.Lookup(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, vcs.ErrEmptyRevset) {
		return vcs.Commit{}, err
	}
	return e.successor(ctx, id)
}

// resolveOne resolves a revset that must name exactly one commit, reporting
// msg as a validation error otherwise.
func (e *Engine) resolveOne(ctx context.Context, revset, msg string) (vcs.Commit, error) {
	c, err := vcs.ResolveOne(ctx, e.Backend, revset)
	if err != nil {
		if errors.Is(err, vcs.ErrEmptyRevset) || errors.Is(err, vcs.ErrAmbiguousRevset) {
			return vcs.Commit{}, fmt.Errorf("%w: %s", ErrValidation, msg)
		}
		return vcs.Commit{}, err
	}
	return c, nil
}

// checkPreconditions runs the shared pre-mutation checks.
func (e *Engine) checkPreconditions(ctx context.Context) error {
	if err := e.Backend.CheckClean(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if err := e.Backend.CheckUnfinished(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	return nil
}

// pluralize returns plural when n != 1, matching the operation status lines.
func pluralize(n int, plural string) string {
	if n > 1 {
		return plural
	}
	return ""
}
