package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quahogtools/quahog/internal/changeset"
	"github.com/quahogtools/quahog/internal/patchcodec"
	"github.com/quahogtools/quahog/internal/series"
	"github.com/quahogtools/quahog/internal/vcs"
)

// PopOptions configures a pop operation.
type PopOptions struct {
	// Root is the directory containing the patches/ subdirectory.
	// Empty infers the current directory.
	Root string

	// From names the quahog base commit to pop on top of. Empty infers it
	// by walking up from the checkout head.
	From string

	// Count is the number of trailing series entries to pop; zero means
	// unset.
	Count int

	// All pops every active series entry.
	All bool

	// Rebase names commits to rebase onto the last popped patch. Empty
	// defaults to the base's non-public children.
	Rebase string
}

// poppedPatch is one series entry lifted out of its patch file, ready to be
// reapplied as a commit.
type poppedPatch struct {
	name string
	desc string
	diff string
}

// Pop lifts the trailing entries of the series file out of their patch files
// and re-materializes each as an editable patch commit on top of the base.
func (e *Engine) Pop(ctx context.Context, opts PopOptions) error {
	if opts.Count < 0 {
		e.warnf("--count must be positive")
		return nil
	}
	if opts.All && opts.Count != 0 {
		return fmt.Errorf("%w: cannot provide both --all and --count", ErrValidation)
	}
	count := opts.Count
	if !opts.All && count == 0 {
		count = 1
	}

	root, err := e.ResolveRoot(ctx, opts.Root)
	if err != nil {
		return err
	}

	return e.Backend.Transact(ctx, "pop", func(ctx context.Context) error {
		sf, err := series.Load(root.SeriesPath)
		if err != nil {
			if errors.Is(err, series.ErrNoSeries) {
				return fmt.Errorf("%w: %v", ErrPrecondition, err)
			}
			return err
		}
		// The backend transaction cannot roll the series file back; undo
		// the truncations by hand when anything downstream fails.
		if err := e.pop(ctx, opts, root, sf, count); err != nil {
			if rerr := sf.Restore(); rerr != nil {
				e.warnf("failed to restore %s: %v", sf.Path(), rerr)
			}
			return err
		}
		return nil
	})
}

func (e *Engine) pop(ctx context.Context, opts PopOptions, root Root, sf *series.File, count int) error {
	if err := e.checkPreconditions(ctx); err != nil {
		return err
	}

	active := sf.Active()
	n := len(active)
	if !opts.All && count < n {
		n = count
	}
	if n == 0 {
		e.warnf("no patches to pop")
		return nil
	}

	orig, err := e.Backend.Head(ctx)
	if err != nil {
		return err
	}

	base, createNew, err := e.resolvePopBase(ctx, opts, orig)
	if err != nil {
		return err
	}
	e.Logger.Printf("pop: %d of %d entries onto %s (createNew=%v)", n, len(active), vcs.ShortID(base.ID), createNew)
	e.statusf("popping %d patch%s from %q", n, pluralize(n, "es"), root.Rel)

	targetIDs, err := e.popRebaseTargets(ctx, opts, base, createNew)
	if err != nil {
		return err
	}

	if err := e.Backend.Checkout(ctx, base.ID); err != nil {
		return err
	}

	popped := make([]poppedPatch, 0, n)
	for i := len(active) - 1; i >= len(active)-n; i-- {
		name := active[i]
		e.statusf("popping patch %q", name)

		if err := sf.WriteActivePrefix(i); err != nil {
			return err
		}

		path := filepath.Join(root.PatchesDir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
		diff, desc := patchcodec.SeparateDescription(string(raw))
		diff = patchcodec.CanonicalizePaths(diff, root.Rel)

		if err := e.Backend.Forget(ctx, []string{root.RelPatch(name)}); err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		if err := e.Applier.Apply(ctx, diff, root.Rel, true); err != nil {
			return fmt.Errorf("reversing patch %q: %w", name, err)
		}
		if err := e.Backend.SyncTracking(ctx); err != nil {
			return err
		}
		popped = append(popped, poppedPatch{name: name, desc: desc, diff: diff})
	}

	if createNew {
		e.statusf("creating quahog changeset")
		if base, err = e.Backend.Commit(ctx, vcs.CommitOptions{
			Message: baseMessage(root.Rel),
		}); err != nil {
			return err
		}
	} else {
		if base, err = e.Backend.Amend(ctx, base.ID); err != nil {
			return err
		}
	}

	// Reapply forward, oldest entry first, one patch commit per entry.
	leaf := base
	for i := len(popped) - 1; i >= 0; i-- {
		p := popped[i]
		e.statusf("applying patch %q", p.name)
		if err := e.Applier.Apply(ctx, p.diff, root.Rel, false); err != nil {
			return fmt.Errorf("applying patch %q: %w", p.name, err)
		}
		if err := e.Backend.SyncTracking(ctx); err != nil {
			return err
		}
		msg := patchMessage(p.name, p.desc)
		if leaf, err = e.Backend.Commit(ctx, vcs.CommitOptions{Message: msg}); err != nil {
			return err
		}
	}

	if len(targetIDs) > 0 {
		for i := range targetIDs {
			c, err := e.reresolve(ctx, targetIDs[i])
			if err != nil {
				return err
			}
			targetIDs[i] = c.ID
		}
		e.statusf("rebasing %d commit%s onto %q", len(targetIDs),
			pluralize(len(targetIDs), "s"), leaf.FirstLine())
		if err := e.Backend.Rebase(ctx, targetIDs, leaf.ID); err != nil {
			return err
		}
	}

	// When the operation started on the base itself, the natural place to
	// continue working is on top of the materialized chain.
	restoreID := orig.ID
	if orig.ID == base.ID {
		restoreID = leaf.ID
	}
	restored, err := e.reresolve(ctx, restoreID)
	if err != nil {
		return err
	}
	return e.Backend.Checkout(ctx, restored.ID)
}

// resolvePopBase picks the quahog base commit to pop on top of. An explicit
// --from must name a mutable quahog changeset; otherwise the walk climbs from
// the checkout head until it hits a public or quahog commit. When the walk
// finds no usable base the head itself becomes the parent of a synthesized
// one, reported through the boolean result.
func (e *Engine) resolvePopBase(ctx context.Context, opts PopOptions, orig vcs.Commit) (vcs.Commit, bool, error) {
	if opts.From != "" {
		base, err := e.resolveOne(ctx, opts.From, "--from must specify exactly one rev")
		if err != nil {
			return vcs.Commit{}, false, err
		}
		if !changeset.IsQuahog(base.Description) {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(base, "not a quahog changeset"))
		}
		if base.Phase == vcs.PhasePublic {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(base, "immutable quahog changeset"))
		}
		return base, false, nil
	}

	base := orig
	for base.Phase != vcs.PhasePublic && !changeset.IsQuahog(base.Description) {
		if len(base.Parents) > 1 {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(base, "multiple parents"))
		}
		if len(base.Parents) == 0 {
			break
		}
		parent, err := e.Backend.Lookup(ctx, base.Parents[0])
		if err != nil {
			return vcs.Commit{}, false, err
		}
		base = parent
	}
	if changeset.IsQuahog(base.Description) && base.Phase != vcs.PhasePublic {
		return base, false, nil
	}
	e.warnf("no quahog changeset found in ancestors; creating one")
	return orig, true, nil
}

// popRebaseTargets captures the commits to move onto the last popped patch:
// an explicit --rebase revset, or the base's current non-public children. A
// synthesized base has no pre-existing children worth carrying.
func (e *Engine) popRebaseTargets(ctx context.Context, opts PopOptions, base vcs.Commit, createNew bool) ([]string, error) {
	if opts.Rebase != "" {
		targets, err := e.Backend.Resolve(ctx, opts.Rebase)
		if err != nil {
			return nil, err
		}
		return commitIDs(targets), nil
	}
	if createNew {
		return nil, nil
	}
	children, err := e.Backend.Children(ctx, base.ID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, c := range children {
		if c.Phase == vcs.PhasePublic {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// patchMessage builds the description for a materialized patch commit.
func patchMessage(name, desc string) string {
	msg := "DO NOT SUBMIT [PATCH] " + name
	if desc != "" {
		msg += "\n\n" + desc
	}
	return msg
}
