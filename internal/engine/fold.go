package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quahogtools/quahog/internal/changeset"
	"github.com/quahogtools/quahog/internal/patchcodec"
	"github.com/quahogtools/quahog/internal/series"
	"github.com/quahogtools/quahog/internal/vcs"
)

// FoldOptions configures a fold operation.
type FoldOptions struct {
	// Root is the directory containing the patches/ subdirectory.
	// Empty infers the current directory.
	Root string

	// To names the quahog base commit to fold into. Empty infers it from
	// the explicit chain's parent or by walking up from the checkout head.
	To string

	// Count is the number of patches to fold; zero means unset.
	Count int

	// All folds every available patch.
	All bool

	// Rev names the exact patch commits to fold. They must form an
	// unbroken chain from the base.
	Rev string
}

// foldedPatch is one computed patch file awaiting writing.
type foldedPatch struct {
	name    string
	content string
	diff    string
}

// Fold collapses a chain of patch commits into Quilt patch files and a
// single updated base commit, then rebases any other descendants onto it.
func (e *Engine) Fold(ctx context.Context, opts FoldOptions) error {
	if opts.Count < 0 {
		e.warnf("--count must be positive")
		return nil
	}
	count := opts.Count
	if opts.Rev == "" && !opts.All && count == 0 {
		count = 1
	}
	if opts.Rev != "" && opts.All {
		return fmt.Errorf("%w: cannot provide both --rev and --all", ErrValidation)
	}
	if opts.Rev != "" && opts.Count != 0 {
		return fmt.Errorf("%w: cannot provide both --rev and --count", ErrValidation)
	}

	root, err := e.ResolveRoot(ctx, opts.Root)
	if err != nil {
		return err
	}

	return e.Backend.Transact(ctx, "fold", func(ctx context.Context) error {
		return e.fold(ctx, opts, root, count)
	})
}

func (e *Engine) fold(ctx context.Context, opts FoldOptions, root Root, count int) error {
	if err := e.checkPreconditions(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(root.SeriesPath); err != nil {
		return fmt.Errorf("%w: %s: no such file", ErrPrecondition, root.SeriesPath)
	}

	var explicit []vcs.Commit
	if opts.Rev != "" {
		revs, err := e.Backend.Resolve(ctx, opts.Rev)
		if err != nil {
			return err
		}
		if len(revs) == 0 {
			e.warnf("no patches to fold")
			return nil
		}
		sorted, ok := sortChain(revs)
		if !ok {
			return fmt.Errorf("%w: --rev patches must be linear", ErrClassification)
		}
		explicit = sorted
	}

	orig, err := e.Backend.Head(ctx)
	if err != nil {
		return err
	}

	target, createNew, err := e.resolveFoldTarget(ctx, opts, explicit, orig)
	if err != nil {
		return err
	}

	chain, err := e.resolveFoldChain(ctx, target, explicit, count, opts.All)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		e.warnf("no patches to fold")
		return nil
	}
	e.Logger.Printf("fold: %d patches into %s (createNew=%v)", len(chain), vcs.ShortID(target.ID), createNew)
	e.statusf("folding %d patch%s into %q", len(chain), pluralize(len(chain), "es"), root.Rel)

	patches, err := e.computePatches(ctx, chain, root)
	if err != nil {
		return err
	}

	// Capture the later rebase targets before any rewriting happens.
	childIDs, err := e.rebaseCandidates(ctx, chain)
	if err != nil {
		return err
	}

	if createNew {
		e.statusf("creating quahog changeset")
		if err := e.Backend.Checkout(ctx, target.ID); err != nil {
			return err
		}
		newBase, err := e.Backend.Commit(ctx, vcs.CommitOptions{
			Message:    baseMessage(root.Rel),
			AllowEmpty: true,
		})
		if err != nil {
			return err
		}
		e.statusf("rebasing patches to quahog changeset")
		if err := e.Backend.Rebase(ctx, commitIDs(chain), newBase.ID); err != nil {
			return err
		}
		// Every identity captured before the rebase must re-resolve
		// through the rewrite's successor mapping.
		for i := range chain {
			if chain[i], err = e.successor(ctx, chain[i].ID); err != nil {
				return err
			}
		}
		for i := range childIDs {
			c, err := e.successor(ctx, childIDs[i])
			if err != nil {
				return err
			}
			childIDs[i] = c.ID
		}
		target = newBase
	}

	folded, err := e.Backend.Fold(ctx, append([]string{target.ID}, commitIDs(chain)...), target.Description)
	if err != nil {
		return err
	}
	if err := e.Backend.Checkout(ctx, folded.ID); err != nil {
		return err
	}

	if err := e.writePatches(ctx, patches, root); err != nil {
		return err
	}

	amended, err := e.Backend.Amend(ctx, folded.ID)
	if err != nil {
		return err
	}

	if len(childIDs) > 0 {
		if err := e.Backend.Rebase(ctx, childIDs, amended.ID); err != nil {
			return err
		}
	}

	restored, err := e.reresolve(ctx, orig.ID)
	if err != nil {
		return err
	}
	return e.Backend.Checkout(ctx, restored.ID)
}

// resolveFoldTarget picks the base commit to fold into. Precedence: explicit
// --to, then the explicit chain's parent, then walking up from the checkout
// head through mutable patch commits. The boolean result reports whether a
// new base must be synthesized at the returned commit.
func (e *Engine) resolveFoldTarget(ctx context.Context, opts FoldOptions, explicit []vcs.Commit, orig vcs.Commit) (vcs.Commit, bool, error) {
	switch {
	case opts.To != "":
		target, err := e.resolveOne(ctx, opts.To, "--to must specify exactly one rev")
		if err != nil {
			return vcs.Commit{}, false, err
		}
		if !changeset.IsQuahog(target.Description) {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(target, "not a quahog changeset"))
		}
		if target.Phase == vcs.PhasePublic {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(target, "immutable quahog changeset"))
		}
		if len(explicit) > 0 {
			parent, err := e.chainParent(ctx, explicit)
			if err != nil {
				return vcs.Commit{}, false, err
			}
			if parent.ID != target.ID {
				return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
					vcs.RevErr(target, "--to must be parent of --rev"))
			}
		}
		return target, false, nil

	case len(explicit) > 0:
		target, err := e.chainParent(ctx, explicit)
		if err != nil {
			return vcs.Commit{}, false, err
		}
		if changeset.IsPatch(target.Description) {
			return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(target, "--rev parent cannot be a patch"))
		}
		if !changeset.IsQuahog(target.Description) {
			e.warnf("no quahog changeset found in ancestors; creating one")
			return target, true, nil
		}
		if target.Phase == vcs.PhasePublic {
			e.warnf("immutable quahog changeset found; creating new one")
			return target, true, nil
		}
		return target, false, nil

	default:
		target := orig
		for changeset.IsPatch(target.Description) &&
			target.Phase != vcs.PhasePublic &&
			!changeset.IsQuahog(target.Description) {
			if len(target.Parents) > 1 {
				return vcs.Commit{}, false, fmt.Errorf("%w: %s", ErrClassification,
					vcs.RevErr(target, "multiple parents"))
			}
			if len(target.Parents) == 0 {
				break
			}
			parent, err := e.Backend.Lookup(ctx, target.Parents[0])
			if err != nil {
				return vcs.Commit{}, false, err
			}
			target = parent
		}
		if !changeset.IsQuahog(target.Description) {
			e.warnf("no quahog changeset found in ancestors; creating one")
			return target, true, nil
		}
		if target.Phase == vcs.PhasePublic {
			e.warnf("immutable quahog changeset found; creating new one")
			return target, true, nil
		}
		return target, false, nil
	}
}

// chainParent returns the first parent of an explicit chain's root commit.
func (e *Engine) chainParent(ctx context.Context, chain []vcs.Commit) (vcs.Commit, error) {
	if len(chain[0].Parents) == 0 {
		return vcs.Commit{}, fmt.Errorf("%w: %s", ErrClassification,
			vcs.RevErr(chain[0], "chain root has no parent"))
	}
	return e.Backend.Lookup(ctx, chain[0].Parents[0])
}

// resolveFoldChain validates an explicit chain or walks the default one.
func (e *Engine) resolveFoldChain(ctx context.Context, target vcs.Commit, explicit []vcs.Commit, count int, all bool) ([]vcs.Commit, error) {
	if len(explicit) > 0 {
		for _, c := range explicit {
			if !changeset.IsPatch(c.Description) {
				return nil, fmt.Errorf("%w: %s", ErrClassification,
					vcs.RevErr(c, "must be quahog patch to fold"))
			}
			if c.Phase == vcs.PhasePublic {
				return nil, fmt.Errorf("%w: %s", ErrClassification,
					vcs.RevErr(c, "cannot fold immutable patch"))
			}
		}
		return explicit, nil
	}
	return e.walkPatchChildren(ctx, target, count, all)
}

// computePatches converts the chain members into named Quilt patch file
// contents, in chain order.
func (e *Engine) computePatches(ctx context.Context, chain []vcs.Commit, root Root) ([]foldedPatch, error) {
	patches := make([]foldedPatch, 0, len(chain))
	for _, c := range chain {
		rawName, ok := changeset.PatchName(c.Description)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInternalInvariant,
				vcs.RevErr(c, "patch commit lost its header"))
		}
		name := changeset.NormalizeName(rawName)
		if name != rawName {
			e.warnf("rewriting patch %q to %q", rawName, name)
		}

		diff, err := e.Backend.Diff(ctx, c.ID, root.Rel)
		if err != nil {
			return nil, err
		}
		quilt := patchcodec.ToQuiltPatch(diff, root.Rel)

		content := quilt
		if body := changeset.Body(c.Description); body != "" {
			content = body + "\n\n" + quilt
		}
		patches = append(patches, foldedPatch{name: name, content: content, diff: quilt})
	}
	return patches, nil
}

// writePatches writes the patch files, marks them tracked, and appends their
// names to the series file in one atomic append.
func (e *Engine) writePatches(ctx context.Context, patches []foldedPatch, root Root) error {
	names := make([]string, 0, len(patches))
	relPaths := make([]string, 0, len(patches))
	for _, p := range patches {
		if stats, err := patchcodec.Stat(p.diff); err == nil {
			e.statusf("folding patch %q (%d file%s, %d hunk%s)", p.name,
				stats.Files, pluralize(stats.Files, "s"), stats.Hunks, pluralize(stats.Hunks, "s"))
		} else {
			e.statusf("folding patch %q", p.name)
		}
		if err := os.WriteFile(filepath.Join(root.PatchesDir, p.name), []byte(p.content), 0o644); err != nil {
			return err
		}
		names = append(names, p.name)
		relPaths = append(relPaths, root.RelPatch(p.name))
	}

	if err := e.Backend.Track(ctx, relPaths); err != nil {
		return err
	}

	sf, err := series.Load(root.SeriesPath)
	if err != nil {
		return err
	}
	return sf.Append(names)
}

func commitIDs(commits []vcs.Commit) []string {
	ids := make([]string, len(commits))
	for i, c := range commits {
		ids[i] = c.ID
	}
	return ids
}
