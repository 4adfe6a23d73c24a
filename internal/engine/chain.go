package engine

import (
	"context"
	"fmt"

	"github.com/quahogtools/quahog/internal/changeset"
	"github.com/quahogtools/quahog/internal/vcs"
)

// sortChain orders commits into one unbroken parent-to-child line. It returns
// false when the set has no single root, branches, or contains unrelated
// commits.
func sortChain(commits []vcs.Commit) ([]vcs.Commit, bool) {
	if len(commits) <= 1 {
		return commits, true
	}

	inSet := make(map[string]vcs.Commit, len(commits))
	for _, c := range commits {
		inSet[c.ID] = c
	}

	// The root is the one commit with no parent inside the set.
	var root vcs.Commit
	roots := 0
	for _, c := range commits {
		internal := false
		for _, p := range c.Parents {
			if _, ok := inSet[p]; ok {
				internal = true
				break
			}
		}
		if !internal {
			root = c
			roots++
		}
	}
	if roots != 1 {
		return nil, false
	}

	// Walk child links; each step must find exactly one child in the set.
	sorted := []vcs.Commit{root}
	current := root
	for len(sorted) < len(commits) {
		var next vcs.Commit
		found := 0
		for _, c := range commits {
			if c.ID == current.ID {
				continue
			}
			for _, p := range c.Parents {
				if p == current.ID {
					next = c
					found++
					break
				}
			}
		}
		if found != 1 {
			return nil, false
		}
		sorted = append(sorted, next)
		current = next
	}
	return sorted, true
}

// walkPatchChildren collects the patch chain hanging off from: at each step
// the current commit must have at most one patch-kind child. The walk stops
// when count commits are collected (all=false) or when no patch child
// remains.
func (e *Engine) walkPatchChildren(ctx context.Context, from vcs.Commit, count int, all bool) ([]vcs.Commit, error) {
	var chain []vcs.Commit
	current := from
	for all || len(chain) != count {
		children, err := e.Backend.Children(ctx, current.ID)
		if err != nil {
			return nil, err
		}

		var patches []vcs.Commit
		for _, c := range children {
			if changeset.IsPatch(c.Description) {
				patches = append(patches, c)
			}
		}
		if len(patches) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrClassification,
				vcs.RevErr(current, "ambiguous chain: multiple patch children"))
		}
		if len(patches) == 0 {
			break
		}
		current = patches[0]
		chain = append(chain, current)
	}
	return chain, nil
}

// rebaseCandidates returns the non-public children of the chain members,
// excluding chain members themselves, in discovery order without
// duplicates. These are the commits to rebase after the fold.
func (e *Engine) rebaseCandidates(ctx context.Context, chain []vcs.Commit) ([]string, error) {
	member := make(map[string]bool, len(chain))
	for _, c := range chain {
		member[c.ID] = true
	}

	var ids []string
	seen := make(map[string]bool)
	for _, c := range chain {
		children, err := e.Backend.Children(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if child.Phase == vcs.PhasePublic || member[child.ID] || seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			ids = append(ids, child.ID)
		}
	}
	return ids, nil
}
