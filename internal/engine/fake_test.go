package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/quahogtools/quahog/internal/applier"
	"github.com/quahogtools/quahog/internal/vcs"
)

// fakeCommit is one node of an in-memory test graph.
type fakeCommit struct {
	ID      string   `yaml:"id"`
	Desc    string   `yaml:"desc"`
	Parents []string `yaml:"parents"`
	Public  bool     `yaml:"public"`
	Diff    string   `yaml:"diff"`
}

// fakeGraph is the yaml fixture shape.
type fakeGraph struct {
	Head    string        `yaml:"head"`
	Commits []*fakeCommit `yaml:"commits"`
}

// fakeBackend implements vcs.Backend over an in-memory commit graph. Change
// identities are stable across Amend and Rebase, matching the jj backend;
// commits removed by Fold resolve through the successors map.
type fakeBackend struct {
	root       string
	commits    map[string]*fakeCommit
	order      []string
	head       string
	successors map[string]string
	nextID     int

	// successorSets overrides SuccessorsOf for specific ids, letting a
	// test record a divergent or split rewrite outcome.
	successorSets map[string][][]string

	// stagedDiff is attached to the next created commit, simulating
	// working-copy content accumulated by an applier.
	stagedDiff string

	dirty      bool
	unfinished bool

	tracked   [][]string
	forgotten [][]string
}

var _ vcs.Backend = (*fakeBackend)(nil)

// loadGraph builds a fake backend from a yaml fixture rooted at dir.
func loadGraph(t *testing.T, dir, fixture string) *fakeBackend {
	t.Helper()
	var g fakeGraph
	if err := yaml.Unmarshal([]byte(fixture), &g); err != nil {
		t.Fatalf("Failed to parse graph fixture: %v", err)
	}
	f := &fakeBackend{
		root:          dir,
		commits:       make(map[string]*fakeCommit),
		successors:    make(map[string]string),
		successorSets: make(map[string][][]string),
		head:          g.Head,
	}
	for _, c := range g.Commits {
		f.commits[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	if _, ok := f.commits[f.head]; !ok {
		t.Fatalf("Fixture head %q not in graph", f.head)
	}
	return f
}

func (f *fakeBackend) toCommit(c *fakeCommit) vcs.Commit {
	phase := vcs.PhaseDraft
	if c.Public {
		phase = vcs.PhasePublic
	}
	return vcs.Commit{
		ID:          c.ID,
		Description: c.Desc,
		Parents:     append([]string(nil), c.Parents...),
		Phase:       phase,
	}
}

func (f *fakeBackend) Root() (string, error) {
	return f.root, nil
}

func (f *fakeBackend) Head(ctx context.Context) (vcs.Commit, error) {
	return f.Lookup(ctx, f.head)
}

// Resolve treats the revset as "|"-separated commit IDs; unknown IDs simply
// match nothing.
func (f *fakeBackend) Resolve(ctx context.Context, revset string) ([]vcs.Commit, error) {
	var commits []vcs.Commit
	for _, id := range strings.Split(revset, "|") {
		if c, ok := f.commits[strings.TrimSpace(id)]; ok {
			commits = append(commits, f.toCommit(c))
		}
	}
	return commits, nil
}

func (f *fakeBackend) Lookup(ctx context.Context, id string) (vcs.Commit, error) {
	c, ok := f.commits[id]
	if !ok {
		return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
	}
	return f.toCommit(c), nil
}

func (f *fakeBackend) Children(ctx context.Context, id string) ([]vcs.Commit, error) {
	var children []vcs.Commit
	for _, cid := range f.order {
		c, ok := f.commits[cid]
		if !ok {
			continue
		}
		for _, p := range c.Parents {
			if p == id {
				children = append(children, f.toCommit(c))
				break
			}
		}
	}
	return children, nil
}

func (f *fakeBackend) SuccessorsOf(ctx context.Context, id string) ([][]string, error) {
	cur := id
	for {
		if sets, ok := f.successorSets[cur]; ok {
			return sets, nil
		}
		if _, ok := f.commits[cur]; ok {
			return [][]string{{cur}}, nil
		}
		next, ok := f.successors[cur]
		if !ok {
			return nil, nil
		}
		cur = next
	}
}

func (f *fakeBackend) Checkout(ctx context.Context, id string) error {
	if _, ok := f.commits[id]; !ok {
		return fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
	}
	f.head = id
	return nil
}

func (f *fakeBackend) Commit(ctx context.Context, opts vcs.CommitOptions) (vcs.Commit, error) {
	f.nextID++
	c := &fakeCommit{
		ID:      fmt.Sprintf("c%d", f.nextID),
		Desc:    opts.Message,
		Parents: []string{f.head},
		Diff:    f.stagedDiff,
	}
	f.stagedDiff = ""
	f.commits[c.ID] = c
	f.order = append(f.order, c.ID)
	f.head = c.ID
	return f.toCommit(c), nil
}

func (f *fakeBackend) Amend(ctx context.Context, id string) (vcs.Commit, error) {
	c, ok := f.commits[id]
	if !ok {
		return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
	}
	f.stagedDiff = ""
	return f.toCommit(c), nil
}

func (f *fakeBackend) Fold(ctx context.Context, ids []string, message string) (vcs.Commit, error) {
	if len(ids) == 0 {
		return vcs.Commit{}, fmt.Errorf("nothing to fold")
	}
	dest, ok := f.commits[ids[0]]
	if !ok {
		return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, ids[0])
	}
	removed := make(map[string]bool)
	for _, id := range ids[1:] {
		if _, ok := f.commits[id]; !ok {
			return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
		}
		delete(f.commits, id)
		f.successors[id] = dest.ID
		removed[id] = true
	}
	// Orphaned children land on the fold destination.
	for _, c := range f.commits {
		for i, p := range c.Parents {
			if removed[p] {
				c.Parents[i] = dest.ID
			}
		}
	}
	if removed[f.head] {
		f.head = dest.ID
	}
	dest.Desc = message
	return f.toCommit(dest), nil
}

func (f *fakeBackend) Rebase(ctx context.Context, source []string, dest string) error {
	if _, ok := f.commits[dest]; !ok {
		return fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, dest)
	}
	for _, id := range source {
		c, ok := f.commits[id]
		if !ok {
			return fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
		}
		c.Parents = []string{dest}
	}
	return nil
}

func (f *fakeBackend) Diff(ctx context.Context, id string, scope string) (string, error) {
	c, ok := f.commits[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
	}
	return c.Diff, nil
}

func (f *fakeBackend) Track(ctx context.Context, paths []string) error {
	f.tracked = append(f.tracked, paths)
	return nil
}

func (f *fakeBackend) Forget(ctx context.Context, paths []string) error {
	f.forgotten = append(f.forgotten, paths)
	return nil
}

func (f *fakeBackend) SyncTracking(ctx context.Context) error {
	return nil
}

func (f *fakeBackend) EnsureTracked(ctx context.Context, root string) error {
	return nil
}

func (f *fakeBackend) CheckClean(ctx context.Context) error {
	if f.dirty {
		return vcs.ErrDirtyWorkingCopy
	}
	return nil
}

func (f *fakeBackend) CheckUnfinished(ctx context.Context) error {
	if f.unfinished {
		return vcs.ErrUnfinishedOperation
	}
	return nil
}

// Transact snapshots the graph and restores it when fn fails, mirroring the
// jj backend's op restore rollback.
func (f *fakeBackend) Transact(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	commits    map[string]*fakeCommit
	order      []string
	head       string
	successors map[string]string
	nextID     int
}

func (f *fakeBackend) snapshot() fakeSnapshot {
	s := fakeSnapshot{
		commits:    make(map[string]*fakeCommit, len(f.commits)),
		order:      append([]string(nil), f.order...),
		head:       f.head,
		successors: make(map[string]string, len(f.successors)),
		nextID:     f.nextID,
	}
	for id, c := range f.commits {
		dup := *c
		dup.Parents = append([]string(nil), c.Parents...)
		s.commits[id] = &dup
	}
	for k, v := range f.successors {
		s.successors[k] = v
	}
	return s
}

func (f *fakeBackend) restore(s fakeSnapshot) {
	f.commits = s.commits
	f.order = s.order
	f.head = s.head
	f.successors = s.successors
	f.nextID = s.nextID
}

// applyCall records one applier invocation.
type applyCall struct {
	diff    string
	scope   string
	reverse bool
}

// fakeApplier records applications. Forward applications stage their diff on
// the backend so the next created commit carries it, the way real working-copy
// content flows into a commit. failAt makes the Nth call fail (1-based).
type fakeApplier struct {
	fb     *fakeBackend
	calls  []applyCall
	failAt int
}

var _ applier.Applier = (*fakeApplier)(nil)

func (a *fakeApplier) Apply(ctx context.Context, diff string, scope string, reverse bool) error {
	a.calls = append(a.calls, applyCall{diff: diff, scope: scope, reverse: reverse})
	if a.failAt == len(a.calls) {
		return &applier.ApplyError{
			Args:   []string{"git", "apply"},
			Stderr: "error: corrupt patch",
			Err:    errors.New("exit status 1"),
		}
	}
	if !reverse && a.fb != nil {
		a.fb.stagedDiff = diff
	}
	return nil
}
