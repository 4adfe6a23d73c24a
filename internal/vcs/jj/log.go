package jj

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quahogtools/quahog/internal/vcs"
)

// logTemplate renders one space-separated record per commit. The description
// goes last and is JSON-escaped so it survives embedded whitespace.
var logTemplate = strings.Join([]string{
	"change_id.short()",
	"immutable",
	"divergent",
	"empty",
	`if(parents, parents.map(|c| c.change_id().short()).join(","), "-")`,
	"description.escape_json()",
	`"\n"`,
}, `++" "++`)

// logEntry is one parsed record, carrying jj-specific state that the
// vcs.Commit type does not expose.
type logEntry struct {
	commit    vcs.Commit
	divergent bool
	empty     bool
}

// parseLogOutput parses the output of "jj log --no-graph" rendered with
// logTemplate.
func parseLogOutput(out string) ([]logEntry, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	var entries []logEntry
	for _, record := range strings.Split(out, "\n") {
		parts := strings.SplitN(record, " ", 6)
		if len(parts) < 6 {
			return nil, fmt.Errorf("unexpected log record format: %q", record)
		}

		var description string
		if err := json.Unmarshal([]byte(parts[5]), &description); err != nil {
			return nil, fmt.Errorf("bad description encoding in %q: %w", record, err)
		}

		phase := vcs.PhaseDraft
		if parts[1] == "true" {
			phase = vcs.PhasePublic
		}

		var parents []string
		if parts[4] != "-" {
			parents = strings.Split(parts[4], ",")
		}

		entries = append(entries, logEntry{
			commit: vcs.Commit{
				ID:          parts[0],
				Description: description,
				Parents:     parents,
				Phase:       phase,
			},
			divergent: parts[2] == "true",
			empty:     parts[3] == "true",
		})
	}
	return entries, nil
}

// logEntries runs jj log for a revset and parses the records.
func (j *JJ) logEntries(ctx context.Context, revset string) ([]logEntry, error) {
	out, err := j.execString(ctx, "log", "--no-graph", "--template", logTemplate, "-r", revset)
	if err != nil {
		return nil, fmt.Errorf("failed to query revset %q: %w", revset, err)
	}
	return parseLogOutput(out)
}

// Resolve resolves a revset expression to commits in jj's default log order
// (descendants first).
func (j *JJ) Resolve(ctx context.Context, revset string) ([]vcs.Commit, error) {
	entries, err := j.logEntries(ctx, revset)
	if err != nil {
		return nil, err
	}
	commits := make([]vcs.Commit, len(entries))
	for i, e := range entries {
		commits[i] = e.commit
	}
	return commits, nil
}

// Lookup returns a single commit by ID.
func (j *JJ) Lookup(ctx context.Context, id string) (vcs.Commit, error) {
	commits, err := j.Resolve(ctx, id)
	if err != nil {
		return vcs.Commit{}, err
	}
	if len(commits) == 0 {
		return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrEmptyRevset, id)
	}
	if len(commits) > 1 {
		return vcs.Commit{}, fmt.Errorf("%w: %s", vcs.ErrAmbiguousRevset, id)
	}
	return commits[0], nil
}

// Children returns the commits whose parent set includes id.
func (j *JJ) Children(ctx context.Context, id string) ([]vcs.Commit, error) {
	return j.Resolve(ctx, fmt.Sprintf("children(%s)", id))
}

// Head returns the commit the working copy is logically checked out at.
// While @ is an empty, undescribed working commit with a single parent, the
// parent is the head; otherwise @ itself is.
func (j *JJ) Head(ctx context.Context) (vcs.Commit, error) {
	entries, err := j.logEntries(ctx, "@")
	if err != nil {
		return vcs.Commit{}, err
	}
	if len(entries) != 1 {
		return vcs.Commit{}, fmt.Errorf("expected one working-copy commit, got %d", len(entries))
	}
	wc := entries[0]
	if wc.empty && wc.commit.Description == "" && len(wc.commit.Parents) == 1 {
		return j.Lookup(ctx, wc.commit.Parents[0])
	}
	return wc.commit, nil
}

// SuccessorsOf returns the successor sets for a possibly-rewritten commit.
//
// jj change IDs are stable across rewrites, so a live commit resolves to
// itself. A divergent change (multiple visible commits sharing the ID)
// reports one singleton set per visible commit; a hidden change reports no
// sets.
func (j *JJ) SuccessorsOf(ctx context.Context, id string) ([][]string, error) {
	entries, err := j.logEntries(ctx, id)
	if err != nil {
		// An unresolvable ID means the change was abandoned outright.
		if strings.Contains(err.Error(), "doesn't exist") {
			return nil, nil
		}
		return nil, err
	}
	sets := make([][]string, len(entries))
	for i, e := range entries {
		sets[i] = []string{e.commit.ID}
	}
	return sets, nil
}
