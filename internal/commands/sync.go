package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/backup"
	"github.com/diamondstack/diamond/internal/forge"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
)

// SyncResult reports what Sync did, including any branches it thinks
// are safe to delete because their forge PR has merged.
type SyncResult struct {
	restack.Result
	FetchedFrom      string
	MergedCandidates []string
}

// Sync fetches from the configured remote, fast-forwards trunk to the
// remote's tip, and restacks every tracked branch with full scope from
// trunk, applying the scoped-conflict rule (conflicts outside the
// current branch's stack are skipped with a warning; conflicts inside
// it suspend the operation). If forgeReader is non-nil, branches whose
// PR has merged are reported as cleanup candidates - never deleted
// automatically, since PR mutation is outside this program's core.
func (c *Context) Sync(forgeReader forge.Reader) (SyncResult, error) {
	remote := c.Config.Remote
	if err := c.Repo.Fetch(remote); err != nil {
		return SyncResult{}, err
	}

	trunk, err := c.Store.Trunk()
	if err != nil {
		return SyncResult{}, err
	}
	tracking := c.Repo.RemoteTrackingRef(remote, trunk)
	if tracking != "" {
		tip, err := c.Repo.RevParse(tracking)
		if err != nil {
			return SyncResult{}, err
		}
		if err := c.Repo.FastForward(trunk, tip); err != nil {
			return SyncResult{}, err
		}
	}

	forest, err := c.Forest()
	if err != nil {
		return SyncResult{}, err
	}
	current, err := c.Repo.CurrentBranch()
	if err != nil {
		current = trunk
	}
	branches := forest.TopoSort(forest.AllTracked())

	if err := c.requireClean(); err != nil {
		return SyncResult{}, err
	}
	if err := c.requireNoOperation(); err != nil {
		return SyncResult{}, err
	}

	var result restack.Result
	if len(branches) > 0 {
		if err := c.requireNoFrozenIn(branches); err != nil {
			return SyncResult{}, err
		}

		tag, err := backup.CreateBatch(c.Repo, branches)
		if err != nil {
			return SyncResult{}, err
		}

		steps, err := restack.Plan(c.Repo, forest, branches)
		if err != nil {
			return SyncResult{}, err
		}
		state := opstate.NewRestackState(opstate.KindSync, current, steps, tag)
		result, err = restack.Run(c.Repo, c.Store, c.OpState, state, restack.ScopeFull, current)
		if err != nil {
			return SyncResult{}, err
		}
		switch result.Outcome {
		case restack.OutcomeCompleted:
			summary := "synced from " + remote
			if len(result.SkippedBranches) > 0 {
				summary += fmt.Sprintf(" (skipped: %v)", result.SkippedBranches)
			}
			if err := c.appendLog("sync", summary, branches, "success", backupsOf(tag)); err != nil {
				return SyncResult{}, err
			}
		case restack.OutcomeConflicted:
			_ = c.appendLog("sync", "sync suspended on conflict at "+result.ConflictedOn, branches, "suspended", backupsOf(tag))
			return SyncResult{Result: result, FetchedFrom: remote}, fmt.Errorf("branch %s has conflicts; resolve, stage, then run continue", result.ConflictedOn)
		}
	}

	out := SyncResult{Result: result, FetchedFrom: remote}
	if forgeReader != nil {
		out.MergedCandidates = c.mergedCandidates(forgeReader, branches)
	}
	return out, nil
}

func (c *Context) mergedCandidates(reader forge.Reader, branches []string) []string {
	var merged []string
	for _, b := range branches {
		pr, err := reader.PRForBranch(b)
		if err != nil || pr == nil {
			continue
		}
		if pr.State == "merged" {
			merged = append(merged, b)
		}
	}
	return merged
}
