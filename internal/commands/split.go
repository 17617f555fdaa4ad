package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/stackmodel"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// SplitCommitGroup names a new branch and the contiguous run of
// commits (oldest first) it should carry.
type SplitCommitGroup struct {
	Name    string
	Commits []gitx.Hash
}

// SplitFileGroup names a new branch and the pathspecs whose changes it
// should carry.
type SplitFileGroup struct {
	Name     string
	Patterns []string
}

// HunkSelector lets an interactive front end choose which staged-diff
// hunks go to which new branch name, in stack order. It is supplied by
// the CLI layer (internal/uiutil/hunkpicker), never invoked directly
// by this package's tests.
type HunkSelector func(patch string) ([]SplitFileGroup, error)

// SplitByCommit partitions the current branch's commits (since its
// parent's merge base) into groups, each becoming a new branch stacked
// in the given order between the parent and the (now removed) original
// branch. Groups must cover every commit exactly once, in order.
func (c *Context) SplitByCommit(groups []SplitCommitGroup) error {
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	current, forest, parent, err := c.splitPreamble()
	if err != nil {
		return err
	}

	base, err := c.Repo.MergeBase(current, parent)
	if err != nil {
		return err
	}
	all, err := c.Repo.CommitsBetween(string(base), current)
	if err != nil {
		return err
	}
	if err := validateCommitPartition(all, groups); err != nil {
		return err
	}

	newBranches, err := c.buildCommitChain(parent, groups)
	if err != nil {
		return err
	}
	return c.finishSplit(forest, current, newBranches)
}

// SplitByFile partitions the current branch's changes since its
// parent into one new commit per group, selected by pathspec, stacked
// in the given order.
func (c *Context) SplitByFile(groups []SplitFileGroup) error {
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	current, forest, parent, err := c.splitPreamble()
	if err != nil {
		return err
	}

	newBranches, err := c.buildFileChain(parent, current, groups)
	if err != nil {
		return err
	}
	return c.finishSplit(forest, current, newBranches)
}

// SplitByHunk requires an interactive terminal; select picks which
// hunks of the current branch's cumulative diff go to which new branch.
func (c *Context) SplitByHunk(select_ HunkSelector) error {
	if !uiutil.IsInteractive() {
		return dmderrors.PreconditionErrorf("split --by-hunk", "requires an interactive terminal", "pass --by-file or --by-commit instead")
	}
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	current, forest, parent, err := c.splitPreamble()
	if err != nil {
		return err
	}

	patch, err := c.Repo.DiffPatch(parent, current, nil)
	if err != nil {
		return err
	}
	groups, err := select_(patch)
	if err != nil {
		return err
	}

	newBranches, err := c.buildFileChain(parent, current, groups)
	if err != nil {
		return err
	}
	return c.finishSplit(forest, current, newBranches)
}

func (c *Context) splitPreamble() (current string, forest *stackmodel.Forest, parent string, err error) {
	current, err = c.Repo.CurrentBranch()
	if err != nil {
		return "", nil, "", err
	}
	f, err := c.Forest()
	if err != nil {
		return "", nil, "", err
	}
	p, ok := f.Parent(current)
	if !ok {
		return "", nil, "", notTrackedErr(current)
	}
	if err := c.requireUnfrozen(current); err != nil {
		return "", nil, "", err
	}
	return current, f, p, nil
}

func validateCommitPartition(all []gitx.Hash, groups []SplitCommitGroup) error {
	var flat []gitx.Hash
	for _, g := range groups {
		if len(g.Commits) == 0 {
			return dmderrors.PreconditionErrorf("split group "+g.Name, "has no commits", "")
		}
		flat = append(flat, g.Commits...)
	}
	if len(flat) != len(all) {
		return dmderrors.PreconditionErrorf("split groups", "do not cover every commit exactly once", "expected %d commits, got %d", len(all), len(flat))
	}
	for i, h := range all {
		if flat[i] != h {
			return dmderrors.PreconditionErrorf("split groups", "are out of order relative to commit history", "at position %d", i)
		}
	}
	return nil
}

// buildCommitChain creates one branch per group, each stacked on the
// previous (the first on parent), cherry-picking that group's commits
// onto it in order.
func (c *Context) buildCommitChain(parent string, groups []SplitCommitGroup) ([]string, error) {
	cursor := parent
	var created []string
	for _, g := range groups {
		if err := c.Repo.CreateBranch(g.Name, gitx.Hash(cursor)); err != nil {
			return created, err
		}
		if err := c.Repo.Checkout(g.Name); err != nil {
			return created, err
		}
		for _, commit := range g.Commits {
			result, err := c.Repo.CherryPick(commit)
			if err != nil {
				return created, err
			}
			if result.Outcome == gitx.RebaseConflicted {
				return created, dmderrors.Wrap(dmderrors.KindConflict, "split", fmt.Sprintf("cherry-picking %s onto %s conflicted", commit, g.Name), fmt.Errorf("%v", result.ConflictedFiles))
			}
		}
		if err := c.Store.SetParent(g.Name, cursor, ""); err != nil {
			return created, err
		}
		created = append(created, g.Name)
		cursor = g.Name
	}
	return created, nil
}

// buildFileChain creates one branch per group, stacked in order, each
// carrying current's changes restricted to that group's pathspecs.
func (c *Context) buildFileChain(parent, current string, groups []SplitFileGroup) ([]string, error) {
	cursor := parent
	var created []string
	for _, g := range groups {
		patch, err := c.Repo.DiffPatch(cursor, current, g.Patterns)
		if err != nil {
			return created, err
		}
		if err := c.Repo.CreateBranch(g.Name, gitx.Hash(cursor)); err != nil {
			return created, err
		}
		if err := c.Repo.Checkout(g.Name); err != nil {
			return created, err
		}
		if err := c.Repo.ApplyPatch(patch, true); err != nil {
			return created, dmderrors.Wrap(dmderrors.KindConflict, "split", "applying "+g.Name+"'s patch failed", err)
		}
		if err := c.Repo.Commit("split: " + g.Name); err != nil {
			return created, err
		}
		if err := c.Store.SetParent(g.Name, cursor, ""); err != nil {
			return created, err
		}
		created = append(created, g.Name)
		cursor = g.Name
	}
	return created, nil
}

// finishSplit reparents current's former children onto the top of the
// new chain, deletes current, and restacks everything downstream.
func (c *Context) finishSplit(forest *stackmodel.Forest, current string, newBranches []string) error {
	if len(newBranches) == 0 {
		return dmderrors.PreconditionErrorf("split", "produced no branches", "")
	}
	top := newBranches[len(newBranches)-1]
	for _, child := range forest.Children(current) {
		if err := c.Store.SetParent(child, top, current); err != nil {
			return err
		}
	}
	if err := checkoutIfCurrent(c.Repo, current, top); err != nil {
		return err
	}
	if err := c.Repo.DeleteBranch(current, true); err != nil {
		return err
	}
	if err := c.Store.DeleteParent(current); err != nil {
		return err
	}
	if err := c.Store.SetFrozen(current, false); err != nil {
		return err
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	affected := append([]string{}, newBranches...)
	affected = append(affected, newForest.Descendants(top)...)
	summary := fmt.Sprintf("split %s into %v", current, newBranches)
	return c.runRestack(opstate.KindRestack, current, newForest, affected, restack.ScopeStack, "split", summary)
}
