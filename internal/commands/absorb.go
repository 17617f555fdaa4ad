package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
)

// Absorb takes the currently staged changes and, for each staged file,
// folds them into the commit in the current branch's own history (since
// its parent's merge base) that last touched the first changed line of
// that file, instead of adding a new commit on top. Hunks are not
// routed separately: all of a file's staged changes go to one commit.
// Descendants are restacked once at the end.
func (c *Context) Absorb() error {
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	current, err := c.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	parent, ok := forest.Parent(current)
	if !ok {
		return notTrackedErr(current)
	}
	if err := c.requireUnfrozen(current); err != nil {
		return err
	}

	files, err := c.Repo.StagedFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return dmderrors.PreconditionErrorf("absorb", "found no staged changes", "stage a diff first")
	}

	base, err := c.Repo.MergeBase(current, parent)
	if err != nil {
		return err
	}
	commits, err := c.Repo.CommitsBetween(string(base), current)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return dmderrors.PreconditionErrorf("absorb", "has no commits on "+current+" to absorb into", "commit normally instead")
	}
	targets, err := c.blameTargets(current, files, commits)
	if err != nil {
		return err
	}

	for _, target := range targets {
		if err := c.Repo.FixupCommit(target); err != nil {
			return err
		}
	}
	result, err := c.Repo.AutosquashRebase(string(base))
	if err != nil {
		return err
	}
	if result.Outcome == gitx.RebaseConflicted {
		return dmderrors.Wrap(dmderrors.KindConflict, "absorb", "autosquash rebase produced conflicts", fmt.Errorf("%v", result.ConflictedFiles))
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("absorbed staged changes into %s", current)
	return c.restackSubtree(newForest, current, current, "absorb", summary)
}

// blameTargets resolves, for each staged file, the commit its changed
// lines were last touched by (restricted to commits belonging to the
// current branch's own segment); files whose lines were last touched
// outside that segment fall back to the branch's newest commit, so the
// fixup still lands somewhere valid.
func (c *Context) blameTargets(current string, files []string, commits []gitx.Hash) ([]gitx.Hash, error) {
	ownCommit := make(map[gitx.Hash]bool, len(commits))
	for _, h := range commits {
		ownCommit[h] = true
	}
	newest := commits[len(commits)-1]
	var targets []gitx.Hash
	seen := map[gitx.Hash]bool{}
	for _, file := range files {
		start, _, ok, err := c.Repo.StagedOldLineRange(file)
		target := newest
		if ok {
			if err != nil {
				return nil, err
			}
			blamed, err := c.Repo.BlameCommitAt(current, file, start)
			if err == nil && blamed != "" && ownCommit[blamed] {
				target = blamed
			}
		} else if err != nil {
			return nil, err
		}
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets, nil
}
