package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

// Squash collapses every commit the current branch has made since its
// parent's merge base into a single commit, then restacks descendants.
func (c *Context) Squash(message string) error {
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}

	branch, err := c.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	parent, ok := forest.Parent(branch)
	if !ok {
		return notTrackedErr(branch)
	}
	if err := c.requireUnfrozen(branch); err != nil {
		return err
	}

	base, err := c.Repo.MergeBase(branch, parent)
	if err != nil {
		return err
	}
	has, err := c.Repo.HasCommitsBetween(string(base), branch)
	if err != nil {
		return err
	}
	if !has {
		return dmderrors.PreconditionErrorf("branch "+branch, "has no commits to squash", "since %s", parent)
	}
	if message == "" {
		return dmderrors.PreconditionErrorf("squash", "requires a message", "")
	}

	if err := c.Repo.SoftReset(base); err != nil {
		return err
	}
	if err := c.Repo.Commit(message); err != nil {
		return err
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("squashed %s", branch)
	return c.restackSubtree(newForest, branch, branch, "squash", summary)
}
