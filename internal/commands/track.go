package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
)

// Track registers an existing git branch as tracked, parented on
// parent (or the current branch if parent is empty). It rejects a
// parent choice that would create a cycle.
func (c *Context) Track(branch, parent string) error {
	if !c.Repo.BranchExists(branch) {
		return dmderrors.PreconditionErrorf("branch "+branch, "does not exist", "")
	}
	if parent == "" {
		current, err := c.Repo.CurrentBranch()
		if err != nil {
			return err
		}
		parent = current
	}
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	if !forest.IsKnown(parent) {
		return notTrackedErr(parent)
	}
	if forest.IsKnown(branch) && forest.WouldCreateCycle(branch, parent) {
		return cycleErr(branch, parent)
	}

	if err := c.Store.SetParent(branch, parent, ""); err != nil {
		return err
	}
	return c.appendLog("track", "tracked "+branch+" on "+parent, []string{branch}, "success", nil)
}

// Untrack removes branch's parent entry and frozen marker, reparenting
// its children onto its former parent so they still reach trunk (spec
// section 4.8).
func (c *Context) Untrack(branch string) error {
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	parent, ok := forest.Parent(branch)
	if !ok {
		return notTrackedErr(branch)
	}
	children := forest.Children(branch)

	for _, child := range children {
		if err := c.Store.SetParent(child, parent, branch); err != nil {
			return err
		}
	}
	if err := c.Store.DeleteParent(branch); err != nil {
		return err
	}
	if err := c.Store.SetFrozen(branch, false); err != nil {
		return err
	}

	if len(children) == 0 {
		return c.appendLog("untrack", "untracked "+branch, []string{branch}, "success", nil)
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	var affected []string
	for _, child := range children {
		affected = append(affected, child)
		affected = append(affected, newForest.Descendants(child)...)
	}
	summary := fmt.Sprintf("untracked %s, reparented %v onto %s", branch, children, parent)
	return c.runRestack(opstate.KindRestack, branch, newForest, affected, restack.ScopeStack, "untrack", summary)
}
