package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

// Fold collapses the current branch's commits into its parent's tip.
// By default the parent survives (spec section 9's resolved default);
// passing keepChild=true keeps the child's name instead and removes
// the parent.
func (c *Context) Fold(keepChild bool) error {
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}

	child, err := c.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	parent, ok := forest.Parent(child)
	if !ok {
		return notTrackedErr(child)
	}
	if err := c.requireUnfrozen(child); err != nil {
		return err
	}
	if err := c.requireUnfrozen(parent); err != nil {
		return err
	}

	var survivor, removed string
	if keepChild {
		if parent == forest.Trunk {
			return dmderrors.PreconditionErrorf("branch "+parent, "is trunk", "cannot fold trunk away")
		}
		survivor, removed = child, parent
		grandparent, hasGP := forest.Parent(parent)
		newParent := forest.Trunk
		if hasGP {
			newParent = grandparent
		}
		if err := c.Store.SetParent(child, newParent, parent); err != nil {
			return err
		}
		for _, sibling := range forest.Children(parent) {
			if sibling == child {
				continue
			}
			if err := c.Store.SetParent(sibling, child, parent); err != nil {
				return err
			}
		}
		if err := checkoutIfCurrent(c.Repo, parent, child); err != nil {
			return err
		}
		if err := c.Repo.DeleteBranch(parent, true); err != nil {
			return err
		}
		if err := c.Store.DeleteParent(parent); err != nil {
			return err
		}
		if err := c.Store.SetFrozen(parent, false); err != nil {
			return err
		}
	} else {
		survivor, removed = parent, child
		childTip, err := c.Repo.RevParse(child)
		if err != nil {
			return err
		}
		if err := c.Repo.FastForward(parent, childTip); err != nil {
			return err
		}
		for _, grandchild := range forest.Children(child) {
			if err := c.Store.SetParent(grandchild, parent, child); err != nil {
				return err
			}
		}
		if err := checkoutIfCurrent(c.Repo, child, parent); err != nil {
			return err
		}
		if err := c.Repo.DeleteBranch(child, true); err != nil {
			return err
		}
		if err := c.Store.DeleteParent(child); err != nil {
			return err
		}
		if err := c.Store.SetFrozen(child, false); err != nil {
			return err
		}
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("folded %s into %s, kept %s", removed, survivor, survivor)
	return c.restackSubtree(newForest, survivor, survivor, "fold", summary)
}
