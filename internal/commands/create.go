package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
)

// CreateOptions configures Create.
type CreateOptions struct {
	// From is the commit to create the branch at; HEAD if empty.
	From string
	// Insert, if true, splices the new branch between the current
	// branch and its single tracked child (or Child, if given).
	Insert bool
	// Child names the child to splice under when there would
	// otherwise be more than one, disambiguating Insert.
	Child string
}

// Create adds a new tracked branch parented on the current branch.
func (c *Context) Create(name string, opts CreateOptions) error {
	if err := gitx.ValidateBranchName(name); err != nil {
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
	if !forest.IsKnown(current) {
		return notTrackedErr(current)
	}

	from := opts.From
	if from == "" {
		from = "HEAD"
	}
	at, err := c.Repo.RevParse(from)
	if err != nil {
		return err
	}
	if err := c.Repo.CreateBranch(name, at); err != nil {
		return err
	}
	if err := c.Store.SetParent(name, current, ""); err != nil {
		return err
	}
	if err := c.Repo.Checkout(name); err != nil {
		return err
	}

	if !opts.Insert {
		return c.appendLog("create", "created "+name+" on "+current, []string{name}, "success", nil)
	}

	child := opts.Child
	if child == "" {
		var ok bool
		child, ok = forest.Up(current)
		if !ok {
			return dmderrors.PreconditionErrorf("branch "+current, "has no single child to insert under", "pass an explicit child")
		}
	}
	if err := c.Store.SetParent(child, name, current); err != nil {
		return err
	}
	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("created %s on %s, spliced under %s", name, current, child)
	return c.restackSubtree(newForest, child, name, "create", summary)
}
