package commands

import "fmt"

// Move reparents source onto a new target branch and restacks source
// and its descendants. Fails if target is a descendant of source
// (would form a cycle).
func (c *Context) Move(source, target string) error {
	if source == "" {
		var err error
		source, err = c.Repo.CurrentBranch()
		if err != nil {
			return err
		}
	}
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	if !forest.IsKnown(source) {
		return notTrackedErr(source)
	}
	if !forest.IsKnown(target) {
		return notTrackedErr(target)
	}
	if forest.WouldCreateCycle(source, target) {
		return cycleErr(source, target)
	}
	if err := c.requireUnfrozen(source); err != nil {
		return err
	}

	oldParent, _ := forest.Parent(source)
	if err := c.Store.SetParent(source, target, oldParent); err != nil {
		return err
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("moved %s onto %s", source, target)
	return c.restackSubtree(newForest, source, source, "move", summary)
}
