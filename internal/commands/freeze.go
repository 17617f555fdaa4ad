package commands

import "fmt"

// Freeze marks branch (and, if withUpstack, every descendant) frozen.
// Freezing an already-frozen branch is a no-op for that branch.
func (c *Context) Freeze(branch string, withUpstack bool) error {
	return c.setFrozenSet(branch, withUpstack, true, "freeze")
}

// Unfreeze clears the frozen marker from branch (and, if withUpstack,
// every descendant).
func (c *Context) Unfreeze(branch string, withUpstack bool) error {
	return c.setFrozenSet(branch, withUpstack, false, "unfreeze")
}

func (c *Context) setFrozenSet(branch string, withUpstack, frozen bool, logKind string) error {
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	if !forest.IsKnown(branch) {
		return notTrackedErr(branch)
	}
	branches := []string{branch}
	if withUpstack {
		branches = append(branches, forest.Descendants(branch)...)
	}
	for _, b := range branches {
		if err := c.Store.SetFrozen(b, frozen); err != nil {
			return err
		}
	}
	return c.appendLog(logKind, fmt.Sprintf("%s %v", logKind, branches), branches, "success", nil)
}
