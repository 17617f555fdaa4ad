package commands

import "github.com/diamondstack/diamond/internal/dmderrors"

// Rename renames branch to newName, updating its own parent ref key
// and every other branch's parent value that named the old name
// (refstore.Rename handles both).
func (c *Context) Rename(branch, newName string) error {
	if !c.Repo.BranchExists(branch) {
		return dmderrors.PreconditionErrorf("branch "+branch, "does not exist", "")
	}
	if c.Repo.BranchExists(newName) {
		return dmderrors.PreconditionErrorf("branch "+newName, "already exists", "")
	}
	trunk, err := c.Store.Trunk()
	if err != nil {
		return err
	}
	isTrunk := branch == trunk

	if err := c.Repo.RenameBranch(branch, newName); err != nil {
		return err
	}
	if isTrunk {
		if err := c.Store.SetTrunk(newName); err != nil {
			return err
		}
	} else if err := c.Store.Rename(branch, newName); err != nil {
		return err
	}
	return c.appendLog("rename", "renamed "+branch+" to "+newName, []string{newName}, "success", nil)
}
