package commands

import "github.com/diamondstack/diamond/internal/dmderrors"

// InitializeOptions configures Initialize.
type InitializeOptions struct {
	// Trunk is the explicit trunk branch name; if empty, main then
	// master are tried.
	Trunk string
	// Reset wipes every parent/frozen ref before reinitializing. The
	// trunk ref is not deleted; it is overwritten once the new trunk is
	// resolved, so it keeps its old value if Initialize fails first.
	Reset bool
}

// Initialize sets the trunk ref. It is idempotent: calling it again
// with the same trunk is a no-op beyond re-asserting the ref.
func (c *Context) Initialize(opts InitializeOptions) (string, error) {
	if opts.Reset {
		tracked, err := c.Store.TrackedBranches()
		if err != nil {
			return "", err
		}
		for _, b := range tracked {
			if err := c.Store.DeleteParent(b); err != nil {
				return "", err
			}
		}
		frozen, err := c.Store.FrozenBranches()
		if err != nil {
			return "", err
		}
		for _, b := range frozen {
			if err := c.Store.SetFrozen(b, false); err != nil {
				return "", err
			}
		}
	}

	trunk := opts.Trunk
	if trunk == "" {
		for _, candidate := range []string{"main", "master"} {
			if c.Repo.BranchExists(candidate) {
				trunk = candidate
				break
			}
		}
	}
	if trunk == "" {
		return "", dmderrors.PreconditionErrorf("trunk", "could not be determined", "neither main nor master exists; pass an explicit trunk name")
	}
	if !c.Repo.BranchExists(trunk) {
		return "", dmderrors.PreconditionErrorf("branch "+trunk, "does not exist", "")
	}

	if err := c.Store.SetTrunk(trunk); err != nil {
		return "", err
	}
	if err := c.appendLog("init", "initialized trunk "+trunk, []string{trunk}, "success", nil); err != nil {
		return "", err
	}
	return trunk, nil
}
