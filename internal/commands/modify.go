package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

// ModifyMode selects how Modify folds the working tree's changes into
// a commit.
type ModifyMode int

const (
	// ModifyAmend amends the target branch's tip commit.
	ModifyAmend ModifyMode = iota
	// ModifyCommit creates a new commit on the target branch.
	ModifyCommit
)

// ModifyOptions configures Modify.
type ModifyOptions struct {
	Mode    ModifyMode
	Message string
	// Into names an ancestor branch to modify instead of the current
	// one. The current worktree's changes are stashed, applied against
	// Into, and committed or amended there (per Mode); the original
	// branch is then checked out again before restacking. The changes
	// end up in Into's commit, not back in the worktree.
	Into string
}

// Modify stages every change to tracked files (if the tree is dirty),
// commits or amends, then restacks every descendant of the branch that
// changed.
func (c *Context) Modify(opts ModifyOptions) error {
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	current, err := c.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	target := current
	if opts.Into != "" {
		target = opts.Into
	}

	forest, err := c.Forest()
	if err != nil {
		return err
	}
	if !forest.IsKnown(target) && target != forest.Trunk {
		return notTrackedErr(target)
	}
	if err := c.requireUnfrozen(target); err != nil {
		return err
	}

	if opts.Into != "" && opts.Into != current {
		return c.modifyInto(current, target, opts)
	}

	if err := c.recordChange(opts); err != nil {
		return err
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("modified %s", target)
	return c.restackSubtree(newForest, target, target, "modify", summary)
}

// recordChange stages all tracked changes (if the tree is dirty) and
// commits or amends against whatever branch is currently checked out.
func (c *Context) recordChange(opts ModifyOptions) error {
	clean, err := c.Repo.IsClean()
	if err != nil {
		return err
	}
	if clean && opts.Mode == ModifyCommit {
		return dmderrors.PreconditionErrorf("working tree", "has nothing to commit", "")
	}
	if !clean {
		if err := c.Repo.StageTrackedOnly(); err != nil {
			return err
		}
	}
	if opts.Mode == ModifyAmend {
		return c.Repo.Amend(opts.Message)
	}
	if opts.Message == "" {
		return dmderrors.PreconditionErrorf("modify --commit", "requires a message", "")
	}
	return c.Repo.Commit(opts.Message)
}

// modifyInto stashes the current worktree, applies it against an
// ancestor branch, commits there, and checks the original branch back
// out - the resolved semantics for spec.md's modify --into.
func (c *Context) modifyInto(current, target string, opts ModifyOptions) error {
	stashed, err := c.Repo.Stash("diamond: modify --into " + target)
	if err != nil {
		return err
	}

	// restore only checks out current: by the time it is called, the
	// stash has already been popped onto target (or never needed to be
	// popped at all), so popping it again would fail with "no stash
	// entries found".
	restore := func() error {
		return c.Repo.Checkout(current)
	}

	if err := c.Repo.Checkout(target); err != nil {
		if stashed {
			_ = c.Repo.StashPop()
		}
		return err
	}
	if stashed {
		if err := c.Repo.StashPop(); err != nil {
			_ = c.Repo.Checkout(current)
			return dmderrors.Wrap(dmderrors.KindConflict, "modify --into", "applying stashed changes onto "+target+" conflicted", err)
		}
	}

	if err := c.recordChange(opts); err != nil {
		_ = restore()
		return err
	}

	if err := restore(); err != nil {
		return err
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("modified %s (via %s)", target, current)
	return c.restackSubtree(newForest, target, target, "modify", summary)
}
