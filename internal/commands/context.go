// Package commands implements the mutation and query operations spec
// section 4.8 describes: create, modify, track/untrack, move, fold,
// split, squash, rename, delete, freeze/unfreeze, sync, absorb, plus
// restack/continue/abort. Each function is a composition of gitx,
// refstore, stackmodel, restack, backup, and oplog - the same shape the
// teacher's cmd/ezs/commands/*.go used (a flag-parsing layer calling a
// stack.Manager method that does the real work), except the
// CLI-parsing concern lives entirely in cmd/diamond and every function
// here takes already-validated Go values.
package commands

import (
	"time"

	"github.com/diamondstack/diamond/internal/dmdconfig"
	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/oplog"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/refstore"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

// Context bundles everything a command needs: the git gateway, the ref
// store, the operation-state and log stores, and the resolved
// configuration. It carries no long-lived cache - every query rebuilds
// the forest fresh, per spec section 4.6.
type Context struct {
	Repo    *gitx.Repository
	Store   *refstore.Store
	OpState *opstate.Store
	Log     *oplog.Log
	Config  dmdconfig.Config
}

// NewContext builds a Context rooted at repo.
func NewContext(repo *gitx.Repository, cfg dmdconfig.Config) *Context {
	return &Context{
		Repo:    repo,
		Store:   refstore.New(repo),
		OpState: opstate.New(repo.GitDir()),
		Log:     oplog.New(repo.GitDir()),
		Config:  cfg,
	}
}

// Forest rebuilds the branch forest from the ref store's current state.
func (c *Context) Forest() (*stackmodel.Forest, error) {
	trunk, err := c.Store.Trunk()
	if err != nil {
		return nil, err
	}
	parents, err := c.Store.AllParents()
	if err != nil {
		return nil, err
	}
	frozenList, err := c.Store.FrozenBranches()
	if err != nil {
		return nil, err
	}
	frozen := make(map[string]bool, len(frozenList))
	for _, b := range frozenList {
		frozen[b] = true
	}
	return stackmodel.Build(trunk, parents, frozen)
}

// requireClean enforces invariant 8: rebasing operations require a
// clean working tree on entry.
func (c *Context) requireClean() error {
	clean, err := c.Repo.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return dmderrors.PreconditionErrorf("working tree", "is dirty", "commit, stash, or discard changes first")
	}
	return nil
}

// requireNoOperation enforces invariant 7/boundary behavior 12: a new
// stateful operation cannot start while one is suspended.
func (c *Context) requireNoOperation() error {
	inProgress, err := c.OpState.InProgress()
	if err != nil {
		return err
	}
	if inProgress {
		return dmderrors.PreconditionErrorf("operation", "is already in progress", "run continue or abort first")
	}
	return nil
}

// requireUnfrozen fails if branch is frozen; used by any command that
// would rewrite branch's commits (invariant 6 / boundary behavior 11).
func (c *Context) requireUnfrozen(branch string) error {
	frozen, err := c.Store.IsFrozen(branch)
	if err != nil {
		return err
	}
	if frozen {
		return dmderrors.PreconditionErrorf("branch "+branch, "is frozen", "unfreeze it before running a command that rewrites its commits")
	}
	return nil
}

// requireNoFrozenIn fails if any branch in the plan is frozen.
func (c *Context) requireNoFrozenIn(branches []string) error {
	var frozenBranches []string
	for _, b := range branches {
		frozen, err := c.Store.IsFrozen(b)
		if err != nil {
			return err
		}
		if frozen {
			frozenBranches = append(frozenBranches, b)
		}
	}
	if len(frozenBranches) > 0 {
		return dmderrors.PreconditionErrorf("restack plan", "includes frozen branches", "%v; unfreeze them first", frozenBranches)
	}
	return nil
}

// appendLog records a completed operation, best-effort with respect to
// the caller's own success: the log is advisory (spec section 4.4), so
// a log-append failure is returned but never masks the command's own
// error. outcome must be one of the oplog.Outcome* values; backups
// lists the backup-ref tags created for this operation, or nil if the
// operation created none.
func (c *Context) appendLog(kind string, summary string, branches []string, outcome string, backups []string) error {
	return c.Log.Append(oplog.Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Kind:      kind,
		Summary:   summary,
		Branches:  branches,
		Outcome:   outcome,
		Backups:   backups,
	})
}

// backupsOf wraps a single backup tag as the one-element slice
// appendLog's backups parameter expects, or nil if tag is empty.
func backupsOf(tag string) []string {
	if tag == "" {
		return nil
	}
	return []string{tag}
}

func cycleErr(branch, onto string) error {
	return dmderrors.PreconditionErrorf("branch "+branch, "would form a cycle", "onto %s", onto)
}

func notTrackedErr(branch string) error {
	return dmderrors.PreconditionErrorf("branch "+branch, "is not tracked", "run track first")
}
