package commands

import (
	"fmt"
	"time"

	"github.com/diamondstack/diamond/internal/backup"
	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/validate"
)

// Restack recomputes and runs a restack plan over every tracked branch
// from scratch - the standalone command, distinct from the implicit
// restacks other mutations trigger over just their affected subtree.
func (c *Context) Restack() error {
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	current, err := c.Repo.CurrentBranch()
	if err != nil {
		current = forest.Trunk
	}
	branches := forest.TopoSort(forest.AllTracked())
	return c.runRestack(opstate.KindRestack, current, forest, branches, restack.ScopeStack, "restack", "restacked "+fmt.Sprint(branches))
}

// Continue resumes a suspended operation after the user has resolved
// and staged the conflicting step.
func (c *Context) Continue() (restack.Result, error) {
	state, err := c.OpState.Load()
	if err != nil {
		return restack.Result{}, err
	}
	if state == nil {
		return restack.Result{}, dmderrors.PreconditionErrorf("continue", "has nothing to resume", "no operation is in progress")
	}
	result, err := restack.Continue(c.Repo, c.Store, c.OpState, state, restack.ScopeStack, state.OriginBranch)
	if err != nil {
		return result, err
	}
	switch result.Outcome {
	case restack.OutcomeCompleted:
		_ = c.appendLog(string(state.Kind), "resumed and completed", state.Branches(), "success", backupsOf(state.BackupTag))
	case restack.OutcomeConflicted:
		_ = c.appendLog(string(state.Kind), "suspended again on conflict at "+result.ConflictedOn, state.Branches(), "suspended", backupsOf(state.BackupTag))
	}
	return result, nil
}

// Abort aborts a suspended operation and restores every affected
// branch to its pre-operation tip from backup.
func (c *Context) Abort() error {
	state, err := c.OpState.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return dmderrors.PreconditionErrorf("abort", "has nothing to abort", "no operation is in progress")
	}
	branches := state.Branches()
	if err := restack.Abort(c.Repo, c.OpState); err != nil {
		return err
	}
	if state.BackupTag != "" {
		for _, b := range branches {
			_ = backup.Restore(c.Repo, c.Store, b, state.BackupTag)
		}
	}
	return c.appendLog(string(state.Kind), "aborted", branches, "aborted", backupsOf(state.BackupTag))
}

// UndoBranch restores branch to its most recent backup.
func (c *Context) UndoBranch(branch string) error {
	snap, err := backup.Latest(c.Store, branch)
	if err != nil {
		return err
	}
	if snap == nil {
		return dmderrors.PreconditionErrorf("branch "+branch, "has no backups", "")
	}
	if err := backup.Restore(c.Repo, c.Store, branch, snap.Timestamp); err != nil {
		return err
	}
	return c.appendLog("undo", "restored "+branch+" from "+snap.Timestamp, []string{branch}, "success", []string{snap.Timestamp})
}

// UndoLastOp restores every branch touched by the most recently logged
// operation to the tip its backup recorded.
func (c *Context) UndoLastOp() error {
	entries, err := c.Log.Tail(1)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return dmderrors.PreconditionErrorf("undo", "has no prior operation to undo", "")
	}
	last := entries[0]
	if len(last.Backups) == 0 {
		return dmderrors.PreconditionErrorf("undo", "cannot undo "+last.Kind, "it created no backups")
	}
	tag := last.Backups[0]
	for _, b := range last.Branches {
		if err := backup.Restore(c.Repo, c.Store, b, tag); err != nil {
			return err
		}
	}
	return c.appendLog("undo", "undid "+last.Kind+" ("+last.Summary+")", last.Branches, "success", []string{tag})
}

// Gc deletes backup refs older than maxAge or beyond the maxPerBranch
// newest per branch, across every tracked branch and trunk. maxAge <=
// 0 disables the age sweep.
func (c *Context) Gc(maxAge time.Duration, maxPerBranch int) (int, error) {
	result, err := backup.GcAll(c.Repo, c.Store, maxAge, maxPerBranch)
	if err != nil {
		return 0, err
	}
	return len(result.Removed), nil
}

// Doctor runs the integrity check and, if repair is true, fixes every
// finding that is automatically fixable.
func (c *Context) Doctor(repair bool) (validate.Report, []validate.Finding, error) {
	report, err := validate.Check(c.Repo, c.Store)
	if err != nil {
		return report, nil, err
	}
	if !repair {
		return report, nil, nil
	}
	fixed, err := validate.Repair(c.Store, report)
	if err != nil {
		return report, fixed, err
	}
	if len(fixed) > 0 {
		var names []string
		for _, f := range fixed {
			names = append(names, f.Branch)
		}
		_ = c.appendLog("doctor", "repaired findings", names, "success", nil)
	}
	return report, fixed, nil
}
