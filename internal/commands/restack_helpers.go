package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/backup"
	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

// runRestack is the shared path every mutating command uses to restack
// its affected subtree: it checks preconditions, writes backups for
// every branch in the plan (even unchanged ones, so undo is uniform
// per spec section 4.7), plans and runs the rebase, and logs the
// outcome. On conflict the operation-state document is already
// persisted by restack.Run; this returns a KindConflict error naming
// the branch so the caller (and eventually the CLI) knows to report a
// suspension rather than a failure.
func (c *Context) runRestack(kind opstate.Kind, origin string, forest *stackmodel.Forest, branches []string, scope restack.Scope, logKind, summaryPrefix string) error {
	if len(branches) == 0 {
		return nil
	}
	if err := c.requireClean(); err != nil {
		return err
	}
	if err := c.requireNoOperation(); err != nil {
		return err
	}
	if err := c.requireNoFrozenIn(branches); err != nil {
		return err
	}

	tag, err := backup.CreateBatch(c.Repo, branches)
	if err != nil {
		return err
	}

	steps, err := restack.Plan(c.Repo, forest, branches)
	if err != nil {
		return err
	}
	state := opstate.NewRestackState(kind, origin, steps, tag)

	result, err := restack.Run(c.Repo, c.Store, c.OpState, state, scope, origin)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case restack.OutcomeCompleted:
		summary := summaryPrefix
		if len(result.SkippedBranches) > 0 {
			summary += fmt.Sprintf(" (skipped: %v)", result.SkippedBranches)
		}
		return c.appendLog(logKind, summary, branches, "success", backupsOf(tag))
	case restack.OutcomeConflicted:
		_ = c.appendLog(logKind, summaryPrefix+"; suspended on conflict at "+result.ConflictedOn, branches, "suspended", backupsOf(tag))
		return dmderrors.Wrap(dmderrors.KindConflict, "branch "+result.ConflictedOn, "has conflicts", fmt.Errorf("resolve conflicts, stage the result, then run continue"))
	default:
		return dmderrors.InvariantErrorf("restack", "returned an unexpected outcome", "%v", result.Outcome)
	}
}

// restackSubtree restacks root and every descendant of root, used by
// commands that rewrite or reparent a single subtree (create --insert,
// move, fold, modify, squash, absorb) rather than a whole sync.
// logKind/summary describe the whole command, not just the restack, so
// exactly one log entry is written per command invocation.
func (c *Context) restackSubtree(forest *stackmodel.Forest, root string, originForLog, logKind, summary string) error {
	branches := append([]string{root}, forest.Descendants(root)...)
	return c.runRestack(opstate.KindRestack, originForLog, forest, branches, restack.ScopeStack, logKind, summary)
}

// checkoutIfCurrent switches HEAD off branch before branch is deleted
// or renamed, landing on fallback.
func checkoutIfCurrent(repo *gitx.Repository, branch, fallback string) error {
	current, err := repo.CurrentBranch()
	if err != nil {
		return nil
	}
	if current != branch {
		return nil
	}
	return repo.Checkout(fallback)
}
