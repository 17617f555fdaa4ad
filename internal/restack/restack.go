// Package restack plans and executes the rebase sequence that keeps a
// stack's branches each built on their parent's current tip. It is the
// resumable core behind the restack, sync, move, fold, and split
// commands: every one of them reduces to "recompute a plan, then run it
// step by step, persisting progress so a conflict can suspend the whole
// operation and a later invocation can continue or abort it." The
// teacher's stack.RebaseChildren did the same walk recursively and
// synchronously, re-opening a Manager per child directory; this
// generalizes that loop to work over refstore's ref-backed parent map
// with crash-safe resumability instead of worktrees.
package restack

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/refstore"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

// Scope controls how sync reacts to a conflict outside the branches it
// was asked to update (spec's conflict-scoping rule).
type Scope int

const (
	// ScopeStack limits the operation to the current branch's stack;
	// any conflict suspends the operation, since everything touched is
	// in scope by definition.
	ScopeStack Scope = iota
	// ScopeFull walks every stack in the forest; a conflict on a
	// branch outside the focus branch's stack is skipped with a
	// warning instead of suspending everything else.
	ScopeFull
)

// Plan computes the ordered rebase steps needed to rebuild every branch
// in branches (must already be in topological, parent-before-child
// order - stackmodel.Descendants/Stack/TopoSort all produce that) onto
// its parent's current tip. OldBase is captured now, before anything
// moves.
func Plan(repo *gitx.Repository, forest *stackmodel.Forest, branches []string) ([]opstate.Step, error) {
	steps := make([]opstate.Step, 0, len(branches))
	for _, branch := range branches {
		parent, ok := forest.Parent(branch)
		if !ok {
			return nil, dmderrors.InvariantErrorf("branch "+branch, "has no recorded parent", "")
		}
		base, err := repo.MergeBase(branch, parent)
		if err != nil {
			return nil, fmt.Errorf("computing merge-base for %s onto %s: %w", branch, parent, err)
		}
		steps = append(steps, opstate.Step{
			Branch:  branch,
			Parent:  parent,
			OldBase: string(base),
		})
	}
	return steps, nil
}

// Outcome is the terminal result of a Run call.
type Outcome int

const (
	// OutcomeCompleted means every step finished; no state remains.
	OutcomeCompleted Outcome = iota
	// OutcomeConflicted means a step hit a conflict and the operation
	// is now suspended; opstate holds where to resume.
	OutcomeConflicted
	// OutcomeAborted means the caller asked to abort a suspended
	// operation and it was rolled back.
	OutcomeAborted
)

// Result is what Run or Continue returns.
type Result struct {
	Outcome       Outcome
	ConflictedOn  string
	SkippedBranches []string // ScopeFull: branches skipped due to out-of-scope conflicts
}

// Run executes state starting at state.CurrentStep, persisting progress
// to opStore after each completed step so a crash or conflict leaves
// behind exactly where to resume. focusBranch is the branch the
// operation was invoked for; under ScopeFull it determines which
// conflicts suspend versus get skipped-with-warning.
func Run(repo *gitx.Repository, store *refstore.Store, opStore *opstate.Store, state *opstate.State, scope Scope, focusBranch string) (Result, error) {
	forestStack := map[string]bool{}
	if scope == ScopeFull {
		fs, err := focusStackSet(store, focusBranch)
		if err != nil {
			return Result{}, err
		}
		forestStack = fs
	}

	for state.CurrentStep < len(state.Steps) {
		step := &state.Steps[state.CurrentStep]
		if step.Completed {
			state.CurrentStep++
			continue
		}

		newBaseHash, err := repo.RevParse(step.Parent)
		if err != nil {
			return Result{}, fmt.Errorf("resolving current tip of %s: %w", step.Parent, err)
		}
		step.NewBase = string(newBaseHash)

		result, err := repo.RebaseBranchOnto(step.Branch, step.OldBase, step.NewBase)
		if err != nil {
			return Result{}, dmderrors.Wrap(dmderrors.KindExternal, "branch "+step.Branch, "could not be rebased", err)
		}

		switch result.Outcome {
		case gitx.RebaseCompleted, gitx.RebaseEmpty:
			step.Completed = true
			state.CurrentStep++
			if err := opStore.Save(state); err != nil {
				return Result{}, err
			}
		case gitx.RebaseConflicted:
			if scope == ScopeFull && !forestStack[step.Branch] {
				if abortErr := repo.RebaseAbort(); abortErr != nil {
					return Result{}, fmt.Errorf("aborting out-of-scope conflict on %s: %w", step.Branch, abortErr)
				}
				state.Warnings = append(state.Warnings, fmt.Sprintf("skipped %s: conflicts with %s", step.Branch, step.Parent))
				step.Completed = true
				state.CurrentStep++
				if err := opStore.Save(state); err != nil {
					return Result{}, err
				}
				continue
			}
			if err := opStore.Save(state); err != nil {
				return Result{}, err
			}
			return Result{Outcome: OutcomeConflicted, ConflictedOn: step.Branch}, nil
		}
	}

	warnings := state.Warnings
	if err := opStore.Clear(); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeCompleted, SkippedBranches: warnings}, nil
}

// Continue resumes a suspended operation after the user has resolved
// conflicts and staged the result.
func Continue(repo *gitx.Repository, store *refstore.Store, opStore *opstate.Store, state *opstate.State, scope Scope, focusBranch string) (Result, error) {
	result, err := repo.RebaseContinue()
	if err != nil {
		return Result{}, dmderrors.Wrap(dmderrors.KindExternal, "rebase", "could not continue", err)
	}
	if result.Outcome == gitx.RebaseConflicted {
		if err := opStore.Save(state); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeConflicted, ConflictedOn: state.Steps[state.CurrentStep].Branch}, nil
	}
	state.Steps[state.CurrentStep].Completed = true
	state.CurrentStep++
	if err := opStore.Save(state); err != nil {
		return Result{}, err
	}
	return Run(repo, store, opStore, state, scope, focusBranch)
}

// Abort cancels a suspended operation: aborts any in-progress git
// rebase and clears the operation-state document. It never touches
// backup refs; restoring from backup is a separate, explicit undo.
func Abort(repo *gitx.Repository, opStore *opstate.Store) error {
	if repo.RebaseInProgress() {
		if err := repo.RebaseAbort(); err != nil {
			return err
		}
	}
	return opStore.Clear()
}

func focusStackSet(store *refstore.Store, focusBranch string) (map[string]bool, error) {
	trunk, err := store.Trunk()
	if err != nil {
		return nil, err
	}
	parents, err := store.AllParents()
	if err != nil {
		return nil, err
	}
	frozen := map[string]bool{}
	forest, err := stackmodel.Build(trunk, parents, frozen)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, b := range forest.Stack(focusBranch) {
		set[b] = true
	}
	return set, nil
}
