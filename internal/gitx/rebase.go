package gitx

import "strings"

// RebaseOutcome classifies the three ways a rebase attempt can end, the
// restack engine's unit of work (spec section 4.7).
type RebaseOutcome int

const (
	// RebaseCompleted means every commit replayed cleanly.
	RebaseCompleted RebaseOutcome = iota
	// RebaseConflicted means git stopped mid-rebase; .git/rebase-merge
	// (or rebase-apply) is left in place for RebaseContinue/RebaseAbort.
	RebaseConflicted
	// RebaseEmpty means the branch had no commits not already reachable
	// from the new base; nothing moved.
	RebaseEmpty
)

// RebaseResult is the structured outcome of a rebase attempt.
type RebaseResult struct {
	Outcome    RebaseOutcome
	ConflictedFiles []string
	NewTip     Hash
}

// RebaseBranchOnto replays the commits unique to branch (relative to its
// old base) onto newBase, without requiring branch to be checked out.
// oldBase is the commit the branch used to be parented on; commits
// between oldBase and branch's tip are what gets replayed.
func (r *Repository) RebaseBranchOnto(branch, oldBase, newBase string) (RebaseResult, error) {
	empty, err := r.wouldBeEmptyRebase(oldBase, newBase, branch)
	if err != nil {
		return RebaseResult{}, err
	}
	if empty {
		if err := r.FastForward(branch, Hash(newBase)); err == nil {
			tip, _ := r.RevParse(branch)
			return RebaseResult{Outcome: RebaseEmpty, NewTip: tip}, nil
		}
	}

	current, err := r.CurrentBranch()
	hadCurrent := err == nil
	if hadCurrent && current != branch {
		if err := r.Checkout(branch); err != nil {
			return RebaseResult{}, err
		}
	} else if !hadCurrent {
		if err := r.Checkout(branch); err != nil {
			return RebaseResult{}, err
		}
	}

	stdout, stderr, err := r.runRaw("rebase", "--onto", newBase, oldBase, branch)
	if err == nil {
		tip, _ := r.RevParse(branch)
		return RebaseResult{Outcome: RebaseCompleted, NewTip: tip}, nil
	}

	combined := stdout + "\n" + stderr
	if isConflictOutput(combined) {
		return RebaseResult{Outcome: RebaseConflicted, ConflictedFiles: parseConflictedFiles(combined)}, nil
	}
	return RebaseResult{}, &rebaseFailure{detail: combined}
}

type rebaseFailure struct{ detail string }

func (e *rebaseFailure) Error() string { return "rebase failed: " + strings.TrimSpace(e.detail) }

func (r *Repository) wouldBeEmptyRebase(oldBase, newBase, branch string) (bool, error) {
	has, err := r.HasCommitsBetween(oldBase, branch)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	return true, nil
}

func isConflictOutput(s string) bool {
	return strings.Contains(s, "CONFLICT") ||
		strings.Contains(s, "could not apply") ||
		strings.Contains(s, "Resolve all conflicts")
}

func parseConflictedFiles(s string) []string {
	var files []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "CONFLICT") {
			continue
		}
		if idx := strings.LastIndex(line, " in "); idx != -1 {
			files = append(files, strings.TrimSpace(line[idx+4:]))
		}
	}
	return files
}

// RebaseInProgress reports whether .git/rebase-merge or rebase-apply
// exists, meaning a previous RebaseBranchOnto call left a suspended
// rebase behind.
func (r *Repository) RebaseInProgress() bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		if p, err := r.GitDirFile(name, false); err == nil {
			if _, statErr := statPath(p); statErr == nil {
				return true
			}
		}
	}
	return false
}

// RebaseContinue resumes a suspended rebase after conflicts are resolved
// and staged.
func (r *Repository) RebaseContinue() (RebaseResult, error) {
	stdout, stderr, err := r.runRaw("-c", "core.editor=true", "rebase", "--continue")
	if err == nil {
		branch, _ := r.CurrentBranch()
		tip, _ := r.RevParse(branch)
		return RebaseResult{Outcome: RebaseCompleted, NewTip: tip}, nil
	}
	combined := stdout + "\n" + stderr
	if isConflictOutput(combined) {
		return RebaseResult{Outcome: RebaseConflicted, ConflictedFiles: parseConflictedFiles(combined)}, nil
	}
	return RebaseResult{}, &rebaseFailure{detail: combined}
}

// RebaseAbort cancels an in-progress rebase, restoring the branch to
// its pre-rebase state.
func (r *Repository) RebaseAbort() error {
	_, _, err := r.runRaw("rebase", "--abort")
	if err != nil {
		return &rebaseFailure{detail: "abort failed"}
	}
	return nil
}
