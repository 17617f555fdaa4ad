package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/dmdconfig"
	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/oplog"
	"github.com/diamondstack/diamond/internal/restack"
)

// newTestContext builds a fresh repository with a trunk branch "main"
// holding one commit, initializes it, and returns a ready Context.
// Grounded on the backup/refstore packages' own newTestRepo helper.
func newTestContext(t *testing.T) *commands.Context {
	t.Helper()
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-b", "main")
	run("config", "user.name", "test")
	run("config", "user.email", "test@example.com")
	writeFile(t, dir, "README.md", "hi")
	run("add", "README.md")
	run("commit", "-m", "initial")

	repo := gitx.OpenForTest(t, dir)
	ctx := commands.NewContext(repo, dmdconfig.Config{Remote: "origin", AutoBackup: true})
	if _, err := ctx.Initialize(commands.InitializeOptions{Trunk: "main"}); err != nil {
		t.Fatal(err)
	}
	return ctx
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeCommit checks out branch, writes content to name, and commits
// msg, mirroring every example repo's commit-and-move-on helper.
func writeCommit(t *testing.T, ctx *commands.Context, branch, name, content, msg string) {
	t.Helper()
	if err := ctx.Repo.Checkout(branch); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), name, content)
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Repo.Commit(msg); err != nil {
		t.Fatal(err)
	}
}

// createTracked creates branch from the current HEAD of from, parented
// on from, and checks it out.
func createTracked(t *testing.T, ctx *commands.Context, branch, from string) {
	t.Helper()
	if err := ctx.Repo.Checkout(from); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Create(branch, commands.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
}

func parentOf(t *testing.T, ctx *commands.Context, branch string) string {
	t.Helper()
	p, ok, err := ctx.Store.Parent(branch)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("branch %s has no parent entry", branch)
	}
	return p
}

func hasParent(t *testing.T, ctx *commands.Context, branch string) bool {
	t.Helper()
	_, ok, err := ctx.Store.Parent(branch)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

// TestLinearStackCreateAndSubtack covers spec section 8's "Linear
// stack create and submit" end-to-end scenario.
func TestLinearStackCreateAndSubtack(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")
	createTracked(t, ctx, "c", "b")
	writeCommit(t, ctx, "c", "c.txt", "1", "c3")

	if got := parentOf(t, ctx, "a"); got != "main" {
		t.Fatalf("parent(a) = %q, want main", got)
	}
	if got := parentOf(t, ctx, "b"); got != "a" {
		t.Fatalf("parent(b) = %q, want a", got)
	}
	if got := parentOf(t, ctx, "c"); got != "b" {
		t.Fatalf("parent(c) = %q, want b", got)
	}

	forest, err := ctx.Forest()
	if err != nil {
		t.Fatal(err)
	}
	if tops := forest.Top("a"); len(tops) != 1 || tops[0] != "c" {
		t.Fatalf("top(a) = %v, want [c]", tops)
	}
	if bottom := forest.Bottom("c"); bottom != "a" {
		t.Fatalf("bottom(c) = %q, want a", bottom)
	}
}

// TestModifyAmendRestacksDescendants covers "Mid-stack amend restacks
// descendants".
func TestModifyAmendRestacksDescendants(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")
	createTracked(t, ctx, "c", "b")
	writeCommit(t, ctx, "c", "c.txt", "1", "c3")

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "a.txt", "1-amended")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Modify(commands.ModifyOptions{Mode: commands.ModifyAmend, Message: "c1 amended"}); err != nil {
		t.Fatal(err)
	}

	aTip, err := ctx.Repo.RevParse("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.Repo.IsAncestor(string(aTip), "b") {
		t.Fatal("expected b rebased onto a's amended tip")
	}
	if !ctx.Repo.IsAncestor("b", "c") {
		t.Fatal("expected c rebased onto b's new tip")
	}

	bContent, err := os.ReadFile(filepath.Join(ctx.Repo.Dir(), "b.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(bContent) != "1\n" {
		t.Fatalf("b.txt content changed across restack: %q", bContent)
	}
}

// TestModifyIntoCommitsOnAncestorAndReturnsToBranch covers modify --into:
// a dirty working tree on b is stashed, applied and committed against
// ancestor a, then the original branch is restored - exercising the
// exact path that used to double-pop the stash and fail with a
// spurious conflict on its own success path.
func TestModifyIntoCommitsOnAncestorAndReturnsToBranch(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")

	if err := ctx.Repo.Checkout("b"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "a.txt", "1-changed")

	if err := ctx.Modify(commands.ModifyOptions{Mode: commands.ModifyCommit, Message: "update a.txt via b", Into: "a"}); err != nil {
		t.Fatal(err)
	}

	current, err := ctx.Repo.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	if current != "b" {
		t.Fatalf("expected to end back on b, got %s", current)
	}

	clean, err := ctx.Repo.IsClean()
	if err != nil {
		t.Fatal(err)
	}
	if !clean {
		t.Fatal("expected the stashed change to be fully consumed by the commit on a, leaving b's working tree clean")
	}

	if !ctx.Repo.IsAncestor("a", "b") {
		t.Fatal("expected b rebased onto a's new tip")
	}

	content, err := os.ReadFile(filepath.Join(ctx.Repo.Dir(), "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "1-changed\n" {
		t.Fatalf("expected b's rebased a.txt to carry the change, got %q", content)
	}
}

// TestConflictSuspendsAndResumes covers "Conflict suspends and
// resumes": restacking b onto an amended a conflicts, suspends, and a
// staged resolution plus Continue finishes the plan.
func TestConflictSuspendsAndResumes(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "shared.txt", "base", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "shared.txt", "base\nb-line", "c2")

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "shared.txt", "base-amended")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Modify(commands.ModifyOptions{Mode: commands.ModifyAmend}); err == nil {
		t.Fatal("expected conflict error from modify's restack of b")
	} else if !dmderrorsIsConflict(err) {
		t.Fatalf("expected a conflict error, got %v", err)
	}

	inProgress, err := ctx.OpState.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if !inProgress {
		t.Fatal("expected operation-state to be present after conflict")
	}

	// Resolve: keep both lines, stage, and continue.
	writeFile(t, ctx.Repo.Dir(), "shared.txt", "base-amended\nb-line")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	result, err := ctx.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != restack.OutcomeCompleted {
		t.Fatalf("expected completed after continue, got %v", result.Outcome)
	}

	inProgress, err = ctx.OpState.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if inProgress {
		t.Fatal("expected no operation left in progress")
	}
}

// TestAbortRestoresBackups covers "Abort restores backups": aborting a
// suspended restack returns every affected branch to its pre-operation
// tip and clears operation-state.
func TestAbortRestoresBackups(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "shared.txt", "base", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "shared.txt", "base\nb-line", "c2")

	bTipBefore, err := ctx.Repo.RevParse("b")
	if err != nil {
		t.Fatal(err)
	}

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "shared.txt", "base-amended")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Modify(commands.ModifyOptions{Mode: commands.ModifyAmend}); err == nil {
		t.Fatal("expected conflict")
	}

	if err := ctx.Abort(); err != nil {
		t.Fatal(err)
	}

	bTipAfter, err := ctx.Repo.RevParse("b")
	if err != nil {
		t.Fatal(err)
	}
	if bTipAfter != bTipBefore {
		t.Fatalf("b's tip changed after abort: before %s after %s", bTipBefore, bTipAfter)
	}

	inProgress, err := ctx.OpState.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if inProgress {
		t.Fatal("expected operation-state cleared after abort")
	}

	entries, err := ctx.Log.Tail(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Outcome != oplog.OutcomeAborted {
		t.Fatalf("expected last log entry to be marked aborted, got %+v", entries)
	}
}

// TestMoveOntoDescendantFails covers "Move onto descendant fails".
func TestMoveOntoDescendantFails(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")
	createTracked(t, ctx, "c", "b")
	writeCommit(t, ctx, "c", "c.txt", "1", "c3")

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	err := ctx.Move("a", "c")
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if got := parentOf(t, ctx, "a"); got != "main" {
		t.Fatalf("parent(a) changed despite failed move: %q", got)
	}
}

// TestDeleteWithReparentPreservesDescendants covers "Delete with
// reparent preserves descendants".
func TestDeleteWithReparentPreservesDescendants(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")
	createTracked(t, ctx, "c", "b")
	writeCommit(t, ctx, "c", "c.txt", "1", "c3")

	if err := ctx.Delete("b", commands.DeleteOptions{Reparent: true}); err != nil {
		t.Fatal(err)
	}
	if got := parentOf(t, ctx, "c"); got != "a" {
		t.Fatalf("parent(c) = %q, want a", got)
	}
	aTip, err := ctx.Repo.RevParse("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.Repo.IsAncestor(string(aTip), "c") {
		t.Fatal("expected c rebased onto a")
	}
	if ctx.Repo.BranchExists("b") {
		t.Fatal("expected b deleted")
	}
	if hasParent(t, ctx, "b") {
		t.Fatal("expected no orphaned parent ref for b")
	}
}

// TestFoldKeepParentCollapsesAndReparents covers "Fold collapses and
// reparents" using the default keep-parent survivor.
func TestFoldKeepParentCollapsesAndReparents(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")
	createTracked(t, ctx, "c", "b")
	writeCommit(t, ctx, "c", "c.txt", "1", "c3")

	if err := ctx.Repo.Checkout("b"); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Fold(false); err != nil {
		t.Fatal(err)
	}
	if ctx.Repo.BranchExists("b") {
		t.Fatal("expected b (non-survivor) deleted")
	}
	if !ctx.Repo.BranchExists("a") {
		t.Fatal("expected a (survivor) to remain")
	}
	if got := parentOf(t, ctx, "c"); got != "a" {
		t.Fatalf("parent(c) = %q, want a", got)
	}
	if _, err := os.Stat(filepath.Join(ctx.Repo.Dir(), "a.txt")); err != nil {
		t.Fatal("expected a's change to survive the fold")
	}
}

// TestFreezeUnfreezeRoundTrips covers boundary law 8: freeze then
// unfreeze is identity on the forest, and a frozen branch refuses a
// rewriting command.
func TestFreezeUnfreezeRoundTrips(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")

	if err := ctx.Freeze("a", false); err != nil {
		t.Fatal(err)
	}
	frozen, err := ctx.Store.IsFrozen("a")
	if err != nil {
		t.Fatal(err)
	}
	if !frozen {
		t.Fatal("expected a frozen")
	}

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "a.txt", "2")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Modify(commands.ModifyOptions{Mode: commands.ModifyAmend}); err == nil {
		t.Fatal("expected frozen branch to refuse amend")
	}

	if err := ctx.Unfreeze("a", false); err != nil {
		t.Fatal(err)
	}
	frozen, err = ctx.Store.IsFrozen("a")
	if err != nil {
		t.Fatal(err)
	}
	if frozen {
		t.Fatal("expected a unfrozen")
	}
}

// TestRenameRoundTrips covers boundary law 6: rename then rename back
// is identity on the forest, including a downstream branch whose
// parent value named the renamed branch.
func TestRenameRoundTrips(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")

	if err := ctx.Rename("a", "a2"); err != nil {
		t.Fatal(err)
	}
	if got := parentOf(t, ctx, "b"); got != "a2" {
		t.Fatalf("parent(b) = %q after rename, want a2", got)
	}
	if err := ctx.Rename("a2", "a"); err != nil {
		t.Fatal(err)
	}
	if got := parentOf(t, ctx, "b"); got != "a" {
		t.Fatalf("parent(b) = %q after rename back, want a", got)
	}
	if ctx.Repo.BranchExists("a2") {
		t.Fatal("expected a2 gone after renaming back")
	}
}

// TestCreateDeleteRoundTrips covers boundary law 7.
func TestCreateDeleteRoundTrips(t *testing.T) {
	ctx := newTestContext(t)
	forestBefore, err := ctx.Forest()
	if err != nil {
		t.Fatal(err)
	}
	before := forestBefore.AllTracked()

	createTracked(t, ctx, "x", "main")
	if err := ctx.Delete("x", commands.DeleteOptions{}); err != nil {
		t.Fatal(err)
	}

	forestAfter, err := ctx.Forest()
	if err != nil {
		t.Fatal(err)
	}
	after := forestAfter.AllTracked()
	if len(before) != len(after) {
		t.Fatalf("tracked set changed: before %v after %v", before, after)
	}
}

// TestTrackRejectsCycle covers boundary law 10 for track.
func TestTrackRejectsCycle(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")

	if err := ctx.Track("a", "b"); err == nil {
		t.Fatal("expected cycle error reparenting a onto its own descendant b")
	}
	if got := parentOf(t, ctx, "a"); got != "main" {
		t.Fatalf("parent(a) changed despite rejected track: %q", got)
	}
}

// TestUntrackReparentsChildren covers Untrack preserving root
// reachability for children of the untracked branch.
func TestUntrackReparentsChildren(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")

	if err := ctx.Untrack("a"); err != nil {
		t.Fatal(err)
	}
	if got := parentOf(t, ctx, "b"); got != "main" {
		t.Fatalf("parent(b) = %q after untracking a, want main", got)
	}
	if hasParent(t, ctx, "a") {
		t.Fatal("expected a's parent entry removed")
	}
}

// TestSquashCombinesCommits covers Squash's single-commit collapse and
// descendant restack.
func TestSquashCombinesCommits(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a1.txt", "1", "c1")
	writeCommit(t, ctx, "a", "a2.txt", "1", "c2")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c3")

	if err := ctx.Repo.Checkout("a"); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Squash("squashed a"); err != nil {
		t.Fatal(err)
	}

	base, err := ctx.Repo.MergeBase("a", "main")
	if err != nil {
		t.Fatal(err)
	}
	commits, err := ctx.Repo.CommitsBetween(string(base), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit on a after squash, got %d", len(commits))
	}
	aTip, err := ctx.Repo.RevParse("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.Repo.IsAncestor(string(aTip), "b") {
		t.Fatal("expected b restacked onto squashed a")
	}
}

// TestSplitByFilePartitionsChanges covers SplitByFile's pathspec
// partitioning and that the new chain is spliced in correctly.
func TestSplitByFilePartitionsChanges(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.Repo.Checkout("main"); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Create("a", commands.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, ctx.Repo.Dir(), "one.txt", "1")
	writeFile(t, ctx.Repo.Dir(), "two.txt", "1")
	if err := ctx.Repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Repo.Commit("one and two"); err != nil {
		t.Fatal(err)
	}

	err := ctx.SplitByFile([]commands.SplitFileGroup{
		{Name: "a-one", Patterns: []string{"one.txt"}},
		{Name: "a-two", Patterns: []string{"two.txt"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if ctx.Repo.BranchExists("a") {
		t.Fatal("expected original branch a removed after split")
	}
	if got := parentOf(t, ctx, "a-two"); got != "a-one" {
		t.Fatalf("parent(a-two) = %q, want a-one", got)
	}
	if got := parentOf(t, ctx, "a-one"); got != "main" {
		t.Fatalf("parent(a-one) = %q, want main", got)
	}
}

// TestSyncRestacksFromTrunk covers Sync's fetch-fast-forward-restack
// path against a real bare remote.
func TestSyncRestacksFromTrunk(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")

	bareDir := t.TempDir()
	run := func(dir string, args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run(bareDir, "init", "--bare", "-b", "main")
	run(ctx.Repo.Dir(), "remote", "add", "origin", bareDir)
	run(ctx.Repo.Dir(), "push", "origin", "main")

	// Advance main on the remote only, by pushing from a fresh clone.
	cloneDir := t.TempDir()
	run(t.TempDir(), "clone", bareDir, cloneDir)
	writeFile(t, cloneDir, "main.txt", "1")
	run(cloneDir, "add", "main.txt")
	run(cloneDir, "commit", "-m", "main advances")
	run(cloneDir, "push", "origin", "main")

	result, err := ctx.Sync(nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != restack.OutcomeCompleted {
		t.Fatalf("expected sync to complete, got %v", result.Outcome)
	}
	mainTip, err := ctx.Repo.RevParse("main")
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.Repo.IsAncestor(string(mainTip), "a") {
		t.Fatal("expected a restacked onto advanced main")
	}
}

// TestInitializeResetClearsMetadata covers Initialize's --reset path.
func TestInitializeResetClearsMetadata(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")

	if _, err := ctx.Initialize(commands.InitializeOptions{Trunk: "main", Reset: true}); err != nil {
		t.Fatal(err)
	}
	if hasParent(t, ctx, "a") {
		t.Fatal("expected parent entries wiped by --reset")
	}
	trunk, err := ctx.Store.Trunk()
	if err != nil {
		t.Fatal(err)
	}
	if trunk != "main" {
		t.Fatalf("trunk = %q after reset, want main", trunk)
	}
}

// TestDoctorReportsNoFindingsAfterValidOps ensures a clean sequence of
// mutations leaves the validator with nothing to report (testable
// property 3).
func TestDoctorReportsNoFindingsAfterValidOps(t *testing.T) {
	ctx := newTestContext(t)
	createTracked(t, ctx, "a", "main")
	writeCommit(t, ctx, "a", "a.txt", "1", "c1")
	createTracked(t, ctx, "b", "a")
	writeCommit(t, ctx, "b", "b.txt", "1", "c2")

	if err := ctx.Move("b", "main"); err != nil {
		t.Fatal(err)
	}

	report, _, err := ctx.Doctor(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Findings) != 0 {
		t.Fatalf("expected no findings, got %+v", report.Findings)
	}
}

func dmderrorsIsConflict(err error) bool {
	var e *dmderrors.Error
	for err != nil {
		if as, ok := err.(*dmderrors.Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == dmderrors.KindConflict
}
