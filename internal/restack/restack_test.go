package restack_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/refstore"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

func newTestRepo(t *testing.T) (*gitx.Repository, *refstore.Store) {
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
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "README.md")
	run("commit", "-m", "initial")

	repo := gitx.OpenForTest(t, dir)
	store := refstore.New(repo)
	if err := store.SetTrunk("main"); err != nil {
		t.Fatal(err)
	}
	return repo, store
}

func writeCommit(t *testing.T, repo *gitx.Repository, branch, file, content string) {
	t.Helper()
	if err := repo.Checkout(branch); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo.Dir(), file), []byte(content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := repo.Commit(content); err != nil {
		t.Fatal(err)
	}
}

func buildForest(t *testing.T, store *refstore.Store) *stackmodel.Forest {
	t.Helper()
	trunk, err := store.Trunk()
	if err != nil {
		t.Fatal(err)
	}
	parents, err := store.AllParents()
	if err != nil {
		t.Fatal(err)
	}
	f, err := stackmodel.Build(trunk, parents, nil)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestRunCompletesCleanStack(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")

	if err := repo.CreateBranch("a", head); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "a", "a.txt", "a change")
	if err := store.SetParent("a", "main", ""); err != nil {
		t.Fatal(err)
	}

	aTip, _ := repo.RevParse("a")
	if err := repo.CreateBranch("b", aTip); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "b", "b.txt", "b change")
	if err := store.SetParent("b", "a", ""); err != nil {
		t.Fatal(err)
	}

	// Advance main so a (and transitively b) is now behind.
	if err := repo.Checkout("main"); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "main", "main.txt", "main change")

	forest := buildForest(t, store)
	steps, err := restack.Plan(repo, forest, forest.Descendants("main"))
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	opStore := opstate.New(repo.GitDir())
	state := opstate.NewRestackState(opstate.KindRestack, "a", steps, "")

	result, err := restack.Run(repo, store, opStore, state, restack.ScopeStack, "a")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != restack.OutcomeCompleted {
		t.Fatalf("expected completed, got %v", result.Outcome)
	}

	mainTip, _ := repo.RevParse("main")
	if !repo.IsAncestor(string(mainTip), "a") {
		t.Fatal("expected a rebased onto new main tip")
	}
	if !repo.IsAncestor("a", "b") {
		t.Fatal("expected b rebased onto a's new tip")
	}

	inProgress, err := opStore.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if inProgress {
		t.Fatal("expected no operation left in progress after completion")
	}
}

func TestRunSuspendsOnConflict(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")

	if err := repo.CreateBranch("a", head); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "a", "shared.txt", "from a")
	if err := store.SetParent("a", "main", ""); err != nil {
		t.Fatal(err)
	}

	if err := repo.Checkout("main"); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "main", "shared.txt", "from main, conflicting")

	forest := buildForest(t, store)
	steps, err := restack.Plan(repo, forest, forest.Descendants("main"))
	if err != nil {
		t.Fatal(err)
	}

	opStore := opstate.New(repo.GitDir())
	state := opstate.NewRestackState(opstate.KindRestack, "a", steps, "")

	result, err := restack.Run(repo, store, opStore, state, restack.ScopeStack, "a")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != restack.OutcomeConflicted {
		t.Fatalf("expected conflicted, got %v", result.Outcome)
	}
	if result.ConflictedOn != "a" {
		t.Fatalf("expected conflict on a, got %s", result.ConflictedOn)
	}

	inProgress, err := opStore.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if !inProgress {
		t.Fatal("expected operation state to persist across the conflict")
	}

	if err := restack.Abort(repo, opStore); err != nil {
		t.Fatal(err)
	}
	inProgress, _ = opStore.InProgress()
	if inProgress {
		t.Fatal("expected abort to clear operation state")
	}
}
