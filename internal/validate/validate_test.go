package validate_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/refstore"
	"github.com/diamondstack/diamond/internal/validate"
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

func TestCheckCleanRepoHasNoFindings(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}
	if err := store.SetParent("feature", "main", ""); err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Fatalf("expected clean report, got %+v", report.Findings)
	}
}

func TestCheckDetectsDanglingParentRef(t *testing.T) {
	repo, store := newTestRepo(t)
	// Record a parent ref for a branch that was never actually created.
	if err := store.SetParent("ghost", "main", ""); err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	if report.Clean() {
		t.Fatal("expected a finding for the dangling parent ref")
	}
	fixable := report.Fixable()
	if len(fixable) != 1 || fixable[0].Branch != "ghost" {
		t.Fatalf("got %+v", report.Findings)
	}
}

func TestRepairClearsDanglingParentRef(t *testing.T) {
	repo, store := newTestRepo(t)
	if err := store.SetParent("ghost", "main", ""); err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	repaired, err := validate.Repair(store, report)
	if err != nil {
		t.Fatal(err)
	}
	if len(repaired) != 1 {
		t.Fatalf("expected one repair, got %d", len(repaired))
	}
	report, err = validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Fatalf("expected clean report after repair, got %+v", report.Findings)
	}
}

func TestCheckDetectsCycle(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	for _, name := range []string{"a", "b"} {
		if err := repo.CreateBranch(name, head); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.SetParent("a", "b", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.SetParent("b", "a", ""); err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Fatal()) == 0 {
		t.Fatal("expected a fatal finding for the cycle")
	}
}

func TestCheckDetectsOrphanedFrozenMarker(t *testing.T) {
	repo, store := newTestRepo(t)
	if err := store.SetFrozen("untracked", true); err != nil {
		t.Fatal(err)
	}
	report, err := validate.Check(repo, store)
	if err != nil {
		t.Fatal(err)
	}
	fixable := report.Fixable()
	if len(fixable) != 1 || fixable[0].Branch != "untracked" {
		t.Fatalf("got %+v", report.Findings)
	}
}
