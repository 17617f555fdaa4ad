package refstore_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/refstore"
)

func newTestRepo(t *testing.T) *gitx.Repository {
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
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "README.md")
	run("commit", "-m", "initial commit")
	return gitx.OpenForTest(t, dir)
}

func TestTrunkRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	s := refstore.New(repo)

	if _, err := s.Trunk(); err == nil {
		t.Fatal("expected error before trunk is set")
	}
	if err := s.SetTrunk("main"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Trunk()
	if err != nil {
		t.Fatal(err)
	}
	if got != "main" {
		t.Fatalf("got %q", got)
	}
}

func TestParentRoundTripAndCAS(t *testing.T) {
	repo := newTestRepo(t)
	s := refstore.New(repo)

	if _, ok, err := s.Parent("feature"); err != nil || ok {
		t.Fatalf("expected no parent recorded yet, ok=%v err=%v", ok, err)
	}
	if err := s.SetParent("feature", "main", ""); err != nil {
		t.Fatal(err)
	}
	parent, ok, err := s.Parent("feature")
	if err != nil || !ok || parent != "main" {
		t.Fatalf("got parent=%q ok=%v err=%v", parent, ok, err)
	}

	// CAS against a stale old value must fail.
	if err := s.SetParent("feature", "other", "not-main"); err == nil {
		t.Fatal("expected CAS failure")
	}
	if err := s.SetParent("feature", "other", "main"); err != nil {
		t.Fatal(err)
	}
	parent, _, _ = s.Parent("feature")
	if parent != "other" {
		t.Fatalf("expected reparent to succeed, got %q", parent)
	}
}

func TestFrozenToggle(t *testing.T) {
	repo := newTestRepo(t)
	s := refstore.New(repo)

	frozen, err := s.IsFrozen("feature")
	if err != nil || frozen {
		t.Fatalf("expected not frozen, got %v err=%v", frozen, err)
	}
	if err := s.SetFrozen("feature", true); err != nil {
		t.Fatal(err)
	}
	frozen, _ = s.IsFrozen("feature")
	if !frozen {
		t.Fatal("expected frozen")
	}
	if err := s.SetFrozen("feature", false); err != nil {
		t.Fatal(err)
	}
	frozen, _ = s.IsFrozen("feature")
	if frozen {
		t.Fatal("expected unfrozen")
	}
}

func TestTrackedBranchesAndAllParents(t *testing.T) {
	repo := newTestRepo(t)
	s := refstore.New(repo)

	if err := s.SetParent("a", "main", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParent("b", "a", ""); err != nil {
		t.Fatal(err)
	}

	tracked, err := s.TrackedBranches()
	if err != nil {
		t.Fatal(err)
	}
	if len(tracked) != 2 {
		t.Fatalf("got %v", tracked)
	}

	all, err := s.AllParents()
	if err != nil {
		t.Fatal(err)
	}
	if all["a"] != "main" || all["b"] != "a" {
		t.Fatalf("got %v", all)
	}
}

func TestRenamePropagatesToChildren(t *testing.T) {
	repo := newTestRepo(t)
	s := refstore.New(repo)

	if err := s.SetParent("a", "main", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParent("b", "a", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFrozen("a", true); err != nil {
		t.Fatal(err)
	}

	if err := s.Rename("a", "a-renamed"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := s.Parent("a"); ok {
		t.Fatal("expected old name's parent ref gone")
	}
	parent, ok, _ := s.Parent("a-renamed")
	if !ok || parent != "main" {
		t.Fatalf("got parent=%q ok=%v", parent, ok)
	}
	childParent, _, _ := s.Parent("b")
	if childParent != "a-renamed" {
		t.Fatalf("expected child reparented, got %q", childParent)
	}
	frozen, _ := s.IsFrozen("a-renamed")
	if !frozen {
		t.Fatal("expected frozen marker to follow rename")
	}
}
