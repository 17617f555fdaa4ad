package backup_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/diamondstack/diamond/internal/backup"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/refstore"
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

func writeCommit(t *testing.T, repo *gitx.Repository, branch, file, msg string) {
	t.Helper()
	if err := repo.Checkout(branch); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo.Dir(), file), []byte(msg+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := repo.StageAll(); err != nil {
		t.Fatal(err)
	}
	if err := repo.Commit(msg); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndRestore(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}

	tag, err := backup.Create(repo, "feature")
	if err != nil {
		t.Fatal(err)
	}

	writeCommit(t, repo, "feature", "f.txt", "moved on")
	newTip, _ := repo.RevParse("feature")
	if newTip == head {
		t.Fatal("expected feature to have moved")
	}

	if err := backup.Restore(repo, store, "feature", tag); err != nil {
		t.Fatal(err)
	}
	restored, _ := repo.RevParse("feature")
	if restored != head {
		t.Fatalf("expected feature restored to %s, got %s", head, restored)
	}
}

func TestRestoreUnknownTagFails(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}
	if err := backup.Restore(repo, store, "feature", "does-not-exist"); err == nil {
		t.Fatal("expected error restoring an unknown backup tag")
	}
}

func TestLatestReturnsMostRecent(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}
	if _, err := backup.Create(repo, "feature"); err != nil {
		t.Fatal(err)
	}
	writeCommit(t, repo, "feature", "f.txt", "change")
	secondTag, err := backup.Create(repo, "feature")
	if err != nil {
		t.Fatal(err)
	}

	latest, err := backup.Latest(store, "feature")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Timestamp != secondTag {
		t.Fatalf("got %+v want tag %s", latest, secondTag)
	}
}

func TestGcKeepsMostRecentN(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}
	var tags []string
	for i := 0; i < 5; i++ {
		tag, err := backup.Create(repo, "feature")
		if err != nil {
			t.Fatal(err)
		}
		tags = append(tags, tag)
	}

	result, err := backup.Gc(repo, store, "feature", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Removed) != 3 {
		t.Fatalf("expected 3 removed, got %d", len(result.Removed))
	}

	remaining, err := store.BackupsFor("feature")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(remaining))
	}
}

func TestGcRemovesBackupsOlderThanMaxAge(t *testing.T) {
	repo, store := newTestRepo(t)
	head, _ := repo.RevParse("HEAD")
	if err := repo.CreateBranch("feature", head); err != nil {
		t.Fatal(err)
	}

	oldTag := time.Now().UTC().Add(-48 * time.Hour).Format(backup.TagFormat)
	if err := repo.UpdateRef(refstore.BackupRef("feature", oldTag), head, ""); err != nil {
		t.Fatal(err)
	}
	recentTag, err := backup.Create(repo, "feature")
	if err != nil {
		t.Fatal(err)
	}

	result, err := backup.Gc(repo, store, "feature", 24*time.Hour, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Removed) != 1 || result.Removed[0].Timestamp != oldTag {
		t.Fatalf("expected only %s removed, got %+v", oldTag, result.Removed)
	}

	remaining, err := store.BackupsFor("feature")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := remaining[recentTag]; !ok || len(remaining) != 1 {
		t.Fatalf("expected only %s remaining, got %+v", recentTag, remaining)
	}
}
