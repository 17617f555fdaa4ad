// Package gitx wraps the local git object/ref database: branch
// create/delete/rename, ref read/write, checkout, the rebase driver,
// commit/amend, and working-tree status. It is the only package in this
// module that shells out to git.
package gitx

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

// Hash is a git object id, rendered as the hex string git itself prints.
type Hash string

// Empty reports whether the hash is the zero value (no object).
func (h Hash) Empty() bool { return h == "" }

// Repository is a narrow, synchronous handle on a local git repository.
type Repository struct {
	// dir is the working-tree root all commands run with as cwd.
	dir string
	// gitDir is the resolved .git directory, used for local state files.
	gitDir string
}

// Open locates the repository enclosing dir by asking git, failing if dir
// is not inside a work tree. This is the production constructor; tests
// must use OpenForTest instead.
func Open(dir string) (*Repository, error) {
	r := &Repository{dir: dir}
	top, err := r.run("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, dmderrors.PreconditionErrorf("repository", "was not found", "%s is not inside a git working tree", dir)
	}
	r.dir = strings.TrimSpace(top)
	gd, err := r.run("rev-parse", "--git-dir")
	if err != nil {
		return nil, dmderrors.PreconditionErrorf("repository", "has no git directory", "%v", err)
	}
	gd = strings.TrimSpace(gd)
	if !filepath.IsAbs(gd) {
		gd = filepath.Join(r.dir, gd)
	}
	r.gitDir = gd
	return r, nil
}

// OpenForTest builds a Repository rooted at dir without consulting the
// process's working directory at all, for test isolation (spec section
// 5). Attempting to use it outside a _test.go file is a programmer error:
// it requires an explicit testing.TB so a bare `go run` can never hit it.
func OpenForTest(t interface{ Helper() }, dir string) *Repository {
	t.Helper()
	r, err := Open(dir)
	if err != nil {
		panic(fmt.Sprintf("gitx.OpenForTest: %v (did you forget to `git init` the fixture?)", err))
	}
	return r
}

// Dir returns the working-tree root.
func (r *Repository) Dir() string { return r.dir }

// GitDir returns the resolved .git directory, used to place local state
// files (operation_state.json, operations.jsonl) outside the work tree.
func (r *Repository) GitDir() string { return r.gitDir }

func (r *Repository) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *Repository) runRaw(args ...string) (string, string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// runWithStdin runs git with data piped to stdin, returning trimmed stdout.
func (r *Repository) runWithStdin(data []byte, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ---- branch operations ----

// BranchExists reports whether name resolves to a local branch.
func (r *Repository) BranchExists(name string) bool {
	_, err := r.run("show-ref", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates name at the given commit, failing if it exists.
func (r *Repository) CreateBranch(name string, at Hash) error {
	if r.BranchExists(name) {
		return dmderrors.PreconditionErrorf("branch "+name, "already exists", "")
	}
	if err := ValidateBranchName(name); err != nil {
		return err
	}
	_, err := r.run("branch", name, string(at))
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// DeleteBranch deletes a local branch. force allows deleting a branch
// whose commits are not reachable from elsewhere.
func (r *Repository) DeleteBranch(name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.run("branch", flag, name)
	if err != nil {
		return dmderrors.Wrap(dmderrors.KindPrecondition, "branch "+name, "could not be deleted", err)
	}
	return nil
}

// RenameBranch renames a local branch, failing if newName already exists.
func (r *Repository) RenameBranch(oldName, newName string) error {
	if r.BranchExists(newName) {
		return dmderrors.PreconditionErrorf("branch "+newName, "already exists", "")
	}
	if err := ValidateBranchName(newName); err != nil {
		return err
	}
	_, err := r.run("branch", "-m", oldName, newName)
	if err != nil {
		return fmt.Errorf("rename branch %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// ListBranches returns every local branch name.
func (r *Repository) ListBranches() ([]string, error) {
	out, err := r.run("for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ValidateBranchName rejects names that are not valid git ref components
// or that collide with the system's own reserved ref namespace.
func ValidateBranchName(name string) error {
	if name == "" {
		return dmderrors.PreconditionErrorf("branch name", "is empty", "")
	}
	if strings.HasPrefix(name, systemNamespace+"/") {
		return dmderrors.PreconditionErrorf("branch "+name, "uses a reserved prefix", "%q is reserved for internal state", systemNamespace)
	}
	cmd := exec.Command("git", "check-ref-format", "--branch", name)
	if err := cmd.Run(); err != nil {
		return dmderrors.PreconditionErrorf("branch "+name, "is not a valid branch name", "%v", err)
	}
	return nil
}

// ---- HEAD / checkout ----

// CurrentBranch returns the branch HEAD points to, failing cleanly if
// HEAD is detached.
func (r *Repository) CurrentBranch() (string, error) {
	out, err := r.run("symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", dmderrors.PreconditionErrorf("HEAD", "is detached", "checkout a branch before running this command")
	}
	return out, nil
}

// Checkout switches the working tree to branch.
func (r *Repository) Checkout(branch string) error {
	_, err := r.run("checkout", branch)
	if err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// FastForward points branch at target without requiring branch to be
// checked out. It does not check that target descends from branch's
// current tip; the ref is moved either way.
func (r *Repository) FastForward(branch string, target Hash) error {
	_, err := r.run("update-ref", "refs/heads/"+branch, string(target))
	if err != nil {
		return fmt.Errorf("fast-forward %s to %s: %w", branch, target, err)
	}
	return nil
}

// ---- working tree ----

// IsClean reports whether the working tree and index have no
// modifications relative to HEAD.
func (r *Repository) IsClean() (bool, error) {
	out, err := r.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// StageAll stages every change, including untracked files.
func (r *Repository) StageAll() error {
	_, err := r.run("add", "-A")
	return err
}

// StageTrackedOnly stages modifications to already-tracked files, leaving
// untracked files alone.
func (r *Repository) StageTrackedOnly() error {
	_, err := r.run("add", "-u")
	return err
}

// Commit creates a commit from the current index with message.
func (r *Repository) Commit(message string) error {
	_, err := r.run("commit", "-m", message)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Amend amends HEAD with the current index. If message is empty the
// previous message is kept.
func (r *Repository) Amend(message string) error {
	args := []string{"commit", "--amend"}
	if message != "" {
		args = append(args, "-m", message)
	} else {
		args = append(args, "--no-edit")
	}
	_, err := r.run(args...)
	if err != nil {
		return fmt.Errorf("amend: %w", err)
	}
	return nil
}

// SoftReset moves the current branch's tip to target, leaving the
// index and working tree untouched (the commits between the old and
// new tip become uncommitted staged changes). Used by squash to
// collapse a branch's history down to one commit.
func (r *Repository) SoftReset(target Hash) error {
	_, err := r.run("reset", "--soft", string(target))
	if err != nil {
		return fmt.Errorf("soft reset to %s: %w", target, err)
	}
	return nil
}

// CommitWithAuthorReset commits with the index's current contents but
// resets the author identity to the current git identity.
func (r *Repository) CommitWithAuthorReset(message string) error {
	_, err := r.run("commit", "--reset-author", "-m", message)
	if err != nil {
		return fmt.Errorf("commit with author reset: %w", err)
	}
	return nil
}

// Stash stashes the working tree (including untracked files) and returns
// true if there was anything to stash.
func (r *Repository) Stash(message string) (bool, error) {
	out, err := r.run("stash", "push", "--include-untracked", "-m", message)
	if err != nil {
		return false, fmt.Errorf("stash: %w", err)
	}
	return !strings.Contains(out, "No local changes to save"), nil
}

// StashPop restores the most recent stash entry.
func (r *Repository) StashPop() error {
	_, err := r.run("stash", "pop")
	if err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}
	return nil
}

// CherryPick applies commit onto the current branch, returning whether
// it applied cleanly. Used by split by-commit to replay a contiguous
// run of commits onto a freshly created branch.
func (r *Repository) CherryPick(commit Hash) (RebaseResult, error) {
	_, stderr, err := r.runRaw("cherry-pick", "--allow-empty", string(commit))
	if err == nil {
		tip, tErr := r.RevParse("HEAD")
		if tErr != nil {
			return RebaseResult{}, tErr
		}
		return RebaseResult{Outcome: RebaseCompleted, NewTip: tip}, nil
	}
	if isConflictOutput(stderr) {
		return RebaseResult{Outcome: RebaseConflicted, ConflictedFiles: parseConflictedFiles(stderr)}, nil
	}
	return RebaseResult{}, fmt.Errorf("cherry-pick %s: %w\n%s", commit, err, strings.TrimSpace(stderr))
}

// CherryPickAbort aborts an in-progress cherry-pick.
func (r *Repository) CherryPickAbort() error {
	_, err := r.run("cherry-pick", "--abort")
	return err
}

// DiffPatch returns the patch transforming from into to, restricted to
// the given pathspecs (all paths if empty).
func (r *Repository) DiffPatch(from, to string, pathspecs []string) (string, error) {
	args := []string{"diff", from, to, "--"}
	args = append(args, pathspecs...)
	out, _, err := r.runRaw(args...)
	if err != nil {
		return "", fmt.Errorf("diff %s..%s: %w", from, to, err)
	}
	return out, nil
}

// ApplyPatch applies patch to the index and working tree (cached=true
// stages it directly into the index without touching the working tree).
func (r *Repository) ApplyPatch(patch string, cached bool) error {
	if strings.TrimSpace(patch) == "" {
		return nil
	}
	args := []string{"apply"}
	if cached {
		args = append(args, "--cached")
	}
	_, err := r.runWithStdin([]byte(patch), args...)
	if err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	return nil
}

// ---- revision lookups ----

// RevParse resolves a revision expression to a commit hash.
func (r *Repository) RevParse(rev string) (Hash, error) {
	out, err := r.run("rev-parse", "--verify", rev)
	if err != nil {
		return "", dmderrors.PreconditionErrorf("revision "+rev, "does not exist", "%v", err)
	}
	return Hash(out), nil
}

// MergeBase returns the best common ancestor of a and b.
func (r *Repository) MergeBase(a, b string) (Hash, error) {
	out, err := r.run("merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("merge-base %s %s: %w", a, b, err)
	}
	return Hash(out), nil
}

// IsAncestor reports whether a is an ancestor of (or equal to) b.
func (r *Repository) IsAncestor(a, b string) bool {
	cmd := exec.Command("git", "merge-base", "--is-ancestor", a, b)
	cmd.Dir = r.dir
	return cmd.Run() == nil
}

// CommitsBetween returns the commit hashes reachable from head but not
// from base, oldest first.
func (r *Repository) CommitsBetween(base, head string) ([]Hash, error) {
	out, err := r.run("rev-list", "--reverse", base+".."+head)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	lines := strings.Split(out, "\n")
	hashes := make([]Hash, len(lines))
	for i, l := range lines {
		hashes[i] = Hash(l)
	}
	return hashes, nil
}

// HasCommitsBetween reports whether head has any commit not in base.
func (r *Repository) HasCommitsBetween(base, head string) (bool, error) {
	hashes, err := r.CommitsBetween(base, head)
	if err != nil {
		return false, err
	}
	return len(hashes) > 0, nil
}

// ---- fetch / push ----

// Fetch fetches from remote, pruning deleted remote refs.
func (r *Repository) Fetch(remote string) error {
	_, err := r.run("fetch", "--prune", remote)
	if err != nil {
		return dmderrors.Wrap(dmderrors.KindExternal, "remote "+remote, "could not be fetched", err)
	}
	return nil
}

// PushWithLease pushes branch to remote using --force-with-lease,
// refusing if the remote tip has moved since it was last seen locally.
func (r *Repository) PushWithLease(remote, branch string) error {
	_, err := r.run("push", "--force-with-lease", remote, branch)
	if err != nil {
		return dmderrors.Wrap(dmderrors.KindExternal, "branch "+branch, "could not be pushed", err)
	}
	return nil
}

// RemoteTrackingRef returns remote/branch if that ref exists, else "".
func (r *Repository) RemoteTrackingRef(remote, branch string) string {
	ref := remote + "/" + branch
	if _, err := r.run("rev-parse", "--verify", "--quiet", ref); err != nil {
		return ""
	}
	return ref
}

// ---- misc ----

// GitDirFile returns the absolute path of name under GitDir, creating
// parent directories as needed when ensureDir is true.
func (r *Repository) GitDirFile(name string, ensureDir bool) (string, error) {
	p := filepath.Join(r.gitDir, name)
	if ensureDir {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", err
		}
	}
	return p, nil
}
