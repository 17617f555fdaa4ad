// Package backup snapshots a branch's tip before a history-rewriting
// operation and can restore it on undo. Backups are plain commit refs
// under refs/diamond/backup/<branch>/<timestamp>, so they are visible
// to `git log` and survive exactly as long as any other ref - no
// separate file to keep in sync, matching the ref-only metadata
// approach refstore uses everywhere else. gc trims old entries the way
// the teacher's RemoveWorktree cleaned up worktrees: best-effort,
// touching only what this program itself created.
package backup

import (
	"fmt"
	"sort"
	"time"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/refstore"
)

// TagFormat is the layout of a backup's timestamp tag: ISO-8601 basic
// form in UTC with nanoseconds, e.g. 20261031T164928.710838731Z. It has
// no ':' (git refuses ref names containing one) and is fixed width, so
// lexicographic order of tags is chronological order.
const TagFormat = "20060102T150405.000000000Z"

// Snapshot is one recorded backup.
type Snapshot struct {
	Branch    string
	Timestamp string
	Tip       gitx.Hash
}

// Create records branch's current tip as a new backup and returns its
// timestamp tag, which callers stash in opstate.State.BackupTag so undo
// can find it later without guessing which of several backups is
// relevant to an in-progress operation.
func Create(repo *gitx.Repository, branch string) (string, error) {
	tip, err := repo.RevParse(branch)
	if err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format(TagFormat)
	ref := refstore.BackupRef(branch, ts)
	if err := repo.UpdateRef(ref, tip, ""); err != nil {
		return "", fmt.Errorf("recording backup for %s: %w", branch, err)
	}
	return ts, nil
}

// CreateBatch snapshots every branch in branches under one shared
// timestamp tag, so a single operation's backups are found together
// (spec section 4.7: "keyed by timestamp of the operation"). A branch
// that does not exist as a git branch (e.g. one already deleted earlier
// in the same command) is skipped rather than failing the whole batch.
func CreateBatch(repo *gitx.Repository, branches []string) (string, error) {
	ts := time.Now().UTC().Format(TagFormat)
	for _, branch := range branches {
		tip, err := repo.RevParse(branch)
		if err != nil {
			continue
		}
		ref := refstore.BackupRef(branch, ts)
		if err := repo.UpdateRef(ref, tip, ""); err != nil {
			return "", fmt.Errorf("recording backup for %s: %w", branch, err)
		}
	}
	return ts, nil
}

// Restore points branch back at the commit recorded under tag,
// overwriting whatever the branch currently points to. It refuses if no
// such backup exists.
func Restore(repo *gitx.Repository, store *refstore.Store, branch, tag string) error {
	backups, err := store.BackupsFor(branch)
	if err != nil {
		return err
	}
	tip, ok := backups[tag]
	if !ok {
		return dmderrors.PreconditionErrorf("backup "+tag, "was not found", "for branch %s", branch)
	}
	if err := repo.UpdateRef("refs/heads/"+branch, tip, ""); err != nil {
		return fmt.Errorf("restoring %s from backup: %w", branch, err)
	}
	return nil
}

// Latest returns the most recent backup for branch, or (nil, nil) if
// none exists. Tags use TagFormat, so lexicographic order is
// chronological order.
func Latest(store *refstore.Store, branch string) (*Snapshot, error) {
	backups, err := store.BackupsFor(branch)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, nil
	}
	tags := make([]string, 0, len(backups))
	for tag := range backups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	last := tags[len(tags)-1]
	return &Snapshot{Branch: branch, Timestamp: last, Tip: backups[last]}, nil
}

// GcResult reports what a Gc pass removed.
type GcResult struct {
	Removed []Snapshot
}

// Gc removes every backup for branch that is either older than maxAge
// (if maxAge > 0) or beyond the keep most recent (by timestamp tag,
// which sorts chronologically). Either condition alone is enough to
// remove a backup, per spec section 4.9's Gc(max_age, max_per_branch).
// maxAge <= 0 disables the age sweep; keep <= 0 removes every backup
// not caught by the age sweep. It is best-effort: a ref it fails to
// delete is skipped, not fatal, since a leftover backup ref is harmless
// clutter, not corruption.
func Gc(repo *gitx.Repository, store *refstore.Store, branch string, maxAge time.Duration, keep int) (GcResult, error) {
	backups, err := store.BackupsFor(branch)
	if err != nil {
		return GcResult{}, err
	}
	tags := make([]string, 0, len(backups))
	for tag := range backups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	cutoff := time.Now().UTC().Add(-maxAge)

	var result GcResult
	for i, tag := range tags {
		rankFromNewest := len(tags) - i
		tooMany := rankFromNewest > keep
		tooOld := false
		if maxAge > 0 {
			if ts, err := time.Parse(TagFormat, tag); err == nil {
				tooOld = ts.Before(cutoff)
			}
		}
		if !tooMany && !tooOld {
			continue
		}
		ref := refstore.BackupRef(branch, tag)
		if err := repo.DeleteRef(ref); err != nil {
			continue
		}
		result.Removed = append(result.Removed, Snapshot{Branch: branch, Timestamp: tag, Tip: backups[tag]})
	}
	return result, nil
}

// GcAll runs Gc across every branch that has at least one backup,
// applying the same maxAge/keep rule per branch.
func GcAll(repo *gitx.Repository, store *refstore.Store, maxAge time.Duration, keep int) (GcResult, error) {
	tracked, err := store.TrackedBranches()
	if err != nil {
		return GcResult{}, err
	}
	trunk, err := store.Trunk()
	if err != nil {
		return GcResult{}, err
	}
	branches := append([]string{trunk}, tracked...)

	var total GcResult
	for _, b := range branches {
		res, err := Gc(repo, store, b, maxAge, keep)
		if err != nil {
			return total, err
		}
		total.Removed = append(total.Removed, res.Removed...)
	}
	return total, nil
}
