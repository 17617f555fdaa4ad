// Package refstore is the typed accessor over this program's ref
// namespace (refs/diamond/...), the only place metadata lives: there is
// no config file and no database. Every other package that needs to
// know a branch's parent, whether it is frozen, or what trunk is reads
// and writes through here.
package refstore

import (
	"fmt"
	"strings"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/gitx"
)

const (
	trunkRef      = "refs/diamond/config/trunk"
	parentPrefix  = "refs/diamond/parent"
	frozenPrefix  = "refs/diamond/frozen"
	backupPrefix  = "refs/diamond/backup"
)

// Store is a thin, stateless wrapper: every call re-reads or re-writes
// refs directly, matching the rebuild-state-per-command style the core
// uses throughout (no in-memory cache to go stale).
type Store struct {
	repo *gitx.Repository
}

// New builds a Store over repo.
func New(repo *gitx.Repository) *Store {
	return &Store{repo: repo}
}

// Trunk returns the configured trunk branch name, failing with a
// precondition error if none has been set (spec: init must run first).
func (s *Store) Trunk() (string, error) {
	hash, err := s.repo.ReadRef(trunkRef)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", dmderrors.PreconditionErrorf("trunk", "is not configured", "run init first")
	}
	data, err := s.repo.ReadBlob(hash)
	if err != nil {
		return "", fmt.Errorf("reading trunk blob: %w", err)
	}
	return string(data), nil
}

// SetTrunk records name as the trunk branch.
func (s *Store) SetTrunk(name string) error {
	hash, err := s.repo.HashObjectBlob([]byte(name))
	if err != nil {
		return err
	}
	return s.repo.UpdateRef(trunkRef, hash, "")
}

// Parent returns branch's recorded parent and whether it has one. A
// branch with no parent ref is either trunk or not tracked.
func (s *Store) Parent(branch string) (string, bool, error) {
	hash, err := s.repo.ReadRef(parentRef(branch))
	if err != nil {
		return "", false, err
	}
	if hash == "" {
		return "", false, nil
	}
	data, err := s.repo.ReadBlob(hash)
	if err != nil {
		return "", false, fmt.Errorf("reading parent blob for %s: %w", branch, err)
	}
	return string(data), true, nil
}

// SetParent records branch's parent. old, if non-empty, is the expected
// previous parent value, turning the write into a compare-and-swap that
// detects a concurrent reparent.
func (s *Store) SetParent(branch, parent, old string) error {
	newHash, err := s.repo.HashObjectBlob([]byte(parent))
	if err != nil {
		return err
	}
	var oldHash gitx.Hash
	if old != "" {
		oldHash, err = s.repo.HashObjectBlob([]byte(old))
		if err != nil {
			return err
		}
	}
	if err := s.repo.UpdateRef(parentRef(branch), newHash, oldHash); err != nil {
		return dmderrors.Wrap(dmderrors.KindConflict, "branch "+branch, "parent was changed concurrently", err)
	}
	return nil
}

// DeleteParent removes branch's parent pointer, making it untracked
// (or, if it is trunk, simply a no-op since trunk never has one).
func (s *Store) DeleteParent(branch string) error {
	return s.repo.DeleteRef(parentRef(branch))
}

// TrackedBranches returns every branch with a recorded parent, i.e.
// every non-trunk branch this program manages.
func (s *Store) TrackedBranches() ([]string, error) {
	refs, err := s.repo.ForEachRef(parentPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	return names, nil
}

// AllParents returns the full branch -> parent map in one pass, used by
// stackmodel to build the forest without one ref read per branch.
func (s *Store) AllParents() (map[string]string, error) {
	refs, err := s.repo.ForEachRef(parentPrefix)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(refs))
	for branch, hash := range refs {
		data, err := s.repo.ReadBlob(hash)
		if err != nil {
			return nil, fmt.Errorf("reading parent blob for %s: %w", branch, err)
		}
		result[branch] = string(data)
	}
	return result, nil
}

// IsFrozen reports whether branch is currently frozen (excluded from
// restack planning until explicitly unfrozen).
func (s *Store) IsFrozen(branch string) (bool, error) {
	hash, err := s.repo.ReadRef(frozenRef(branch))
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

// SetFrozen marks or clears branch's frozen marker.
func (s *Store) SetFrozen(branch string, frozen bool) error {
	if !frozen {
		return s.repo.DeleteRef(frozenRef(branch))
	}
	hash, err := s.repo.HashObjectBlob([]byte("frozen"))
	if err != nil {
		return err
	}
	return s.repo.UpdateRef(frozenRef(branch), hash, "")
}

// FrozenBranches returns every currently-frozen branch.
func (s *Store) FrozenBranches() ([]string, error) {
	refs, err := s.repo.ForEachRef(frozenPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	return names, nil
}

// BackupRef builds the ref path for a timestamped backup of branch,
// exported so internal/backup can write commit refs directly under it.
func BackupRef(branch, timestamp string) string {
	return fmt.Sprintf("%s/%s/%s", backupPrefix, branch, timestamp)
}

// BackupsFor returns every backup ref recorded for branch as a map from
// timestamp tag to commit. The map is unordered; callers sort the tags,
// which sort chronologically.
func (s *Store) BackupsFor(branch string) (map[string]gitx.Hash, error) {
	prefix := fmt.Sprintf("%s/%s", backupPrefix, branch)
	refs, err := s.repo.ForEachRef(prefix)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Rename moves branch's parent/frozen/backup refs to follow a branch
// rename, and repoints any child's parent ref that names the old name.
func (s *Store) Rename(oldName, newName string) error {
	if parent, ok, err := s.Parent(oldName); err != nil {
		return err
	} else if ok {
		if err := s.SetParent(newName, parent, ""); err != nil {
			return err
		}
		if err := s.DeleteParent(oldName); err != nil {
			return err
		}
	}
	frozen, err := s.IsFrozen(oldName)
	if err != nil {
		return err
	}
	if frozen {
		if err := s.SetFrozen(newName, true); err != nil {
			return err
		}
		if err := s.SetFrozen(oldName, false); err != nil {
			return err
		}
	}

	children, err := s.AllParents()
	if err != nil {
		return err
	}
	for child, parent := range children {
		if parent == oldName {
			if err := s.SetParent(child, newName, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

func parentRef(branch string) string {
	return parentPrefix + "/" + strings.TrimPrefix(branch, "/")
}

func frozenRef(branch string) string {
	return frozenPrefix + "/" + strings.TrimPrefix(branch, "/")
}
