// Package opstate persists the single in-progress-operation document
// (operation_state.json) that lets a suspended multi-step command - a
// restack paused on a conflict, a sync halfway through a stack - be
// resumed, continued, or aborted by a later invocation of this program.
// The teacher's config.Save wrote JSON with a plain os.WriteFile, which
// can leave a half-written file behind if the process dies mid-write;
// this package fixes that with a write-to-temp-then-rename.
package opstate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

const fileName = "operation_state.json"

// Kind names the operation type a State document describes.
type Kind string

const (
	KindRestack Kind = "restack"
	KindSync    Kind = "sync"
	KindMove    Kind = "move"
	KindFold    Kind = "fold"
	KindSplit   Kind = "split"
	KindAbsorb  Kind = "absorb"
)

// Step describes one unit of work within a larger operation: typically
// one branch's rebase. OldBase is fixed at plan time (the merge-base
// the branch originally diverged from its parent at); NewBase is
// resolved just before the rebase runs, since an earlier step in the
// same operation may have moved Parent's tip.
type Step struct {
	Branch    string `json:"branch"`
	Parent    string `json:"parent"`
	OldBase   string `json:"oldBase"`
	NewBase   string `json:"newBase,omitempty"`
	Completed bool   `json:"completed"`
}

// State is the complete, crash-recoverable description of an
// in-progress operation. A nil *State (no file on disk) means no
// operation is suspended.
type State struct {
	Kind         Kind     `json:"kind"`
	StartedAt    string   `json:"startedAt"`
	OriginBranch string   `json:"originBranch"`
	Steps        []Step   `json:"steps"`
	CurrentStep  int      `json:"currentStep"`
	BackupTag    string   `json:"backupTag,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Store reads and writes the operation-state document under a git
// directory.
type Store struct {
	path string
}

// New builds a Store rooted at gitDir (typically repo.GitDir()).
func New(gitDir string) *Store {
	return &Store{path: filepath.Join(gitDir, fileName)}
}

// Load reads the current state, returning (nil, nil) if no operation is
// suspended.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, dmderrors.FatalErrorf("operation state", "could not be read", "%v", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, dmderrors.FatalErrorf("operation state", "is corrupt", "%v", err)
	}
	return &st, nil
}

// Save atomically writes state, replacing any previous document.
func (s *Store) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(data)
}

// Clear removes the state document, meaning no operation is suspended.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// InProgress reports whether a suspended operation exists.
func (s *Store) InProgress() (bool, error) {
	st, err := s.Load()
	if err != nil {
		return false, err
	}
	return st != nil, nil
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".operation_state-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Branches returns every branch this operation's steps touch, in plan
// order.
func (s *State) Branches() []string {
	branches := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		branches[i] = step.Branch
	}
	return branches
}

// NewRestackState builds a fresh restack/sync state document for steps,
// stamped with the current time.
func NewRestackState(kind Kind, originBranch string, steps []Step, backupTag string) *State {
	return &State{
		Kind:         kind,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		OriginBranch: originBranch,
		Steps:        steps,
		CurrentStep:  0,
		BackupTag:    backupTag,
	}
}
