package opstate_test

import (
	"testing"

	"github.com/diamondstack/diamond/internal/opstate"
)

func TestLoadWithNoFileReturnsNil(t *testing.T) {
	s := opstate.New(t.TempDir())
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatalf("expected nil state, got %+v", st)
	}
	inProgress, err := s.InProgress()
	if err != nil {
		t.Fatal(err)
	}
	if inProgress {
		t.Fatal("expected no operation in progress")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := opstate.New(t.TempDir())
	state := opstate.NewRestackState(opstate.KindRestack, "feature", []opstate.Step{
		{Branch: "a", OldBase: "main", NewBase: "main"},
		{Branch: "b", OldBase: "a", NewBase: "a"},
	}, "backup-tag-1")

	if err := s.Save(state); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Kind != opstate.KindRestack || loaded.OriginBranch != "feature" || len(loaded.Steps) != 2 {
		t.Fatalf("got %+v", loaded)
	}
	if loaded.BackupTag != "backup-tag-1" {
		t.Fatalf("got backup tag %q", loaded.BackupTag)
	}
}

func TestClearRemovesState(t *testing.T) {
	s := opstate.New(t.TempDir())
	if err := s.Save(opstate.NewRestackState(opstate.KindSync, "x", nil, "")); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatal("expected state cleared")
	}
	// Clearing twice must not error.
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	s := opstate.New(t.TempDir())
	if err := s.Save(opstate.NewRestackState(opstate.KindRestack, "first", nil, "")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(opstate.NewRestackState(opstate.KindMove, "second", nil, "")); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Kind != opstate.KindMove || loaded.OriginBranch != "second" {
		t.Fatalf("got %+v", loaded)
	}
}
