// Package validate runs the consistency checks spec section 8's
// invariants describe: no cycles, no dangling parent pointers, no
// orphaned frozen markers, trunk itself untracked. Findings are split
// into Fixable (doctor --repair can clear them) and Fatal (need a
// human to decide, e.g. an ambiguous cycle break point).
package validate

import (
	"fmt"
	"sort"

	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/refstore"
)

// Severity classifies a Finding.
type Severity int

const (
	// SeverityFixable findings can be repaired automatically: a
	// dangling parent pointer to a branch that no longer exists, a
	// frozen marker on a branch with no parent ref.
	SeverityFixable Severity = iota
	// SeverityFatal findings require a human decision and are never
	// auto-repaired: a cycle, trunk itself carrying a parent ref.
	SeverityFatal
)

// Finding is one consistency problem discovered by Check.
type Finding struct {
	Severity Severity
	Branch   string
	Problem  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Branch, f.Problem)
}

// Report is the result of a full consistency pass.
type Report struct {
	Findings []Finding
}

// Fixable returns every SeverityFixable finding.
func (r Report) Fixable() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityFixable {
			out = append(out, f)
		}
	}
	return out
}

// Fatal returns every SeverityFatal finding.
func (r Report) Fatal() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityFatal {
			out = append(out, f)
		}
	}
	return out
}

// Clean reports whether no findings were produced.
func (r Report) Clean() bool { return len(r.Findings) == 0 }

// Check runs every consistency rule against the repository's current
// ref state and returns a Report. It never mutates anything; Repair
// does that.
func Check(repo *gitx.Repository, store *refstore.Store) (Report, error) {
	var report Report

	trunk, err := store.Trunk()
	if err != nil {
		return report, err
	}

	if _, ok, err := store.Parent(trunk); err != nil {
		return report, err
	} else if ok {
		report.Findings = append(report.Findings, Finding{
			Severity: SeverityFatal, Branch: trunk,
			Problem: "trunk carries a parent pointer",
		})
	}

	parents, err := store.AllParents()
	if err != nil {
		return report, err
	}

	branches := make([]string, 0, len(parents))
	for b := range parents {
		branches = append(branches, b)
	}
	sort.Strings(branches)

	for _, branch := range branches {
		parent := parents[branch]
		if !repo.BranchExists(branch) {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityFixable, Branch: branch,
				Problem: "has a parent ref but no local branch",
			})
			continue
		}
		if _, known := parents[parent]; parent != trunk && !known && !repo.BranchExists(parent) {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityFixable, Branch: branch,
				Problem: fmt.Sprintf("parent %q does not exist", parent),
			})
		}
	}

	if cyclic := findCycles(trunk, parents); len(cyclic) > 0 {
		for _, b := range cyclic {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityFatal, Branch: b,
				Problem: "is part of a parent cycle",
			})
		}
	}

	frozen, err := store.FrozenBranches()
	if err != nil {
		return report, err
	}
	sort.Strings(frozen)
	for _, b := range frozen {
		if _, ok := parents[b]; !ok && b != trunk {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityFixable, Branch: b,
				Problem: "has a frozen marker but is not tracked",
			})
		}
	}

	return report, nil
}

func findCycles(trunk string, parents map[string]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var cyclic []string
	var visit func(string) bool
	visit = func(b string) bool {
		color[b] = gray
		if parent, ok := parents[b]; ok && parent != trunk {
			switch color[parent] {
			case gray:
				return true
			case white:
				if visit(parent) {
					return true
				}
			}
		}
		color[b] = black
		return false
	}
	branches := make([]string, 0, len(parents))
	for b := range parents {
		branches = append(branches, b)
	}
	sort.Strings(branches)
	for _, b := range branches {
		if color[b] == white {
			if visit(b) {
				cyclic = append(cyclic, b)
			}
		}
	}
	return cyclic
}

// Repair clears every SeverityFixable finding: deletes parent refs for
// branches that no longer exist, deletes parent refs that point at a
// nonexistent parent, and clears orphaned frozen markers. Fatal
// findings are left untouched; the caller must decide how to resolve
// them (spec: a cycle needs a human to choose which edge to break).
func Repair(store *refstore.Store, report Report) ([]Finding, error) {
	var repaired []Finding
	for _, f := range report.Fixable() {
		switch {
		case f.Problem == "has a parent ref but no local branch",
			hasPrefix(f.Problem, "parent "):
			if err := store.DeleteParent(f.Branch); err != nil {
				return repaired, err
			}
			repaired = append(repaired, f)
		case f.Problem == "has a frozen marker but is not tracked":
			if err := store.SetFrozen(f.Branch, false); err != nil {
				return repaired, err
			}
			repaired = append(repaired, f)
		}
	}
	return repaired, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
