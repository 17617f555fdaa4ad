// Package stackmodel builds the branch forest from refstore's flat
// branch->parent map and answers the traversal queries every command
// needs: a branch's stack, its ancestors and descendants, and the
// deterministic order to visit a subtree in. The teacher's
// stack.Manager rebuilt equivalent structure from its JSON config on
// every command invocation (GetChildren, findStackForBranch); this
// package generalizes that rebuild-from-scratch approach to the
// ref-backed parent map.
package stackmodel

import (
	"sort"

	"github.com/diamondstack/diamond/internal/dmderrors"
)

// Forest is the full branch hierarchy rooted at trunk.
type Forest struct {
	Trunk    string
	parent   map[string]string
	children map[string][]string
	frozen   map[string]bool
}

// Build constructs a Forest from a flat parent map (branch -> parent)
// and the set of currently-frozen branches. It fails with an invariant
// error if the map contains a cycle, since that can only happen through
// a bug elsewhere (refstore's CAS writes and validate's pre-mutation
// checks are supposed to prevent it).
func Build(trunk string, parents map[string]string, frozen map[string]bool) (*Forest, error) {
	f := &Forest{
		Trunk:    trunk,
		parent:   parents,
		children: map[string][]string{},
		frozen:   frozen,
	}
	for branch, parent := range parents {
		f.children[parent] = append(f.children[parent], branch)
	}
	for parent := range f.children {
		sort.Strings(f.children[parent])
	}
	if cyclic, branch := f.hasCycle(); cyclic {
		return nil, dmderrors.InvariantErrorf("branch "+branch, "is part of a parent cycle", "")
	}
	return f, nil
}

func (f *Forest) hasCycle() (bool, string) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var visit func(string) bool
	visit = func(b string) bool {
		color[b] = gray
		if parent, ok := f.parent[b]; ok {
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
	for b := range f.parent {
		if color[b] == white {
			if visit(b) {
				return true, b
			}
		}
	}
	return false, ""
}

// Parent returns branch's parent, or ("", false) if branch is trunk or
// unknown to the forest.
func (f *Forest) Parent(branch string) (string, bool) {
	p, ok := f.parent[branch]
	return p, ok
}

// Children returns branch's direct children, lexicographically sorted
// for deterministic traversal order.
func (f *Forest) Children(branch string) []string {
	return f.children[branch]
}

// IsFrozen reports whether branch is marked frozen.
func (f *Forest) IsFrozen(branch string) bool {
	return f.frozen[branch]
}

// IsKnown reports whether branch is trunk or has a recorded parent.
func (f *Forest) IsKnown(branch string) bool {
	if branch == f.Trunk {
		return true
	}
	_, ok := f.parent[branch]
	return ok
}

// Ancestors returns branch's chain from its immediate parent up to (and
// including) trunk, nearest first.
func (f *Forest) Ancestors(branch string) []string {
	var chain []string
	cur := branch
	for {
		parent, ok := f.parent[cur]
		if !ok {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// Descendants returns every branch reachable below branch, in
// deterministic pre-order (parent before children, siblings in
// lexicographic order) - the order restack must process them in so a
// parent is always rebased before its children.
func (f *Forest) Descendants(branch string) []string {
	var result []string
	var walk func(string)
	walk = func(b string) {
		for _, child := range f.Children(b) {
			result = append(result, child)
			walk(child)
		}
	}
	walk(branch)
	return result
}

// Stack returns every branch in the same stack as branch: its ancestors
// up to trunk, itself, and all its descendants, trunk excluded.
// Ordering is root-of-stack first, in pre-order.
func (f *Forest) Stack(branch string) []string {
	root := branch
	for {
		parent, ok := f.parent[root]
		if !ok || parent == f.Trunk {
			break
		}
		root = parent
	}
	result := []string{root}
	result = append(result, f.Descendants(root)...)
	return result
}

// Bottom returns the root of branch's stack (the branch whose parent is
// trunk).
func (f *Forest) Bottom(branch string) string {
	cur := branch
	for {
		parent, ok := f.parent[cur]
		if !ok || parent == f.Trunk {
			return cur
		}
		cur = parent
	}
}

// Top returns every leaf (childless branch) in branch's stack, in
// lexicographic order. A stack can fork, so "top" is not unique.
func (f *Forest) Top(branch string) []string {
	root := f.Bottom(branch)
	var leaves []string
	var walk func(string)
	walk = func(b string) {
		children := f.Children(b)
		if len(children) == 0 {
			leaves = append(leaves, b)
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(root)
	sort.Strings(leaves)
	return leaves
}

// Up returns branch's single child if it has exactly one, an empty
// string and false if it has none or more than one (ambiguous: the
// command layer must ask the user to pick).
func (f *Forest) Up(branch string) (string, bool) {
	children := f.Children(branch)
	if len(children) != 1 {
		return "", false
	}
	return children[0], true
}

// Down returns branch's parent within its stack, or ("", false) if
// branch's parent is trunk (there is nothing further down).
func (f *Forest) Down(branch string) (string, bool) {
	parent, ok := f.parent[branch]
	if !ok || parent == f.Trunk {
		return "", false
	}
	return parent, true
}

// AllTracked returns every branch the forest knows about (trunk
// excluded), in lexicographic order.
func (f *Forest) AllTracked() []string {
	names := make([]string, 0, len(f.parent))
	for b := range f.parent {
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// TopoSort orders a subset of branches so that every parent precedes
// its children, breaking ties lexicographically among siblings - the
// order restack.Plan requires its input in. It walks the whole forest
// from trunk down through Children (already sorted) and keeps only the
// branches present in the subset, so a branch's relative position
// always reflects its place in the full tree rather than in the
// subset's own (possibly unrelated) sort order.
func (f *Forest) TopoSort(branches []string) []string {
	want := make(map[string]bool, len(branches))
	for _, b := range branches {
		want[b] = true
	}
	order := make([]string, 0, len(branches))
	var walk func(string)
	walk = func(b string) {
		if want[b] {
			order = append(order, b)
		}
		for _, child := range f.Children(b) {
			walk(child)
		}
	}
	walk(f.Trunk)
	return order
}

// WouldCreateCycle reports whether reparenting branch under newParent
// would create a cycle, i.e. branch is newParent or an ancestor of
// newParent. Commands must call this before writing a new parent ref.
func (f *Forest) WouldCreateCycle(branch, newParent string) bool {
	if branch == newParent {
		return true
	}
	cur := newParent
	for {
		if cur == branch {
			return true
		}
		parent, ok := f.parent[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}
