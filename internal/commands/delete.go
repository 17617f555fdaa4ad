package commands

import (
	"fmt"

	"github.com/diamondstack/diamond/internal/dmderrors"
	"github.com/diamondstack/diamond/internal/opstate"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

// DeleteScope controls how much of branch's stack Delete removes along
// with branch itself.
type DeleteScope int

const (
	// DeleteScopeSingle deletes only branch.
	DeleteScopeSingle DeleteScope = iota
	// DeleteScopeUpstack deletes branch and every descendant.
	DeleteScopeUpstack
	// DeleteScopeDownstack deletes branch and every ancestor up to
	// (but not including) trunk.
	DeleteScopeDownstack
)

// DeleteOptions configures Delete.
type DeleteOptions struct {
	Force    bool
	Reparent bool
	Scope    DeleteScope
}

// Delete removes branch (and, per scope, related branches) from git
// and the ref store. If Reparent, any surviving branch whose parent
// was deleted is reattached to the nearest surviving ancestor and
// restacked; otherwise deleting a branch with surviving children fails
// unless Force.
func (c *Context) Delete(branch string, opts DeleteOptions) error {
	forest, err := c.Forest()
	if err != nil {
		return err
	}
	if !forest.IsKnown(branch) || branch == forest.Trunk {
		return notTrackedErr(branch)
	}

	targets := deleteTargets(forest, branch, opts.Scope)
	targetSet := map[string]bool{}
	for _, t := range targets {
		targetSet[t] = true
	}

	frontier := map[string]string{} // surviving child -> its deleted former parent
	for _, t := range targets {
		for _, child := range forest.Children(t) {
			if !targetSet[child] {
				frontier[child] = t
			}
		}
	}

	if len(frontier) > 0 && !opts.Reparent && !opts.Force {
		var children []string
		for c := range frontier {
			children = append(children, c)
		}
		return dmderrors.PreconditionErrorf("branch "+branch, "has children", "%v; pass reparent or force", children)
	}

	if opts.Reparent {
		for child, deletedParent := range frontier {
			newParent := nearestSurvivingAncestor(forest, deletedParent, targetSet)
			if err := c.Store.SetParent(child, newParent, deletedParent); err != nil {
				return err
			}
		}
	}

	fallback := forest.Trunk
	for _, t := range deletionOrder(forest, targets) {
		if err := checkoutIfCurrent(c.Repo, t, fallback); err != nil {
			return err
		}
		if err := c.Repo.DeleteBranch(t, opts.Force); err != nil {
			return err
		}
		if err := c.Store.DeleteParent(t); err != nil {
			return err
		}
		if err := c.Store.SetFrozen(t, false); err != nil {
			return err
		}
	}

	if !opts.Reparent || len(frontier) == 0 {
		return c.appendLog("delete", fmt.Sprintf("deleted %v", targets), targets, "success", nil)
	}

	newForest, err := c.Forest()
	if err != nil {
		return err
	}
	var affected []string
	for child := range frontier {
		affected = append(affected, child)
		affected = append(affected, newForest.Descendants(child)...)
	}
	summary := fmt.Sprintf("deleted %v, reparented survivors", targets)
	return c.runRestack(opstate.KindRestack, branch, newForest, affected, restack.ScopeStack, "delete", summary)
}

func deleteTargets(forest *stackmodel.Forest, branch string, scope DeleteScope) []string {
	switch scope {
	case DeleteScopeUpstack:
		return append([]string{branch}, forest.Descendants(branch)...)
	case DeleteScopeDownstack:
		var targets []string
		for _, a := range forest.Ancestors(branch) {
			if a == forest.Trunk {
				continue
			}
			targets = append(targets, a)
		}
		return append(targets, branch)
	default:
		return []string{branch}
	}
}

// deletionOrder returns targets children-before-parents so `git branch
// -d` never refuses a branch for having an in-set child still present.
func deletionOrder(forest *stackmodel.Forest, targets []string) []string {
	set := map[string]bool{}
	for _, t := range targets {
		set[t] = true
	}
	var order []string
	var visit func(string)
	visited := map[string]bool{}
	visit = func(b string) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, child := range forest.Children(b) {
			if set[child] {
				visit(child)
			}
		}
		order = append(order, b)
	}
	for _, t := range targets {
		visit(t)
	}
	return order
}

func nearestSurvivingAncestor(forest *stackmodel.Forest, start string, deleted map[string]bool) string {
	cur := start
	for deleted[cur] {
		parent, ok := forest.Parent(cur)
		if !ok {
			return forest.Trunk
		}
		cur = parent
	}
	return cur
}
