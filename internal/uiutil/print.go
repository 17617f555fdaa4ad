package uiutil

import (
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/forge"
	"github.com/diamondstack/diamond/internal/stackmodel"
)

// PrintForest renders forest depth-first from trunk, marking the
// current branch and each branch's frozen/PR state, generalized from
// the teacher's PrintStackWithStatus (which walked a single
// config.Stack's flat branch list; here the same rendering walks the
// whole tracked forest, since a stack in this model is just one root
// under trunk). reader may be nil, meaning "no forge configured": PR
// columns are omitted rather than queried.
func PrintForest(forest *stackmodel.Forest, current string, reader forge.Reader) {
	fmt.Fprintf(os.Stderr, "\n%s%s Stack%s\n\n", Bold, Cyan, Reset)

	roots := forest.Children(forest.Trunk)
	for _, root := range roots {
		printBranch(forest, root, current, reader, 0)
	}
	fmt.Fprintln(os.Stderr)
}

func printBranch(forest *stackmodel.Forest, branch, current string, reader forge.Reader, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	marker, color := " ", Reset
	if branch == current {
		marker, color = IconPointer, Green
	}

	frozen := ""
	if forest.IsFrozen(branch) {
		frozen = fmt.Sprintf(" %s[frozen]%s", Gray, Reset)
	}

	prInfo := ""
	if reader != nil {
		if pr, err := reader.PRForBranch(branch); err == nil && pr != nil {
			switch pr.State {
			case "merged":
				prInfo = fmt.Sprintf(" %s[PR #%d merged]%s", Magenta, pr.Number, Reset)
			case "closed":
				prInfo = fmt.Sprintf(" %s[PR #%d closed]%s", Red, pr.Number, Reset)
			default:
				prInfo = fmt.Sprintf(" %s[PR #%d]%s", Yellow, pr.Number, Reset)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "%s%s%s %s%s%s%s\n", indent, color, marker, branch, Reset, frozen, prInfo)

	for _, child := range forest.Children(branch) {
		printBranch(forest, child, current, reader, depth+1)
	}
}
