package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/forge"
	"github.com/diamondstack/diamond/internal/oplog"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Log runs `diamond log`, printing the tracked forest as a tree rooted
// at trunk.
func Log(args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Show the tracked branch stack")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond log\n", uiutil.Cyan, uiutil.Reset)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	forest, err := ctx.Forest()
	if err != nil {
		return err
	}
	current, err := ctx.Repo.CurrentBranch()
	if err != nil {
		current = ""
	}
	var reader forge.Reader
	uiutil.PrintForest(forest, current, reader)
	return nil
}

// History runs `diamond history`, printing the append-only operation
// log oldest-first.
func History(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Show the operation log")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond history [options]

%sOPTIONS%s
    -n <count>   Show only the last count entries (default all)
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	n := fs.Int("n", 0, "show only the last n entries")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	ctx, err := Open()
	if err != nil {
		return err
	}

	var entries []oplog.Entry
	if *n > 0 {
		entries, err = ctx.Log.Tail(*n)
	} else {
		entries, err = ctx.Log.All()
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		uiutil.Info("no operations recorded yet")
		return nil
	}
	for _, e := range entries {
		status := ""
		switch e.Outcome {
		case oplog.OutcomeAborted:
			status = uiutil.Red + " [aborted]" + uiutil.Reset
		case oplog.OutcomeSuspended:
			status = uiutil.Yellow + " [suspended]" + uiutil.Reset
		case oplog.OutcomeFailure:
			status = uiutil.Red + " [failed]" + uiutil.Reset
		}
		fmt.Printf("%s%s%s  %-8s %s%s\n", uiutil.Gray, e.Timestamp, uiutil.Reset, e.Kind, e.Summary, status)
	}
	return nil
}
