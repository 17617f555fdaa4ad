package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/forge"
	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Sync runs `diamond sync`.
func Sync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Fetch trunk and restack every tracked branch onto it")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond sync\n", uiutil.Cyan, uiutil.Reset)
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

	// A real forge integration is a config-driven collaborator outside
	// this program's core; without one configured, sync still runs, it
	// simply reports no merged-PR candidates.
	var reader forge.Reader
	result, err := ctx.Sync(reader)
	if err != nil {
		if result.Outcome == restack.OutcomeConflicted {
			uiutil.Warn(fmt.Sprintf("suspended: conflict on %s - resolve, stage, then run `diamond continue`", result.ConflictedOn))
		}
		return err
	}
	uiutil.Success(fmt.Sprintf("synced from %s", result.FetchedFrom))
	for _, b := range result.SkippedBranches {
		uiutil.Warn(fmt.Sprintf("skipped %s: conflict outside the focus branch's stack", b))
	}
	if len(result.MergedCandidates) > 0 {
		uiutil.Info(fmt.Sprintf("branches that look merged upstream: %v", result.MergedCandidates))
	}
	return nil
}

// Absorb runs `diamond absorb`.
func Absorb(args []string) error {
	fs := flag.NewFlagSet("absorb", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Fold staged changes into the commits that last touched their lines")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond absorb\n", uiutil.Cyan, uiutil.Reset)
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
	if err := ctx.Absorb(); err != nil {
		return err
	}
	uiutil.Success("absorbed")
	return nil
}
