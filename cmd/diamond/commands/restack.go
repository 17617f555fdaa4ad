package commands

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/diamondstack/diamond/internal/restack"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Restack runs `diamond restack`.
func Restack(args []string) error {
	fs := flag.NewFlagSet("restack", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Restack every tracked branch onto its parent")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond restack\n", uiutil.Cyan, uiutil.Reset)
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
	if err := ctx.Restack(); err != nil {
		return err
	}
	uiutil.Success("restacked")
	return nil
}

// Continue runs `diamond continue`.
func Continue(args []string) error {
	ctx, err := Open()
	if err != nil {
		return err
	}
	result, err := ctx.Continue()
	if err != nil {
		return err
	}
	if result.Outcome == restack.OutcomeConflicted {
		uiutil.Warn(fmt.Sprintf("suspended again on conflict at %s - resolve, stage, then run `diamond continue`", result.ConflictedOn))
		return nil
	}
	uiutil.Success("continued and completed")
	return nil
}

// Abort runs `diamond abort`.
func Abort(args []string) error {
	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Abort(); err != nil {
		return err
	}
	uiutil.Success("aborted, branches restored")
	return nil
}

// Undo runs `diamond undo [branch]`.
func Undo(args []string) error {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Restore a branch or the last operation from backup")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond undo             Undo the most recently logged operation
    diamond undo <branch>    Restore branch to its most recent backup
`, uiutil.Cyan, uiutil.Reset)
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
	if fs.NArg() == 1 {
		branch := fs.Arg(0)
		if err := ctx.UndoBranch(branch); err != nil {
			return err
		}
		uiutil.Success(fmt.Sprintf("restored %s", branch))
		return nil
	}
	if err := ctx.UndoLastOp(); err != nil {
		return err
	}
	uiutil.Success("undid last operation")
	return nil
}

// Gc runs `diamond gc`.
func Gc(args []string) error {
	fs := flag.NewFlagSet("gc", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Delete old backup refs")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond gc [options]

%sOPTIONS%s
    -k, --keep <n>       Backups to keep per branch (default 10)
    -a, --max-age <dur>  Delete backups older than dur, e.g. 720h (default: no age limit)
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	keep := fs.Int("keep", 10, "backups to keep per branch")
	keepShort := fs.Int("k", 0, "backups to keep per branch (short)")
	maxAge := fs.String("max-age", "", "delete backups older than this duration")
	maxAgeShort := fs.String("a", "", "delete backups older than this duration (short)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *keepShort != 0 {
		*keep = *keepShort
	}
	if *maxAgeShort != "" {
		*maxAge = *maxAgeShort
	}
	var age time.Duration
	if *maxAge != "" {
		parsed, err := time.ParseDuration(*maxAge)
		if err != nil {
			return fmt.Errorf("invalid --max-age %q: %w", *maxAge, err)
		}
		age = parsed
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	n, err := ctx.Gc(age, *keep)
	if err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("removed %d backup refs", n))
	return nil
}

// Doctor runs `diamond doctor`.
func Doctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Check stack metadata for consistency")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond doctor [options]

%sOPTIONS%s
    -r, --repair   Automatically fix findings that can be
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	repair := fs.Bool("repair", false, "auto-fix findings")
	repairShort := fs.Bool("r", false, "auto-fix findings (short)")
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
	report, fixed, err := ctx.Doctor(*repair || *repairShort)
	if err != nil {
		return err
	}
	if len(report.Findings) == 0 {
		uiutil.Success("no issues found")
		return nil
	}
	fixedByBranch := map[string]bool{}
	for _, f := range fixed {
		fixedByBranch[f.Branch] = true
	}
	for _, f := range report.Findings {
		if fixedByBranch[f.Branch] {
			uiutil.Success("fixed: " + f.String())
			continue
		}
		uiutil.Warn(f.String())
	}
	return nil
}
