package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Create runs `diamond create <name>`.
func Create(args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Create a new tracked branch on top of the current one")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond create <name> [options]

%sOPTIONS%s
    -f, --from <rev>       Commit to create the branch at (default HEAD)
    -i, --insert           Splice the new branch between the current branch and its child
    -c, --child <branch>   Child to splice under, when -insert is ambiguous
    -h, --help             Show this help message
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	from := fs.String("from", "", "commit to branch from")
	fromShort := fs.String("f", "", "commit to branch from (short)")
	insert := fs.Bool("insert", false, "splice under current branch's child")
	insertShort := fs.Bool("i", false, "splice under current branch's child (short)")
	child := fs.String("child", "", "child to splice under")
	childShort := fs.String("c", "", "child to splice under (short)")
	help := fs.Bool("h", false, "show help")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *help || fs.NArg() != 1 {
		fs.Usage()
		if fs.NArg() != 1 && !*help {
			os.Exit(1)
		}
		return nil
	}
	if *fromShort != "" {
		*from = *fromShort
	}
	if *childShort != "" {
		*child = *childShort
	}
	*insert = *insert || *insertShort

	ctx, err := Open()
	if err != nil {
		return err
	}
	name := fs.Arg(0)
	if err := ctx.Create(name, commands.CreateOptions{From: *from, Insert: *insert, Child: *child}); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("created %s", name))
	return nil
}

// Track runs `diamond track <branch> [parent]`.
func Track(args []string) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Register an existing branch as tracked")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond track <branch> [parent]

If parent is omitted, the current branch is used.
`, uiutil.Cyan, uiutil.Reset)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	branch := fs.Arg(0)
	parent := ""
	if fs.NArg() >= 2 {
		parent = fs.Arg(1)
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Track(branch, parent); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("tracking %s", branch))
	return nil
}

// Untrack runs `diamond untrack <branch>`.
func Untrack(args []string) error {
	fs := flag.NewFlagSet("untrack", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Stop tracking a branch, reparenting its children")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond untrack <branch>\n", uiutil.Cyan, uiutil.Reset)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	branch := fs.Arg(0)
	if err := ctx.Untrack(branch); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("untracked %s", branch))
	return nil
}

// Move runs `diamond move <target> [source]`.
func Move(args []string) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Reparent a branch onto a new target")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond move <target> [source]

If source is omitted, the current branch is moved.
`, uiutil.Cyan, uiutil.Reset)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	target := fs.Arg(0)
	source := ""
	if fs.NArg() >= 2 {
		source = fs.Arg(1)
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Move(source, target); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("moved onto %s", target))
	return nil
}

// Fold runs `diamond fold`.
func Fold(args []string) error {
	fs := flag.NewFlagSet("fold", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Collapse the current branch into its parent")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond fold [options]

%sOPTIONS%s
    -k, --keep-child   Keep the child's name instead of the parent's
    -h, --help         Show this help message
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	keepChild := fs.Bool("keep-child", false, "keep child's name")
	keepChildShort := fs.Bool("k", false, "keep child's name (short)")
	help := fs.Bool("h", false, "show help")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *help {
		fs.Usage()
		return nil
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Fold(*keepChild || *keepChildShort); err != nil {
		return err
	}
	uiutil.Success("folded")
	return nil
}
