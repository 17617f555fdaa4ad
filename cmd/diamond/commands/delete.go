package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Delete runs `diamond delete <branch>`.
func Delete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Delete a branch from git and the stack")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond delete <branch> [options]

%sOPTIONS%s
    -f, --force       Delete even if children would be orphaned
    -r, --reparent    Reattach surviving children to the nearest ancestor
    -s, --scope <s>   single (default), upstack, or downstack
    -h, --help        Show this help message
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	force := fs.Bool("force", false, "delete even with surviving children")
	forceShort := fs.Bool("f", false, "delete even with surviving children (short)")
	reparent := fs.Bool("reparent", false, "reparent surviving children")
	reparentShort := fs.Bool("r", false, "reparent surviving children (short)")
	scope := fs.String("scope", "single", "single, upstack, or downstack")
	scopeShort := fs.String("s", "", "scope (short)")
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
	if *scopeShort != "" {
		*scope = *scopeShort
	}
	var deleteScope commands.DeleteScope
	switch *scope {
	case "single":
		deleteScope = commands.DeleteScopeSingle
	case "upstack":
		deleteScope = commands.DeleteScopeUpstack
	case "downstack":
		deleteScope = commands.DeleteScopeDownstack
	default:
		return fmt.Errorf("unknown -scope %q: want single, upstack, or downstack", *scope)
	}

	ctx, err := Open()
	if err != nil {
		return err
	}
	branch := fs.Arg(0)
	opts := commands.DeleteOptions{
		Force:    *force || *forceShort,
		Reparent: *reparent || *reparentShort,
		Scope:    deleteScope,
	}
	if err := ctx.Delete(branch, opts); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("deleted %s", branch))
	return nil
}

// Freeze runs `diamond freeze <branch>`.
func Freeze(args []string) error {
	return freezeUnfreeze(args, "freeze", true)
}

// Unfreeze runs `diamond unfreeze <branch>`.
func Unfreeze(args []string) error {
	return freezeUnfreeze(args, "unfreeze", false)
}

func freezeUnfreeze(args []string, name string, freeze bool) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		verb := "Freeze"
		if !freeze {
			verb = "Unfreeze"
		}
		usageHeader(os.Stderr, verb+" a branch against restacking")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond %s <branch> [options]

%sOPTIONS%s
    -u, --with-upstack   Apply to branch and every descendant
    -h, --help           Show this help message
`, uiutil.Cyan, uiutil.Reset, name, uiutil.Cyan, uiutil.Reset)
	}
	withUpstack := fs.Bool("with-upstack", false, "apply to descendants too")
	withUpstackShort := fs.Bool("u", false, "apply to descendants too (short)")
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
	ctx, err := Open()
	if err != nil {
		return err
	}
	branch := fs.Arg(0)
	up := *withUpstack || *withUpstackShort
	if freeze {
		err = ctx.Freeze(branch, up)
	} else {
		err = ctx.Unfreeze(branch, up)
	}
	if err != nil {
		return err
	}
	verb := "froze"
	if !freeze {
		verb = "unfroze"
	}
	uiutil.Success(fmt.Sprintf("%s %s", verb, branch))
	return nil
}
