package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Modify runs `diamond modify`.
func Modify(args []string) error {
	fs := flag.NewFlagSet("modify", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Commit or amend changes and restack descendants")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond modify [options]

%sOPTIONS%s
    -m, --message <msg>   Commit message (required with -commit, optional with -amend)
    -c, --commit          Create a new commit instead of amending
    -i, --into <branch>   Modify an ancestor branch instead of the current one
    -h, --help            Show this help message
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	message := fs.String("message", "", "commit message")
	messageShort := fs.String("m", "", "commit message (short)")
	commit := fs.Bool("commit", false, "create a new commit")
	commitShort := fs.Bool("c", false, "create a new commit (short)")
	into := fs.String("into", "", "ancestor branch to modify")
	intoShort := fs.String("i", "", "ancestor branch to modify (short)")
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
	if *messageShort != "" {
		*message = *messageShort
	}
	if *intoShort != "" {
		*into = *intoShort
	}
	*commit = *commit || *commitShort

	mode := commands.ModifyAmend
	if *commit {
		mode = commands.ModifyCommit
	}
	if mode == commands.ModifyCommit && *message == "" {
		return fmt.Errorf("modify -commit requires -message")
	}

	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Modify(commands.ModifyOptions{Mode: mode, Message: *message, Into: *into}); err != nil {
		return err
	}
	uiutil.Success("modified")
	return nil
}

// Squash runs `diamond squash -message <msg>`.
func Squash(args []string) error {
	fs := flag.NewFlagSet("squash", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Squash the current branch's commits into one")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond squash -message <msg>
`, uiutil.Cyan, uiutil.Reset)
	}
	message := fs.String("message", "", "commit message")
	messageShort := fs.String("m", "", "commit message (short)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *messageShort != "" {
		*message = *messageShort
	}
	if *message == "" {
		fs.Usage()
		os.Exit(1)
	}
	ctx, err := Open()
	if err != nil {
		return err
	}
	if err := ctx.Squash(*message); err != nil {
		return err
	}
	uiutil.Success("squashed")
	return nil
}

// Rename runs `diamond rename <new-name>`.
func Rename(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Rename the current branch")
		fmt.Fprintf(os.Stderr, "%sUSAGE%s\n    diamond rename <new-name>\n", uiutil.Cyan, uiutil.Reset)
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
	current, err := ctx.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	newName := fs.Arg(0)
	if err := ctx.Rename(current, newName); err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("renamed %s to %s", current, newName))
	return nil
}
