package commands

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/uiutil"
	"github.com/diamondstack/diamond/internal/uiutil/hunkpicker"
)

// Split runs `diamond split --by-commit|--by-file|--by-hunk ...`.
func Split(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Split the current branch into a chain of new branches")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond split --by-commit name=<rev>[,<rev>...] [name=... ...]
    diamond split --by-file name=<pathspec>[,<pathspec>...] [name=... ...]
    diamond split --by-hunk

%sNOTES%s
    Groups are given in stack order, bottom first. --by-commit requires
    every commit on the branch to be covered exactly once, in order.
    --by-hunk requires an interactive terminal and groups at file
    granularity: two hunks in the same file cannot go to different
    branches.
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	byCommit := fs.Bool("by-commit", false, "split by commit")
	byFile := fs.Bool("by-file", false, "split by file pattern")
	byHunk := fs.Bool("by-hunk", false, "split interactively by hunk")
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

	modes := 0
	for _, b := range []*bool{byCommit, byFile, byHunk} {
		if *b {
			modes++
		}
	}
	if modes != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one of --by-commit, --by-file, --by-hunk is required")
	}

	ctx, err := Open()
	if err != nil {
		return err
	}

	switch {
	case *byCommit:
		groups, err := parseCommitGroups(ctx, fs.Args())
		if err != nil {
			return err
		}
		if err := ctx.SplitByCommit(groups); err != nil {
			return err
		}
	case *byFile:
		groups, err := parseFileGroups(fs.Args())
		if err != nil {
			return err
		}
		if err := ctx.SplitByFile(groups); err != nil {
			return err
		}
	case *byHunk:
		if err := ctx.SplitByHunk(hunkpicker.Select); err != nil {
			return err
		}
	}
	uiutil.Success("split complete")
	return nil
}

func parseCommitGroups(ctx *commands.Context, args []string) ([]commands.SplitCommitGroup, error) {
	var groups []commands.SplitCommitGroup
	for _, arg := range args {
		name, revs, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		var hashes []gitx.Hash
		for _, rev := range revs {
			h, err := ctx.Repo.RevParse(rev)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", rev, err)
			}
			hashes = append(hashes, h)
		}
		groups = append(groups, commands.SplitCommitGroup{Name: name, Commits: hashes})
	}
	return groups, nil
}

func parseFileGroups(args []string) ([]commands.SplitFileGroup, error) {
	var groups []commands.SplitFileGroup
	for _, arg := range args {
		name, patterns, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		groups = append(groups, commands.SplitFileGroup{Name: name, Patterns: patterns})
	}
	return groups, nil
}

func splitAssignment(arg string) (name string, values []string, err error) {
	parts := strings.SplitN(arg, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", nil, fmt.Errorf("invalid group %q: want name=value[,value...]", arg)
	}
	return parts[0], strings.Split(parts[1], ","), nil
}
