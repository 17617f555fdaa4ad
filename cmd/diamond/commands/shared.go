// Package commands is the flag-parsing layer that turns os.Args into
// calls on internal/commands.Context, the way the teacher's
// cmd/ezs/commands package parsed flags and called into
// internal/stack.Manager. Every function here owns exactly one
// subcommand's flag.NewFlagSet, usage text, and prompting; the actual
// git/ref-store work all happens one layer down.
package commands

import (
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/dmdconfig"
	"github.com/diamondstack/diamond/internal/gitx"
	"github.com/diamondstack/diamond/internal/uiutil"
	"golang.org/x/term"
)

// Open resolves the repository enclosing the current directory and
// builds a Context configured from the environment. Every subcommand
// calls this first.
func Open() (*commands.Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repo, err := gitx.Open(cwd)
	if err != nil {
		return nil, err
	}
	return commands.NewContext(repo, resolveConfig()), nil
}

func resolveConfig() dmdconfig.Config {
	cfg := dmdconfig.Default()
	if remote := os.Getenv("DIAMOND_REMOTE"); remote != "" {
		cfg.Remote = remote
	}
	cfg.Interactive = uiutil.IsInteractive()
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	if v := os.Getenv("DIAMOND_AUTO_BACKUP"); v == "0" || v == "false" {
		cfg.AutoBackup = false
	}
	return cfg
}

// isTerminal reports whether fd is attached to a terminal, used by
// subcommands deciding whether to fall back to a non-interactive
// default rather than prompt.
func isTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// fail prints err the way the whole CLI reports failures and exits
// with a non-zero status. dmderrors.Error carries a Kind the caller
// could use to pick an exit code; every kind maps to the same status
// today since no caller yet depends on distinguishing them.
func fail(err error) {
	uiutil.Error(err.Error())
	os.Exit(1)
}

func usageHeader(w *os.File, title string) {
	fmt.Fprintf(w, "%s%s%s\n\n", uiutil.Bold, title, uiutil.Reset)
}
