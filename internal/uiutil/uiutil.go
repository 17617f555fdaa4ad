// Package uiutil holds small terminal helpers shared by the
// interactive parts of the command layer (split by-hunk's picker,
// sync's cleanup confirmation). Grounded on the teacher's
// internal/ui.go raw-mode handling, generalized into a standalone
// predicate the commands package can check before trying to start
// anything interactive.
package uiutil

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are attached to
// a terminal. Commands that require interactive input must check this
// first and fail fast (spec section 5's "interactive features" rule)
// rather than block waiting on a pipe or redirected file.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Colors for terminal output, carried over unchanged from the
// teacher's internal/ui.go.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"
)

// Nerd Font icons, the same set the teacher used for branch/stack
// rendering.
const (
	IconSuccess  = "" // nf-fa-check
	IconError    = "" // nf-fa-times
	IconWarning  = "" // nf-fa-exclamation_triangle
	IconInfo     = "" // nf-fa-info_circle
	IconPointer  = "" // nf-fa-hand_o_right
	IconArrow    = "" // nf-fa-arrow_right
	IconBranch   = "" // nf-dev-git_branch
	IconConflict = "" // nf-fa-exclamation_triangle
)
