// Command diamond manages stacked git branches: create/modify/split
// branches, keep them restacked on their parents, and back up and undo
// history-rewriting operations. See `diamond -h` for the command list.
package main

import (
	"fmt"
	"os"

	"github.com/diamondstack/diamond/cmd/diamond/commands"
	"github.com/diamondstack/diamond/internal/logx"
)

const version = "0.1.0"

func main() {
	logx.Init(os.Getenv("DIAMOND_VERBOSE") != "")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = commands.Init(args)
	case "create", "c":
		err = commands.Create(args)
	case "track":
		err = commands.Track(args)
	case "untrack":
		err = commands.Untrack(args)
	case "move", "mv":
		err = commands.Move(args)
	case "fold":
		err = commands.Fold(args)
	case "modify", "m":
		err = commands.Modify(args)
	case "squash":
		err = commands.Squash(args)
	case "rename":
		err = commands.Rename(args)
	case "delete", "del", "rm":
		err = commands.Delete(args)
	case "freeze":
		err = commands.Freeze(args)
	case "unfreeze":
		err = commands.Unfreeze(args)
	case "split":
		err = commands.Split(args)
	case "absorb":
		err = commands.Absorb(args)
	case "sync":
		err = commands.Sync(args)
	case "restack", "r":
		err = commands.Restack(args)
	case "continue", "cont":
		err = commands.Continue(args)
	case "abort":
		err = commands.Abort(args)
	case "undo":
		err = commands.Undo(args)
	case "gc":
		err = commands.Gc(args)
	case "doctor":
		err = commands.Doctor(args)
	case "log", "ls", "stack":
		err = commands.Log(args)
	case "history":
		err = commands.History(args)
	case "-h", "--help":
		printUsage()
		return
	case "-v", "--version":
		fmt.Printf("diamond version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%sdiamond%s - manage stacked git branches

%sUSAGE%s
    diamond <command> [options]

%sSTACK COMMANDS%s
    init          Initialize this repository for stacked branches
    create, c     Create a new branch on top of the current one
    track         Register an existing branch as tracked
    untrack       Stop tracking a branch
    move, mv      Reparent a branch onto a new target
    fold          Collapse the current branch into its parent

%sCONTENT COMMANDS%s
    modify, m     Commit or amend changes and restack descendants
    squash        Squash the current branch's commits into one
    absorb        Fold staged changes into the commits that made them
    split         Split the current branch into a chain of branches
    rename        Rename the current branch
    delete, rm    Delete a branch
    freeze        Protect a branch from restacking
    unfreeze      Allow a frozen branch to restack again

%sSYNC COMMANDS%s
    sync          Fetch trunk and restack everything onto it
    restack, r    Restack every tracked branch onto its parent
    continue      Resume a suspended operation after resolving conflicts
    abort         Abort a suspended operation and restore prior state

%sHISTORY COMMANDS%s
    undo          Undo the last operation, or restore one branch
    gc            Delete old backup refs
    doctor        Check stack metadata for consistency
    log, ls       Show the tracked branch stack
    history       Show the operation log

%sOPTIONS%s
    -h, --help       Show this help message
    -v, --version    Show version

Run 'diamond <command> -h' for more information on a command.
`, bold, reset, cyan, reset, cyan, reset, cyan, reset, cyan, reset, cyan, reset, cyan, reset)
}

const (
	bold  = "\033[1m"
	cyan  = "\033[36m"
	reset = "\033[0m"
)
