package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/uiutil"
)

// Init runs `diamond init`.
func Init(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.Usage = func() {
		usageHeader(os.Stderr, "Initialize this repository for stacked branches")
		fmt.Fprintf(os.Stderr, `%sUSAGE%s
    diamond init [options]

%sOPTIONS%s
    -t, --trunk <branch>   Trunk branch (defaults to main, then master)
    -r, --reset            Wipe all existing stack metadata first
    -h, --help             Show this help message
`, uiutil.Cyan, uiutil.Reset, uiutil.Cyan, uiutil.Reset)
	}
	trunk := fs.String("trunk", "", "trunk branch")
	trunkShort := fs.String("t", "", "trunk branch (short)")
	reset := fs.Bool("reset", false, "reset existing metadata")
	resetShort := fs.Bool("r", false, "reset existing metadata (short)")
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
	if *trunkShort != "" {
		*trunk = *trunkShort
	}
	*reset = *reset || *resetShort

	ctx, err := Open()
	if err != nil {
		return err
	}
	got, err := ctx.Initialize(commands.InitializeOptions{Trunk: *trunk, Reset: *reset})
	if err != nil {
		return err
	}
	uiutil.Success(fmt.Sprintf("trunk set to %s", got))
	return nil
}
