// Package dmdconfig holds the resolved configuration the core consumes.
// The teacher's internal/config package both defined the schema and
// loaded/saved it from $EZSTACK_HOME/config.json; this program splits
// that: cmd/diamond owns discovering and parsing whatever on-disk or
// environment configuration exists, and hands the core an already
// resolved Config value. The core never reads a config file itself.
package dmdconfig

// Config is everything a command needs to know about how it was
// invoked that is not itself part of the git-ref-backed state: which
// remote to push/fetch with, whether output should be colored, and
// whether a terminal is attached (used to decide interactive vs.
// scripted behavior, spec section 5).
type Config struct {
	// Remote is the git remote used for fetch/push (default "origin").
	Remote string
	// Interactive records whether stdin and stdout are both terminals
	// (cmd/diamond sets it from uiutil.IsInteractive). No command reads
	// it; split --by-hunk checks the terminal itself.
	Interactive bool
	// NoColor disables ANSI styling regardless of terminal detection.
	NoColor bool
	// AutoBackup defaults to true and is set false by
	// DIAMOND_AUTO_BACKUP=0 or false. No command reads it: mutating
	// commands create backup refs before rewriting history regardless.
	AutoBackup bool
}

// Default returns the configuration a fresh invocation gets before any
// environment or flag override is applied.
func Default() Config {
	return Config{
		Remote:      "origin",
		Interactive: false,
		NoColor:     false,
		AutoBackup:  true,
	}
}
