// Package logx configures this program's structured logger. GitGrove's
// internal/grove package logs through zerolog's package-level logger
// (github.com/rs/zerolog/log) with plain Msg/Msgf calls; this package
// keeps that call style but adds the setup GitGrove left implicit: a
// human-readable console writer when stderr is a terminal, and
// level-filtered JSON otherwise so a CI log stays greppable.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Level mirrors zerolog's levels under this program's own name so
// callers never need to import zerolog directly just to pick one.
type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

// Init installs the global logger used by every package that imports
// github.com/rs/zerolog/log. verbose lowers the level to Debug;
// otherwise Info.
func Init(verbose bool) {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
