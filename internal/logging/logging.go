// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Logs go to stderr so that
// stdout stays clean for --json output.
func Setup(level string, json bool) zerolog.Logger {
	return SetupWithWriter(level, json, os.Stderr)
}

// SetupWithWriter configures zerolog to write to w. When json is false the
// output is human-readable console text.
func SetupWithWriter(level string, json bool, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writer io.Writer = w
	if !json {
		writer = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(ParseLevel(level))
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to warn so
// that normal CLI runs only surface fallbacks and failures.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
