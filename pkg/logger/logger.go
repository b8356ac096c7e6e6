// Package logger provides the mapper's structured logging sink.
//
// It wraps a zerolog console-writer setup plus a small verbosity-level
// helper matching the -v/-vv flag counting used by cmd/slam3d-mapper.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
)

// Log is the package-wide default logger, used by components that are not
// handed an explicit *zerolog.Logger (e.g. package-level helpers in tests).
var Log = logger.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// New builds a console logger at the given verbosity level, where level
// follows the cmd/* convention: 0=ERROR, 1=WARN, 2=INFO, 3=DEBUG, 4=TRACE.
func New(level int) zerolog.Logger {
	l := logger.With().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch {
	case level >= 4:
		l = l.Level(zerolog.TraceLevel)
	case level == 3:
		l = l.Level(zerolog.DebugLevel)
	case level == 2:
		l = l.Level(zerolog.InfoLevel)
	case level == 1:
		l = l.Level(zerolog.WarnLevel)
	default:
		l = l.Level(zerolog.ErrorLevel)
	}
	return l
}

// Nop returns a logger that discards everything, e.g. for the mapper's
// tests; mapper.New itself always takes an explicit logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
