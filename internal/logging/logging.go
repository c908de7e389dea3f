// Package logging configures the process-wide zerolog logger. Grounded on
// the teacher's internal/logging.Init, generalized to accept an io.Writer
// (a log file in production, a bytes.Buffer in tests) instead of a
// hardcoded path.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs the global logger at level, writing to w. Passing nil for
// w defaults to stderr.
func Init(level zerolog.Level, w io.Writer) {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	if level == zerolog.DebugLevel {
		log.Debug().Msg("log level set to debug")
	}
}

// ParseLevel maps a config string to a zerolog.Level, defaulting to Info
// on an unrecognised value.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
