package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup configures the process-wide zerolog logger and returns the base
// logger every component derives from. format "pretty" selects a console
// writer for local development; anything else emits JSON lines for log
// shipping. An unknown level falls back to info rather than failing startup.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if format == "pretty" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.TimeOnly,
		}
	}

	// Components layer their own "component" field on top of this base.
	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "quizgate").
		Logger()
}
