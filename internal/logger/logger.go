package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root zerolog logger. format "pretty" renders a console
// writer for local development; anything else emits JSON lines. An
// unparseable level falls back to info.
func Setup(level, format string) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Component derives a sub-logger tagged with the component name, so log
// lines can be filtered per subsystem.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
