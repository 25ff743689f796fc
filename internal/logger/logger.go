package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup configures the process-wide log level and returns the root logger.
// format "pretty" wraps stdout in a console writer for development; any
// other value emits JSON lines. Unparseable levels fall back to info.
func Setup(level, format string) zerolog.Logger {
	out := io.Writer(os.Stdout)
	if format == "pretty" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(out).With().Timestamp().Caller().Logger()
}
