package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// newLogger builds the process-wide logger: a zerolog console writer to
// stderr, colorized through go-colorable when stderr is a TTY per
// go-isatty, exposed to the rest of the program as a stdlib *slog.Logger
// via the slog-zerolog bridge so library code never imports zerolog
// directly. -v/--verbose raises the level from Info to Debug.
func newLogger(verbose bool) *slog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	isTTY := isatty.IsTerminal(os.Stderr.Fd())

	var out io.Writer = os.Stderr
	if isTTY {
		out = colorable.NewColorableStderr()
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: !isTTY}).
		Level(level).
		With().Timestamp().Logger()

	handler := slogzerolog.Option{
		Level:  slogLevel(level),
		Logger: &zl,
	}.NewZerologHandler()

	return slog.New(handler)
}

func slogLevel(l zerolog.Level) slog.Level {
	if l <= zerolog.DebugLevel {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
