package observability

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// LoggerOptions configure NewLogger.
type LoggerOptions struct {
	// Level is the minimum level for the console handler. A *slog.LevelVar
	// lets callers change it later.
	Level slog.Leveler
	// JSON selects JSON output on the console instead of text.
	JSON bool
	// Console defaults to stderr.
	Console io.Writer
	// File, when set, also receives every record at debug level and above as JSON.
	File io.Writer
}

// NewLogger builds the process logger. With a File sink, records are fanned
// out to both the console and the file.
func NewLogger(opts LoggerOptions) *slog.Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(console, hopts)
	} else {
		h = slog.NewTextHandler(console, hopts)
	}

	if opts.File == nil {
		return slog.New(h)
	}
	file := slog.NewJSONHandler(opts.File, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(slogmulti.Fanout(h, file))
}

// LevelFor maps CLI verbosity to a console log level.
func LevelFor(verbose int) slog.Level {
	switch {
	case verbose >= 2:
		return slog.LevelDebug
	case verbose == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
