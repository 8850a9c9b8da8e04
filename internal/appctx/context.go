// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cfblog/cfblog-web/internal/cache"
	"github.com/cfblog/cfblog-web/internal/config"
	"github.com/cfblog/cfblog-web/internal/locale"
	"github.com/cfblog/cfblog-web/internal/observability"
	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/taxonomy"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Output *output.Writer

	Gateway  *wp.Client
	Settings *settings.Service
	Store    *settings.Store
	Taxonomy *taxonomy.Service
	Renderer *richtext.Renderer
	Locale   locale.Locale

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.Hooks

	// Flags holds the global flag values
	Flags GlobalFlags

	level   *slog.LevelVar
	logFile io.Closer
	stderr  io.Writer
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON   bool
	Quiet  bool
	Styled bool
	JQ     string

	// Connection flags
	APIURL  string
	SiteURL string

	// Behavior flags
	Verbose int // 0=warnings, 1=info + cache misses, 2=debug + every request
	Stats   bool
}

// NewApp wires every service from cfg. Nothing talks to the API until a
// command asks for data.
func NewApp(cfg *config.Config) *App {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	logOpts := observability.LoggerOptions{
		Level: level,
		JSON:  strings.EqualFold(cfg.LogFormat, "json"),
	}
	var logFile io.Closer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: path comes from config
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", cfg.LogFile, err)
		} else {
			logOpts.File = f
			logFile = f
		}
	}
	logger := observability.NewLogger(logOpts)

	// Collector always runs to gather stats; hooks control trace verbosity.
	// Level 0 initially; ApplyFlags sets the actual level from -v flags.
	collector := observability.NewSessionCollector()
	hooks := observability.NewHooks(0, collector, observability.NewTraceWriter())

	gateway := wp.NewClient(cfg.APIURL, wp.WithHooks(hooks), wp.WithLogger(logger))
	svc := settings.NewService(gateway, cfg.CacheTTL, logger, cache.WithObserver(hooks))

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		logger.Warn("ignoring configured output format", "format", cfg.Format)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Output:    output.New(output.Options{Format: format, Writer: os.Stdout}),
		Gateway:   gateway,
		Settings:  svc,
		Store:     settings.NewStore(svc),
		Taxonomy:  taxonomy.NewService(gateway, cfg.TaxonomyTTL, hooks, logger),
		Renderer:  richtext.NewRenderer(richtext.Options{SiteURL: cfg.SiteURL, Style: cfg.HighlightStyle}),
		Locale:    locale.New(cfg.Locale),
		Collector: collector,
		Hooks:     hooks,
		level:     level,
		logFile:   logFile,
		stderr:    os.Stderr,
	}
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() {
	opts := output.Options{Format: output.FormatAuto, Writer: os.Stdout, JQ: a.Flags.JQ}
	if a.Output != nil {
		opts.Writer = a.Output.Out()
	}
	if a.Config != nil {
		if f, err := output.ParseFormat(a.Config.Format); err == nil {
			opts.Format = f
		}
	}
	switch {
	case a.Flags.Quiet:
		opts.Format = output.FormatQuiet
	case a.Flags.JSON:
		opts.Format = output.FormatJSON
	case a.Flags.Styled:
		opts.Format = output.FormatStyled
	}
	a.Output = output.New(opts)

	a.SetVerbosity(a.verbosity())
}

// verbosity combines -v flags with CFBLOG_DEBUG ("1", "2" or "true").
func (a *App) verbosity() int {
	level := a.Flags.Verbose
	if debugEnv := os.Getenv("CFBLOG_DEBUG"); debugEnv != "" {
		if n, err := strconv.Atoi(debugEnv); err == nil {
			level = max(level, n)
		} else if debugEnv == "true" {
			level = 2
		}
	}
	return level
}

// SetVerbosity sets both the log level and the trace level.
func (a *App) SetVerbosity(verbose int) {
	if a.level != nil {
		a.level.Set(observability.LevelFor(verbose))
	}
	if a.Hooks != nil {
		a.Hooks.SetLevel(verbose)
	}
}

// ClearCaches drops every cached setting and taxonomy term.
func (a *App) ClearCaches() {
	a.Settings.Clear()
	a.Taxonomy.Clear()
}

// Close releases the log file, if any.
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		opts = append(opts, output.WithMeta("stats", a.Collector.Summary()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		a.printStats(a.Collector.Summary())
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

// printStats writes a compact stats line to stderr.
func (a *App) printStats(stats observability.SessionMetrics) {
	var parts []string

	duration := stats.EndTime.Sub(stats.StartTime)
	if duration < time.Second {
		parts = append(parts, fmt.Sprintf("%dms", duration.Milliseconds()))
	} else {
		parts = append(parts, fmt.Sprintf("%.1fs", duration.Seconds()))
	}

	switch stats.TotalRequests {
	case 0:
	case 1:
		parts = append(parts, "1 request")
	default:
		parts = append(parts, fmt.Sprintf("%d requests", stats.TotalRequests))
	}

	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		rate := float64(stats.CacheHits) / float64(lookups) * 100
		parts = append(parts, fmt.Sprintf("%d cached (%.0f%%)", stats.CacheHits, rate))
	}
	if stats.FailedRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", stats.FailedRequests))
	}

	fmt.Fprintf(a.stderr, "\nStats: %s\n", strings.Join(parts, " | "))
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
