// Package logx provides the slog-backed implementation of core/log used by expressgen.
//
// Overview:
//   - Responsibility: Structured diagnostics for generation runs in logfmt or JSON
//   - Key Types: Logger implementation, Options, Format
//   - Concurrency Model: All loggers are safe for concurrent use (writer access is serialized)
//   - Error Semantics: No errors returned; write failures are dropped
//   - Performance Notes: Fields sorted per record; diagnostics only, never on the file-writing path
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatJSON), logx.WithLevel(slog.LevelDebug))
//	logger.Info("materialized", log.Int("files", 14))
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/core/runmeta"
	"go.eggybyte.com/egg/expressgen/logx/internal"
)

// Format specifies the output format for logs.
type Format string

const (
	// FormatLogfmt outputs logs in logfmt format (key=value pairs).
	FormatLogfmt Format = internal.FormatLogfmt
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = internal.FormatJSON
)

// Options configures the logger behavior.
type Options struct {
	Format           Format     // Output format: logfmt or json
	Level            slog.Level // Minimum log level
	Color            bool       // Enable colorization for level field only
	Writer           io.Writer  // Output writer (default: os.Stderr)
	SensitiveFields  []string   // Field names to mask
	DisableTimestamp bool       // Disable timestamp in output
}

// Logger implements the core/log.Logger interface.
type Logger struct {
	handler *internal.Handler
	attrs   []slog.Attr
}

// Option configures logger behavior.
type Option func(*Options)

// New creates a new Logger with the given options.
func New(opts ...Option) log.Logger {
	options := Options{
		Format: FormatLogfmt,
		Level:  slog.LevelInfo,
		Writer: os.Stderr,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Writer == nil {
		options.Writer = os.Stderr
	}

	handler := internal.NewHandler(internal.Options{
		Format:           string(options.Format),
		Level:            options.Level,
		Color:            options.Color,
		SensitiveFields:  options.SensitiveFields,
		DisableTimestamp: options.DisableTimestamp,
	}, options.Writer)

	return &Logger{handler: handler}
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithColor enables colorization for the level field only.
func WithColor(enabled bool) Option {
	return func(o *Options) {
		o.Color = enabled
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// WithSensitiveFields sets field names to mask in logs.
func WithSensitiveFields(fields ...string) Option {
	return func(o *Options) {
		o.SensitiveFields = fields
	}
}

// WithoutTimestamp drops the time field, which keeps test output stable.
func WithoutTimestamp() Option {
	return func(o *Options) {
		o.DisableTimestamp = true
	}
}

// ParseLevel maps a config string (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat maps a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatLogfmt:
		return FormatLogfmt, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatLogfmt, fmt.Errorf("unknown log format %q", s)
	}
}

// With returns a new Logger with the given key-value pairs attached.
func (l *Logger) With(kv ...any) log.Logger {
	newAttrs := append([]slog.Attr{}, l.attrs...)
	newAttrs = append(newAttrs, internal.KVToAttrs(kv)...)

	return &Logger{
		handler: l.handler,
		attrs:   newAttrs,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(slog.LevelDebug, msg, internal.KVToAttrs(kv))
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(slog.LevelInfo, msg, internal.KVToAttrs(kv))
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(slog.LevelWarn, msg, internal.KVToAttrs(kv))
}

// Error logs an error message with the error as the "error" field.
func (l *Logger) Error(err error, msg string, kv ...any) {
	attrs := internal.KVToAttrs(kv)
	if err != nil {
		attrs = append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	}
	l.log(slog.LevelError, msg, attrs)
}

func (l *Logger) log(level slog.Level, msg string, attrs []slog.Attr) {
	all := append([]slog.Attr{}, l.attrs...)
	all = append(all, attrs...)
	l.handler.LogRecord(level, msg, all)
}

// FromContext returns base enriched with the run's mode and output directory.
func FromContext(ctx context.Context, base log.Logger) log.Logger {
	run, ok := runmeta.From(ctx)
	if !ok {
		return base
	}

	var attrs []any
	if run.Mode != "" {
		attrs = append(attrs, "mode", run.Mode)
	}
	if run.OutputDir != "" {
		attrs = append(attrs, "output", run.OutputDir)
	}
	if run.DryRun {
		attrs = append(attrs, "dry_run", true)
	}
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}
