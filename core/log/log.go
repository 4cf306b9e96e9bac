// Package log defines the logging contract every expressgen stage logs through.
//
// Overview:
//   - Responsibility: Stable structured-logging interface decoupled from its slog backend (logx)
//   - Key Types: Logger interface, key-value helpers, Nop logger
//   - Concurrency Model: Logger implementations must be safe for concurrent use
//   - Error Semantics: Error method takes the error first so it is always a structured field
//   - Performance Notes: Key-value helpers allocate one small slice per field
//
// Usage:
//
//	logger.Info("materialized", log.Int("files", 12), log.Str("digest", d))
package log

import "time"

// Logger defines a structured logging interface compatible with slog concepts.
// Implementations must be safe for concurrent use.
type Logger interface {
	// With returns a new Logger with the given key-value pairs attached.
	With(kv ...any) Logger

	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, kv ...any)

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, kv ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, kv ...any)

	// Error logs an error message with the error and optional key-value pairs.
	Error(err error, msg string, kv ...any)
}

// Str creates a string key-value pair.
func Str(k, v string) any {
	return []any{k, v}
}

// Int creates an integer key-value pair.
func Int(k string, v int) any {
	return []any{k, v}
}

// Bool creates a boolean key-value pair.
func Bool(k string, v bool) any {
	return []any{k, v}
}

// Dur creates a duration key-value pair.
func Dur(k string, v time.Duration) any {
	return []any{k, v}
}

// Strs creates a string-list key-value pair.
func Strs(k string, v []string) any {
	return []any{k, v}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (n nop) With(...any) Logger        { return n }
func (nop) Debug(string, ...any)        {}
func (nop) Info(string, ...any)         {}
func (nop) Warn(string, ...any)         {}
func (nop) Error(error, string, ...any) {}
