// Package internal provides the record formatter behind logx.
package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format names accepted by Options.Format.
const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// Options configures the handler.
type Options struct {
	Format           string     // logfmt or json
	Level            slog.Level // Minimum log level
	Color            bool       // Colorize the level value (logfmt only)
	SensitiveFields  []string   // Field names to mask, e.g. credentials found in bluemix payloads
	DisableTimestamp bool       // Omit the time field
}

// Handler writes one line per record with keys sorted.
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	writer io.Writer
	now    func() time.Time
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts Options, writer io.Writer) *Handler {
	if opts.Format == "" {
		opts.Format = FormatLogfmt
	}
	return &Handler{
		opts:   opts,
		mu:     &sync.Mutex{},
		writer: writer,
		now:    time.Now,
	}
}

// LogRecord writes a record built by logx.Logger.
func (h *Handler) LogRecord(level slog.Level, msg string, attrs []slog.Attr) {
	h.handle(level, msg, attrs)
}

func (h *Handler) handle(level slog.Level, msg string, attrs []slog.Attr) {
	if level < h.opts.Level {
		return
	}

	sorted := SortAttrs(attrs)

	var line []byte
	if h.opts.Format == FormatJSON {
		line = h.jsonLine(level, msg, sorted)
	} else {
		line = h.logfmtLine(level, msg, sorted)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.writer.Write(line)
}

func (h *Handler) logfmtLine(level slog.Level, msg string, attrs []slog.Attr) []byte {
	var buf bytes.Buffer

	if !h.opts.DisableTimestamp {
		buf.WriteString("time=")
		buf.WriteString(h.now().Format(time.RFC3339))
		buf.WriteByte(' ')
	}

	levelStr := LevelString(level)
	buf.WriteString("level=")
	if h.opts.Color {
		buf.WriteString(ColorizeLevel(levelStr))
	} else {
		buf.WriteString(levelStr)
	}

	buf.WriteString(" msg=")
	buf.WriteString(fmt.Sprintf("%q", msg))

	for _, attr := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr.Key)
		buf.WriteByte('=')
		buf.WriteString(FormatValue(attr.Key, attr.Value, h.opts))
	}

	buf.WriteByte('\n')
	return buf.Bytes()
}

func (h *Handler) jsonLine(level slog.Level, msg string, attrs []slog.Attr) []byte {
	record := make(map[string]any, len(attrs)+3)
	if !h.opts.DisableTimestamp {
		record["time"] = h.now().Format(time.RFC3339)
	}
	record["level"] = LevelString(level)
	record["msg"] = msg
	for _, attr := range attrs {
		if isSensitive(attr.Key, h.opts.SensitiveFields) {
			record[attr.Key] = redacted
			continue
		}
		record[attr.Key] = jsonValue(attr.Value)
	}

	// encoding/json sorts map keys, which keeps JSON lines stable too.
	data, err := json.Marshal(record)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","msg":%q}`, "log encode failed: "+err.Error()))
	}
	return append(data, '\n')
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Milliseconds()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// KVToAttrs converts key-value pairs to slog.Attr slice.
// Pairs built by core/log helpers arrive as two-element []any values.
func KVToAttrs(kv []any) []slog.Attr {
	flat := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			flat = append(flat, pair[0], pair[1])
			continue
		}
		flat = append(flat, item)
	}

	attrs := make([]slog.Attr, 0, len(flat)/2)
	for i := 0; i < len(flat)-1; i += 2 {
		attrs = append(attrs, slog.Any(fmt.Sprintf("%v", flat[i]), flat[i+1]))
	}
	return attrs
}

// SortAttrs returns a copy of attrs sorted by key.
func SortAttrs(attrs []slog.Attr) []slog.Attr {
	sorted := make([]slog.Attr, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	return sorted
}

const redacted = "***REDACTED***"

func isSensitive(key string, fields []string) bool {
	for _, field := range fields {
		if strings.EqualFold(key, field) {
			return true
		}
	}
	return false
}

// FormatValue formats a slog.Value for logfmt output.
func FormatValue(key string, v slog.Value, opts Options) string {
	if isSensitive(key, opts.SensitiveFields) {
		return fmt.Sprintf("%q", redacted)
	}

	switch v.Kind() {
	case slog.KindString:
		return fmt.Sprintf("%q", v.String())
	case slog.KindInt64:
		return fmt.Sprintf("%d", v.Int64())
	case slog.KindUint64:
		return fmt.Sprintf("%d", v.Uint64())
	case slog.KindFloat64:
		f := v.Float64()
		if f == float64(int64(f)) {
			return fmt.Sprintf("%.0f", f)
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", f), "0"), ".")
	case slog.KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case slog.KindDuration:
		return fmt.Sprintf("%d", v.Duration().Milliseconds())
	case slog.KindTime:
		return fmt.Sprintf("%q", v.Time().Format(time.RFC3339))
	default:
		if list, ok := v.Any().([]string); ok {
			return fmt.Sprintf("%q", strings.Join(list, ","))
		}
		return fmt.Sprintf("%q", v.String())
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// ColorizeLevel adds ANSI color codes to the level value only.
func ColorizeLevel(level string) string {
	const (
		reset   = "\033[0m"
		red     = "\033[31m"
		yellow  = "\033[33m"
		cyan    = "\033[36m"
		magenta = "\033[35m"
	)

	switch level {
	case "DEBUG":
		return magenta + level + reset
	case "INFO":
		return cyan + level + reset
	case "WARN":
		return yellow + level + reset
	case "ERROR":
		return red + level + reset
	default:
		return level
	}
}
