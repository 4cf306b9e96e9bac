// Package ui provides unified operator-facing output and line prompts for expressgen.
//
// Overview:
//   - Responsibility: Status messages, step indicators, and interactive questions
//   - Key Types: Message for JSON output, Console for line-oriented prompting
//   - Concurrency Model: Thread-safe output operations; prompting is single-threaded
//   - Error Semantics: Prompt I/O failures are returned; output failures are dropped
//   - Performance Notes: Unbuffered writes, minimal allocations
//
// Usage:
//
//	ui.Info("Generating %s", name)
//	ui.Error("Generation failed: %v", err)
package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	verbose    bool
	jsonOutput bool
	stdout     io.Writer = os.Stdout
	stderr     io.Writer = os.Stderr
	mu         sync.RWMutex
)

// OutputLevel represents the severity level of a message.
type OutputLevel string

const (
	LevelDebug   OutputLevel = "debug"
	LevelInfo    OutputLevel = "info"
	LevelWarning OutputLevel = "warning"
	LevelError   OutputLevel = "error"
	LevelSuccess OutputLevel = "success"
)

// Message represents a structured output message.
//
// Parameters:
//   - Level: Message severity level
//   - Text: Human-readable message content
//   - Data: Optional structured data for JSON output
//   - Timestamp: When the message was created
//
// Concurrency:
//   - Safe for concurrent access
type Message struct {
	Level     OutputLevel `json:"level"`
	Text      string      `json:"text"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SetVerbose enables or disables debug messages.
func SetVerbose(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enabled
}

// SetJSONOutput enables JSON-formatted output.
func SetJSONOutput(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOutput = enabled
}

// JSONOutput reports whether JSON output is enabled.
func JSONOutput() bool {
	mu.RLock()
	defer mu.RUnlock()
	return jsonOutput
}

// SetOutput redirects standard and error output, returning a function that restores the previous writers.
//
// Parameters:
//   - out: Writer for non-error messages
//   - errOut: Writer for error messages
//
// Returns:
//   - func(): Restores the previous writers
//
// Concurrency:
//   - Thread-safe
func SetOutput(out, errOut io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		mu.Lock()
		defer mu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

// Stdout returns the writer non-error output currently goes to.
func Stdout() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return stdout
}

// output writes a message to the appropriate output stream.
func output(level OutputLevel, data any, format string, args ...any) {
	mu.RLock()
	useJSON := jsonOutput
	useVerbose := verbose
	out, errOut := stdout, stderr
	mu.RUnlock()

	if level == LevelDebug && !useVerbose {
		return
	}

	text := fmt.Sprintf(format, args...)

	if useJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(Message{Level: level, Text: text, Data: data, Timestamp: time.Now()}); err != nil {
			fmt.Fprintf(errOut, "Failed to encode JSON output: %v\n", err)
		}
		return
	}

	writer := out
	if level == LevelError {
		writer = errOut
	}

	var prefix string
	switch level {
	case LevelDebug:
		prefix = "🔍 DEBUG:"
	case LevelInfo:
		prefix = "ℹ️  INFO:"
	case LevelWarning:
		prefix = "⚠️  WARN:"
	case LevelError:
		prefix = "❌ ERROR:"
	case LevelSuccess:
		prefix = "✅ SUCCESS:"
	}

	fmt.Fprintf(writer, "%s %s\n", prefix, text)
}

// Debug outputs a debug message, shown only in verbose mode.
func Debug(format string, args ...any) {
	output(LevelDebug, nil, format, args...)
}

// Info outputs an informational message.
func Info(format string, args ...any) {
	output(LevelInfo, nil, format, args...)
}

// Warning outputs a warning message.
func Warning(format string, args ...any) {
	output(LevelWarning, nil, format, args...)
}

// Error outputs an error message to the error stream.
func Error(format string, args ...any) {
	output(LevelError, nil, format, args...)
}

// Result outputs a success message carrying structured data for JSON consumers.
//
// Parameters:
//   - data: Value encoded under "data" in JSON mode; ignored otherwise
//   - format: Printf-style format string
//   - args: Format arguments
//
// Concurrency:
//   - Thread-safe
func Result(data any, format string, args ...any) {
	output(LevelSuccess, data, format, args...)
}

// Step outputs a step indicator with message.
func Step(step, total int, format string, args ...any) {
	if JSONOutput() {
		Info(format, args...)
		return
	}

	mu.RLock()
	out := stdout
	mu.RUnlock()
	fmt.Fprintf(out, "  [%d/%d] %s\n", step, total, fmt.Sprintf(format, args...))
}

// Console asks questions on a line-oriented terminal.
//
// Parameters:
//   - in: Source of answers, one per line
//   - out: Destination for questions
//
// Concurrency:
//   - Single-threaded (blocks on user input)
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a Console reading answers from in and writing questions to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Ask prints a question with its default and returns the trimmed answer line.
//
// Parameters:
//   - question: Question text
//   - def: Default shown in brackets; returned by the caller when the answer is blank
//
// Returns:
//   - string: Trimmed answer (may be empty)
//   - error: io.EOF when input is exhausted with no answer, or a read error
//
// Concurrency:
//   - Single-threaded (blocks on user input)
func (c *Console) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "❓ %s [%s]: ", question, def)
	} else {
		fmt.Fprintf(c.out, "❓ %s: ", question)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Say prints a line of guidance between questions, such as why an answer was rejected.
func (c *Console) Say(format string, args ...any) {
	fmt.Fprintf(c.out, "   %s\n", fmt.Sprintf(format, args...))
}
