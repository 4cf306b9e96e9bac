// Package testingx provides testing utilities for expressgen.
//
// Overview:
//   - Responsibility: Testing helpers, mocks, and generated-tree assertions
//   - Key Types: MockLogger, Prompter, file assertion helpers
//   - Concurrency Model: MockLogger and Prompter are safe for concurrent use
//   - Error Semantics: Test failures via testing.TB
//   - Performance Notes: Optimized for test execution
//
// Usage:
//
//	logger := testingx.NewMockLogger(t)
//	testingx.AssertFileContent(t, dir, "README.md", "# demo")
package testingx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/core/runmeta"
)

// MockLogger is a mock logger for testing.
type MockLogger struct {
	t       testing.TB
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []any
}

// LogEntry represents a single log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
	Error   error
}

// NewMockLogger creates a new mock logger.
func NewMockLogger(t testing.TB) *MockLogger {
	entries := make([]LogEntry, 0)
	return &MockLogger{
		t:       t,
		mu:      &sync.Mutex{},
		entries: &entries,
	}
}

// With returns a logger sharing this logger's capture with kv prepended to every entry.
func (m *MockLogger) With(kv ...any) log.Logger {
	fields := make([]any, 0, len(m.fields)+len(kv))
	fields = append(fields, m.fields...)
	fields = append(fields, kv...)
	return &MockLogger{t: m.t, mu: m.mu, entries: m.entries, fields: fields}
}

// Debug logs a debug message.
func (m *MockLogger) Debug(msg string, kv ...any) {
	m.log("DEBUG", msg, nil, kv)
}

// Info logs an info message.
func (m *MockLogger) Info(msg string, kv ...any) {
	m.log("INFO", msg, nil, kv)
}

// Warn logs a warning message.
func (m *MockLogger) Warn(msg string, kv ...any) {
	m.log("WARN", msg, nil, kv)
}

// Error logs an error message.
func (m *MockLogger) Error(err error, msg string, kv ...any) {
	m.log("ERROR", msg, err, kv)
}

func (m *MockLogger) log(level, msg string, err error, kv []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields := make([]any, 0, len(m.fields)+len(kv))
	fields = append(fields, m.fields...)
	fields = append(fields, kv...)
	*m.entries = append(*m.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})
}

// Entries returns all log entries.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]LogEntry, len(*m.entries))
	copy(entries, *m.entries)
	return entries
}

// Messages returns the messages logged at level, in order.
func (m *MockLogger) Messages(level string) []string {
	var out []string
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// AssertLogged asserts that a message was logged.
func (m *MockLogger) AssertLogged(level, msg string) {
	m.t.Helper()
	for _, entry := range m.Entries() {
		if entry.Level == level && entry.Message == msg {
			return
		}
	}
	m.t.Errorf("Expected log message not found: level=%s msg=%q", level, msg)
}

// AssertNotLogged asserts that nothing was logged at level.
func (m *MockLogger) AssertNotLogged(level string) {
	m.t.Helper()
	if msgs := m.Messages(level); len(msgs) > 0 {
		m.t.Errorf("Unexpected %s log messages: %q", level, msgs)
	}
}

// Clear clears all log entries.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = (*m.entries)[:0]
}

// Prompter replays canned answers and records every question and remark.
// Ask returns io.EOF once the answers run out.
type Prompter struct {
	mu        sync.Mutex
	answers   []string
	questions []string
	remarks   []string
}

// NewPrompter creates a prompter answering in order.
func NewPrompter(answers ...string) *Prompter {
	return &Prompter{answers: answers}
}

// Ask returns the next canned answer.
func (p *Prompter) Ask(question, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

// Say records a remark.
func (p *Prompter) Say(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	p.remarks = append(p.remarks, format)
}

// Questions returns every question asked so far.
func (p *Prompter) Questions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.questions...)
}

// Remarks returns every remark made so far.
func (p *Prompter) Remarks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.remarks...)
}

// NewContextWithRun creates a context carrying run metadata for testing.
func NewContextWithRun(t testing.TB, run *runmeta.Run) context.Context {
	t.Helper()
	ctx := context.Background()
	if run != nil {
		ctx = runmeta.With(ctx, run)
	}
	return ctx
}

// AssertError asserts that an error has the expected code.
func AssertError(t testing.TB, err error, expectedCode errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %s, got nil", expectedCode)
	}

	code := errors.CodeOf(err)
	if code != expectedCode {
		t.Errorf("Expected error code %s, got %s (%v)", expectedCode, code, err)
	}
}

// AssertFile asserts that every path exists under dir as a regular file.
func AssertFile(t testing.TB, dir string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		if assert.NoError(t, err, "expected file %s", p) {
			assert.True(t, info.Mode().IsRegular(), "expected %s to be a regular file", p)
		}
	}
}

// AssertNoFile asserts that no path exists under dir.
func AssertNoFile(t testing.TB, dir string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		assert.True(t, os.IsNotExist(err), "expected no file %s", p)
	}
}

// AssertFileContent asserts that the file at dir/path contains every substring.
func AssertFileContent(t testing.TB, dir, path string, substrings ...string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	require.NoError(t, err, "read %s", path)
	for _, s := range substrings {
		assert.Contains(t, string(data), s, "file %s", path)
	}
}

// AssertJSONFileContent asserts that the JSON file at dir/path contains want
// as a subset: every key in want must be present with an equal value, recursively.
func AssertJSONFileContent(t testing.TB, dir, path string, want map[string]any) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	require.NoError(t, err, "read %s", path)
	AssertJSONSubset(t, data, want)
}

// AssertJSONSubset asserts that the JSON document data contains want as a subset.
func AssertJSONSubset(t testing.TB, data []byte, want map[string]any) {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assertSubset(t, "", got, want)
}

func assertSubset(t testing.TB, prefix string, got, want map[string]any) {
	t.Helper()
	for k, w := range want {
		key := prefix + k
		g, ok := got[k]
		if !assert.True(t, ok, "missing key %s", key) {
			continue
		}
		if wm, ok := w.(map[string]any); ok {
			gm, ok := g.(map[string]any)
			if assert.True(t, ok, "key %s is not an object", key) {
				assertSubset(t, key+".", gm, wm)
			}
			continue
		}
		assert.Equal(t, normalize(w), g, "key %s", key)
	}
}

// normalize converts Go literals to the types encoding/json decodes into.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
