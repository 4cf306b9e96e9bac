package testingx

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/runmeta"
)

func TestMockLoggerCapture(t *testing.T) {
	logger := NewMockLogger(t)
	logger.Debug("debug message", "key", "value")
	logger.Warn("warn message")
	logger.Error(errors.New(errors.CodeWrite, "disk full"), "commit failed")

	entries := logger.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "DEBUG", entries[0].Level)
	assert.Equal(t, []any{"key", "value"}, entries[0].Fields)
	assert.EqualError(t, entries[2].Error, "WRITE: disk full")

	logger.AssertLogged("WARN", "warn message")
	assert.Equal(t, []string{"commit failed"}, logger.Messages("ERROR"))

	logger.Clear()
	assert.Empty(t, logger.Entries())
	logger.AssertNotLogged("WARN")
}

func TestMockLoggerWithSharesCapture(t *testing.T) {
	logger := NewMockLogger(t)
	child := logger.With("phase", "load")

	child.Info("loaded", "files", 3)

	entries := logger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"phase", "load", "files", 3}, entries[0].Fields)
}

func TestPrompter(t *testing.T) {
	p := NewPrompter("demo", "")

	answer, err := p.Ask("Application name", "app")
	require.NoError(t, err)
	assert.Equal(t, "demo", answer)

	answer, err = p.Ask("Port", "3000")
	require.NoError(t, err)
	assert.Empty(t, answer)

	_, err = p.Ask("Swagger", "")
	assert.ErrorIs(t, err, io.EOF)

	p.Say("bad port %d", 0)
	p.Say("plain")

	assert.Equal(t, []string{"Application name", "Port", "Swagger"}, p.Questions())
	assert.Equal(t, []string{"bad port 0", "plain"}, p.Remarks())
}

func TestNewContextWithRun(t *testing.T) {
	ctx := NewContextWithRun(t, &runmeta.Run{Mode: "headless"})
	run, ok := runmeta.From(ctx)
	require.True(t, ok)
	assert.Equal(t, "headless", run.Mode)

	_, ok = runmeta.From(NewContextWithRun(t, nil))
	assert.False(t, ok)
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New(errors.CodeTemplate, "bad"), errors.CodeTemplate)
}

func TestFileAssertions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "server", "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server", "config", "local.json"),
		[]byte(`{"port": 3000, "nested": {"a": [1, 2]}}`), 0o644))

	AssertFile(t, dir, "server/config/local.json")
	AssertNoFile(t, dir, "server/services/index.js")
	AssertFileContent(t, dir, "server/config/local.json", `"port": 3000`)
	AssertJSONFileContent(t, dir, "server/config/local.json", map[string]any{
		"port":   3000,
		"nested": map[string]any{"a": []int{1, 2}},
	})
}
