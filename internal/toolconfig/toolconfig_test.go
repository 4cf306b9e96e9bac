package toolconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/testingx"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expressgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Sources{})
	require.NoError(t, err)

	assert.Equal(t, Config{
		Output: OutputConfig{Dir: ".", Workers: 4},
		Log:    LogConfig{Level: "info", Format: "logfmt"},
	}, *cfg)
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
output:
  dir: ./from-file
  workers: 2
  overwrite: true
log:
  level: debug
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(Sources{File: path})
		require.NoError(t, err)
		assert.Equal(t, "./from-file", cfg.Output.Dir)
		assert.Equal(t, 2, cfg.Output.Workers)
		assert.True(t, cfg.Output.Overwrite)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "logfmt", cfg.Log.Format)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("EXPRESSGEN_OUTPUT_WORKERS", "8")
		t.Setenv("EXPRESSGEN_LOG_FORMAT", "json")

		cfg, err := Load(Sources{File: path})
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Output.Workers)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "./from-file", cfg.Output.Dir)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("EXPRESSGEN_OUTPUT_DIR", "./from-env")

		cfg, err := Load(Sources{File: path, Overrides: map[string]any{
			KeyOutputDir:     "./from-flag",
			KeyOutputWorkers: 1,
		}})
		require.NoError(t, err)
		assert.Equal(t, "./from-flag", cfg.Output.Dir)
		assert.Equal(t, 1, cfg.Output.Workers)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   Sources
		field string
	}{
		{name: "missing file", src: Sources{File: filepath.Join(t.TempDir(), "absent.yaml")}, field: "config"},
		{name: "zero workers", src: Sources{Overrides: map[string]any{KeyOutputWorkers: 0}}, field: "output.workers"},
		{name: "bad level", src: Sources{Overrides: map[string]any{KeyLogLevel: "loud"}}, field: "log.level"},
		{name: "bad format", src: Sources{Overrides: map[string]any{KeyLogFormat: "xml"}}, field: "log.format"},
		{name: "empty dir", src: Sources{Overrides: map[string]any{KeyOutputDir: ""}}, field: "output.dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)

			testingx.AssertError(t, err, errors.CodeValidation)
			assert.Contains(t, errors.DetailsOf(err), errors.Detail{Field: tt.field})
		})
	}
}

func TestEnvKey(t *testing.T) {
	key, value := envKey("EXPRESSGEN_OUTPUT_DIR", "./x")
	assert.Equal(t, "output.dir", key)
	assert.Equal(t, "./x", value)

	key, _ = envKey("EXPRESSGEN_LOG_LEVEL", "debug")
	assert.Equal(t, "log.level", key)
}

func TestConfigLogger(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}
	var buf bytes.Buffer

	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "phase", "commit")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"phase":"commit"`)
}

func TestConfigLoggerMasksSecrets(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "info", Format: "logfmt"}}
	var buf bytes.Buffer

	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("service bound", "apikey", "abc123", "service", "redis")

	assert.NotContains(t, buf.String(), "abc123")
	assert.Contains(t, buf.String(), `apikey="***REDACTED***"`)
	assert.Contains(t, buf.String(), `service="redis"`)
}

func TestConfigLoggerColor(t *testing.T) {
	t.Setenv("EXPRESSGEN_LOG_COLOR", "true")
	cfg, err := Load(Sources{})
	require.NoError(t, err)
	require.True(t, cfg.Log.Color)

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Warn("slow")

	assert.Contains(t, buf.String(), "\x1b[")
	assert.NotContains(t, buf.String(), "level=WARN ")
}
