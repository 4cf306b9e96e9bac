package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/egg/expressgen/internal/catalog"
	"go.eggybyte.com/egg/expressgen/internal/templates"
	"go.eggybyte.com/egg/expressgen/testingx"
)

type outcome struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) outcome {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return outcome{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decodeResult(t *testing.T, out string) summary {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	var last *summary
	for dec.More() {
		var msg struct {
			Level string  `json:"level"`
			Data  summary `json:"data"`
		}
		require.NoError(t, dec.Decode(&msg), out)
		if msg.Level == "success" {
			last = &msg.Data
		}
	}
	require.NotNil(t, last, "no success message in %s", out)
	return *last
}

func TestGenerateHeadless(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")

	out := execute(t, "", "--headless", `{"name":"demo","services":["redis"]}`, "-o", dir)

	require.Equal(t, 0, out.code, out.stderr)
	testingx.AssertFile(t, dir, "package.json", "server/server.js", "server/services/service-redis.js")
	assert.Contains(t, out.stdout, "Generated 16 files for demo in "+dir)
	assert.Contains(t, out.stderr, "files committed")
}

func TestGenerateJSONOutput(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "", "--headless", `{}`, "--output", dir, "--json", "--log-format", "json")

	require.Equal(t, 0, out.code, out.stderr)
	s := decodeResult(t, out.stdout)
	assert.Equal(t, "app", s.Name)
	assert.Equal(t, "headless", s.Mode)
	assert.True(t, s.Committed)
	assert.Contains(t, s.Files, "package.json")
	assert.Len(t, s.Digest, 64)
	assert.Contains(t, out.stderr, `"msg":"files committed"`)
}

func TestGenerateDryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	out := execute(t, "", "--headless", `{}`, "-o", dir, "--dry-run")

	require.Equal(t, 0, out.code, out.stderr)
	assert.Contains(t, out.stdout, "Dry run: 14 files for app would be written to "+dir)
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateInteractive(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "demo\n4000\n\nn\n", "-o", dir)

	require.Equal(t, 0, out.code, out.stderr)
	assert.Contains(t, out.stdout, "Application name [app]: ")
	testingx.AssertJSONFileContent(t, dir, "server/config/local.json", map[string]any{"port": 4000})
	testingx.AssertJSONFileContent(t, dir, "package.json", map[string]any{"name": "demo"})
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown service", args: []string{"--headless", `{"services":["kafka"]}`}, want: "VALIDATION"},
		{name: "bad framework", args: []string{"--spec", `{}`, "--framework", "Rails"}, want: "VALIDATION"},
		{name: "no payload without prompts", args: []string{"--non-interactive"}, want: "VALIDATION"},
		{name: "missing swagger", args: []string{"--headless", `{"swaggerFileName":"nope.yaml"}`}, want: "TEMPLATE"},
		{name: "bad workers", args: []string{"--headless", `{}`, "--workers", "0"}, want: "output.workers"},
		{name: "unknown flag", args: []string{"--nope"}, want: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")

			out := execute(t, "", append(tt.args, "-o", dir)...)

			assert.Equal(t, 1, out.code)
			assert.Contains(t, out.stderr, "ERROR:")
			assert.Contains(t, out.stderr, tt.want)
			_, err := os.Stat(dir)
			assert.True(t, os.IsNotExist(err), "nothing written")
		})
	}
}

func TestGenerateRefusesThenForces(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, 0, execute(t, "", "--headless", `{}`, "-o", dir).code)

	out := execute(t, "", "--headless", `{}`, "-o", dir)
	assert.Equal(t, 1, out.code)
	assert.Contains(t, out.stderr, "WRITE")
	assert.Contains(t, out.stderr, "use --force to overwrite")

	out = execute(t, "", "--headless", `{}`, "-o", dir, "--force")
	assert.Equal(t, 0, out.code, out.stderr)
	assert.NotContains(t, out.stdout, "WARN:")

	out = execute(t, "", "--headless", `{}`, "-o", dir, "--force", "--dry-run")
	assert.Equal(t, 0, out.code, out.stderr)
	assert.Contains(t, out.stdout, "WARN: overwrite has no effect with --dry-run")
}

func TestGenerateConfigLayers(t *testing.T) {
	base := t.TempDir()
	fromFile := filepath.Join(base, "from-file")
	cfgPath := filepath.Join(base, "expressgen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  dir: "+fromFile+"\nlog:\n  level: warn\n"), 0o644))

	out := execute(t, "", "--headless", `{}`, "--config", cfgPath)
	require.Equal(t, 0, out.code, out.stderr)
	testingx.AssertFile(t, fromFile, "package.json")
	assert.NotContains(t, out.stderr, "files committed", "info logs suppressed at warn")

	fromEnv := filepath.Join(base, "from-env")
	t.Setenv("EXPRESSGEN_OUTPUT_DIR", fromEnv)
	out = execute(t, "", "--headless", `{}`, "--config", cfgPath)
	require.Equal(t, 0, out.code, out.stderr)
	testingx.AssertFile(t, fromEnv, "package.json")

	fromFlag := filepath.Join(base, "from-flag")
	out = execute(t, "", "--headless", `{}`, "--config", cfgPath, "-o", fromFlag)
	require.Equal(t, 0, out.code, out.stderr)
	testingx.AssertFile(t, fromFlag, "package.json")
}

func TestValidate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	payload := `{"name":"demo","services":["push"]}`

	out := execute(t, "", "validate", "--headless", payload, "--json")
	require.Equal(t, 0, out.code, out.stderr)
	validated := decodeResult(t, out.stdout)
	assert.False(t, validated.Committed)

	out = execute(t, "", "--headless", payload, "-o", dir, "--json")
	require.Equal(t, 0, out.code, out.stderr)
	generated := decodeResult(t, out.stdout)

	assert.Equal(t, generated.Digest, validated.Digest)
	assert.Equal(t, generated.Files, validated.Files)
}

func TestValidateSteps(t *testing.T) {
	names, err := templates.NewLoader().ListTemplates()
	require.NoError(t, err)

	out := execute(t, "", "validate", "--headless", `{"name":"demo"}`)

	require.Equal(t, 0, out.code, out.stderr)
	assert.Contains(t, out.stdout, fmt.Sprintf("  [1/2] Parsed %d templates\n", len(names)))
	assert.Contains(t, out.stdout, "  [2/2] Rendered 14 files\n")
	assert.Contains(t, out.stdout, "demo: 14 files, digest ")
}

func TestValidateReportsErrors(t *testing.T) {
	out := execute(t, "", "validate", "--headless", `{"port":70000}`)

	assert.Equal(t, 1, out.code)
	assert.Contains(t, out.stderr, "VALIDATION")
}

func TestServices(t *testing.T) {
	out := execute(t, "", "services")
	require.Equal(t, 0, out.code, out.stderr)

	lines := strings.Split(strings.TrimSpace(out.stdout), "\n")
	assert.Len(t, lines, len(catalog.Default().All())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out.stdout, "redis@^2.8.0")

	out = execute(t, "", "services", "--json")
	require.Equal(t, 0, out.code, out.stderr)
	var msg struct {
		Data []serviceRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.stdout), &msg))
	assert.Len(t, msg.Data, len(catalog.Default().All()))
}

func TestFrameworks(t *testing.T) {
	out := execute(t, "", "frameworks")

	require.Equal(t, 0, out.code, out.stderr)
	for _, name := range []string{"None", "WebApp", "Microservice"} {
		assert.Contains(t, out.stdout, name)
	}
}

func TestVersion(t *testing.T) {
	out := execute(t, "", "version")
	require.Equal(t, 0, out.code)
	assert.Contains(t, out.stdout, "expressgen version ")
	assert.Contains(t, out.stdout, "go version ")

	out = execute(t, "", "--version")
	require.Equal(t, 0, out.code)
	assert.True(t, strings.HasPrefix(out.stdout, "expressgen version "))
}
