package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.BuildTime)
}

func TestLinkedValuesWin(t *testing.T) {
	prevCommit, prevTime := Commit, BuildTime
	t.Cleanup(func() { Commit, BuildTime = prevCommit, prevTime })
	Commit, BuildTime = "abc1234", "2026-01-02T03:04:05Z"

	info := Get()

	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildTime)
	assert.Equal(t, "expressgen version "+Version+" (commit abc1234, built 2026-01-02T03:04:05Z)", info.String())
}

func TestFull(t *testing.T) {
	full := Info{Version: "v1.0.0", Commit: "c", BuildTime: "t", GoVersion: "go1.25.1", Platform: "linux/amd64"}.Full()

	lines := strings.Split(full, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "go version go1.25.1 (linux/amd64)", lines[1])
}
