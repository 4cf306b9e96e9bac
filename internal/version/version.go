// Package version provides build metadata for the expressgen binary.
//
// Overview:
//   - Responsibility: Version, commit and build time reporting
//   - Key Types: Info
//   - Concurrency Model: Package variables set once at link time; safe for concurrent reads
//   - Error Semantics: No errors
//   - Performance Notes: Zero-cost lookups
//
// Usage:
//
//	go build -ldflags "-X go.eggybyte.com/egg/expressgen/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version, set with -ldflags at release time.
var Version = "v0.1.0-dev"

// Commit is the git commit hash; falls back to the VCS stamp embedded by the go tool.
var Commit = ""

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = ""

// Info is the JSON shape of the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the current build metadata, filling blanks from debug.ReadBuildInfo.
//
// Returns:
//   - Info: Build metadata; unknown fields read "unknown"
//
// Concurrency:
//   - Safe for concurrent use
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" && len(s.Value) >= 7 {
					info.Commit = s.Value[:7]
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

// String returns the one-line form used by --version.
func (i Info) String() string {
	return fmt.Sprintf("expressgen version %s (commit %s, built %s)", i.Version, i.Commit, i.BuildTime)
}

// Full returns the multi-line form used by the version command.
func (i Info) Full() string {
	return fmt.Sprintf("%s\ngo version %s (%s)", i.String(), i.GoVersion, i.Platform)
}
