// Package manifest builds the package.json of a generated application.
//
// Overview:
//   - Responsibility: Fixed npm metadata plus the merged dependency set of the selected services
//   - Key Types: Manifest, Dependencies
//   - Concurrency Model: Pure functions over immutable inputs
//   - Error Semantics: Encoding failures return INTERNAL errors
//   - Performance Notes: One JSON encode per build
//
// Usage:
//
//	data, err := manifest.Build(spec, descriptors)
package manifest

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/mod/semver"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/internal/appspec"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
)

// Fixed package metadata.
const (
	Version     = "1.0.0"
	Description = "A generated IBM Cloud application"
	NodeEngine  = "^8.11.1"
	Entrypoint  = "server/server.js"
	StartScript = "node $npm_package_config_entrypoint"
	TestScript  = "nyc mocha --exit"
)

// Dependencies maps npm package names to semver ranges.
type Dependencies map[string]string

// BaseDependencies returns the runtime dependencies of every generated application.
func BaseDependencies() Dependencies {
	return Dependencies{
		"appmetrics-dash": "^4.1.0",
		"body-parser":     "^1.18.3",
		"express":         "^4.16.4",
		"log4js":          "^4.0.2",
	}
}

// DevDependencies returns the test tooling of every generated application.
func DevDependencies() Dependencies {
	return Dependencies{
		"chai":  "^4.2.0",
		"mocha": "^6.0.0",
		"nyc":   "^13.3.0",
	}
}

// Manifest is the package.json document. Field order is the emitted key order.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Private         bool              `json:"private"`
	Engines         map[string]string `json:"engines"`
	Config          map[string]string `json:"config"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    Dependencies      `json:"dependencies"`
	DevDependencies Dependencies      `json:"devDependencies"`
}

// New assembles the manifest for spec and its resolved services.
func New(spec *appspec.Spec, services []catalog.Descriptor) Manifest {
	sets := make([]Dependencies, 0, len(services)+1)
	sets = append(sets, BaseDependencies())
	for _, d := range services {
		sets = append(sets, d.Dependencies)
	}

	return Manifest{
		Name:        spec.PackageName(),
		Version:     Version,
		Description: Description,
		Private:     true,
		Engines:     map[string]string{"node": NodeEngine},
		Config:      map[string]string{"entrypoint": Entrypoint},
		Scripts: map[string]string{
			"start": StartScript,
			"test":  TestScript,
		},
		Dependencies:    Merge(sets...),
		DevDependencies: DevDependencies(),
	}
}

// Build renders package.json for spec and its resolved services.
//
// Parameters:
//   - spec: Validated application spec
//   - services: Resolved catalog descriptors
//
// Returns:
//   - []byte: Two-space indented JSON with sorted map keys and a trailing newline
//   - error: INTERNAL error if encoding fails
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Linear in the number of dependencies
func Build(spec *appspec.Spec, services []catalog.Descriptor) ([]byte, error) {
	return Encode(New(spec, services))
}

// Encode writes m as indented JSON without HTML escaping.
func Encode(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "manifest.Encode", err)
	}
	return buf.Bytes(), nil
}

// Merge unions dependency sets; on conflict the higher constraint wins.
func Merge(sets ...Dependencies) Dependencies {
	out := make(Dependencies)
	for _, set := range sets {
		for name, version := range set {
			if current, ok := out[name]; ok {
				out[name] = Higher(current, version)
				continue
			}
			out[name] = version
		}
	}
	return out
}

// Higher returns the greater of two version constraints.
// Constraints are compared by their base version after stripping range
// operators; if either does not parse, the lexically greater string wins.
func Higher(a, b string) string {
	va, vb := canonical(a), canonical(b)
	if va == "" || vb == "" {
		if b > a {
			return b
		}
		return a
	}
	switch c := semver.Compare(va, vb); {
	case c < 0:
		return b
	case c > 0:
		return a
	}
	// Same base version: keep a stable choice.
	if b > a {
		return b
	}
	return a
}

// canonical strips range operators and returns a semver string with a "v" prefix, or "".
func canonical(constraint string) string {
	s := strings.TrimSpace(constraint)
	s = strings.TrimLeft(s, "^~>=< ")
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return ""
	}
	v := "v" + s
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
