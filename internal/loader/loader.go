// Package loader turns one of the three input modes into a validated appspec.Spec.
//
// Overview:
//   - Responsibility: Pick the input mode by precedence, decode it, and hand raw params to appspec.New
//   - Key Types: Input (tagged union of modes), Loader, Prompter
//   - Concurrency Model: A Loader is stateless apart from its catalog and logger and may be shared
//   - Error Semantics: Malformed payloads and rejected answers fail with VALIDATION naming the option
//   - Performance Notes: Payloads are small JSON strings decoded once
//
// Usage:
//
//	l := loader.New(catalog.Default(), logger)
//	spec, err := l.Load(ctx, loader.Input{Headless: `{"name":"demo"}`}, nil)
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/internal/appspec"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
)

// Input modes, in descending precedence.
const (
	ModeHeadless    = "headless"
	ModeSpec        = "spec"
	ModeInteractive = "interactive"
)

// Input carries every way a user may describe the application.
// Only the highest-precedence populated mode is used.
type Input struct {
	Headless    string // JSON document with name, port, framework, services, swaggerFileName
	Spec        string // JSON document with appname, port, services, swaggerFileName
	Bluemix     string // JSON document whose name overrides the spec appname
	Framework   string // Framework for spec and interactive modes
	Interactive bool   // Whether prompting is allowed when no payload is given
}

// Mode reports which input mode Load will use for in.
func (in Input) Mode() string {
	switch {
	case strings.TrimSpace(in.Headless) != "":
		return ModeHeadless
	case strings.TrimSpace(in.Spec) != "" || strings.TrimSpace(in.Bluemix) != "":
		return ModeSpec
	default:
		return ModeInteractive
	}
}

// Prompter asks the user one question at a time.
// Ask returns io.EOF when no more answers are available.
type Prompter interface {
	Ask(question, def string) (string, error)
	Say(format string, args ...any)
}

// Loader builds specs from input payloads.
type Loader struct {
	catalog *catalog.Catalog
	logger  log.Logger
}

// New creates a Loader resolving services against cat.
func New(cat *catalog.Catalog, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.Nop()
	}
	return &Loader{catalog: cat, logger: logger}
}

// Load decodes the highest-precedence input and validates it.
//
// Parameters:
//   - ctx: Cancels an interactive session between questions
//   - in: Input payloads; lower-precedence payloads are ignored with a warning
//   - p: Prompter for interactive mode; may be nil for the other modes
//
// Returns:
//   - *appspec.Spec: Validated, immutable spec
//   - error: VALIDATION for malformed payloads or values; CANCELED when ctx ends mid-session
//
// Concurrency:
//   - Safe for concurrent use with distinct prompters
//
// Performance:
//   - One JSON decode per payload
func (l *Loader) Load(ctx context.Context, in Input, p Prompter) (*appspec.Spec, error) {
	mode := in.Mode()
	l.warnIgnored(mode, in)

	var (
		params appspec.Params
		err    error
	)
	switch mode {
	case ModeHeadless:
		params, err = decodeHeadless(in)
	case ModeSpec:
		params, err = decodeSpec(in)
	default:
		params, err = l.interview(ctx, in, p)
	}
	if err != nil {
		return nil, err
	}

	spec, err := appspec.New(params, l.catalog)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("spec loaded",
		log.Str("mode", mode),
		log.Str("name", spec.Name()),
		log.Int("port", spec.Port()),
		log.Strs("services", spec.Services()))
	return spec, nil
}

func (l *Loader) warnIgnored(mode string, in Input) {
	if mode != ModeHeadless {
		return
	}
	if strings.TrimSpace(in.Spec) != "" || strings.TrimSpace(in.Bluemix) != "" {
		l.logger.Warn("ignoring lower-precedence input", log.Str("used", ModeHeadless), log.Str("ignored", ModeSpec))
	}
	if strings.TrimSpace(in.Framework) != "" {
		l.logger.Warn("ignoring --framework; headless payload carries its own", log.Str("used", ModeHeadless))
	}
}

type headlessPayload struct {
	Name            string   `json:"name"`
	Port            int      `json:"port"`
	Framework       string   `json:"framework"`
	Services        []string `json:"services"`
	SwaggerFileName string   `json:"swaggerFileName"`
}

func decodeHeadless(in Input) (appspec.Params, error) {
	var payload headlessPayload
	if err := decodeJSON(in.Headless, &payload, true); err != nil {
		return appspec.Params{}, invalidPayload(ModeHeadless, err)
	}
	return appspec.Params{
		Name:          payload.Name,
		Port:          payload.Port,
		Framework:     payload.Framework,
		Services:      payload.Services,
		SwaggerSource: payload.SwaggerFileName,
	}, nil
}

type specPayload struct {
	AppName         string   `json:"appname"`
	Port            int      `json:"port"`
	Services        []string `json:"services"`
	SwaggerFileName string   `json:"swaggerFileName"`
}

type bluemixPayload struct {
	Name string `json:"name"`
}

func decodeSpec(in Input) (appspec.Params, error) {
	var spec specPayload
	if strings.TrimSpace(in.Spec) != "" {
		if err := decodeJSON(in.Spec, &spec, false); err != nil {
			return appspec.Params{}, invalidPayload("spec", err)
		}
	}
	var bluemix bluemixPayload
	if strings.TrimSpace(in.Bluemix) != "" {
		if err := decodeJSON(in.Bluemix, &bluemix, false); err != nil {
			return appspec.Params{}, invalidPayload("bluemix", err)
		}
	}

	name := spec.AppName
	if strings.TrimSpace(bluemix.Name) != "" {
		name = bluemix.Name
	}
	return appspec.Params{
		Name:          name,
		Port:          spec.Port,
		Framework:     in.Framework,
		Services:      spec.Services,
		SwaggerSource: spec.SwaggerFileName,
	}, nil
}

// decodeJSON decodes exactly one JSON object; strict rejects unknown keys.
func decodeJSON(raw string, v any, strict bool) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New(errors.CodeValidation, "trailing data after JSON object")
	}
	return nil
}

func invalidPayload(option string, err error) error {
	return errors.Build(errors.CodeValidation).
		WithOp("loader.Load").
		WithErr(err).
		WithMsgf("invalid --%s payload", option).
		WithField(option).
		Err()
}
