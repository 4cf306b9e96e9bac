// Package appspec defines ApplicationSpec, the canonical validated description of the application to scaffold.
//
// Overview:
//   - Responsibility: Apply defaults, validate fields, and freeze the result for one generation run
//   - Key Types: Spec (immutable descriptor), Params (raw input), Framework
//   - Concurrency Model: Spec is immutable after New and safe for concurrent reads
//   - Error Semantics: Every invalid field fails with a VALIDATION error naming the field
//   - Performance Notes: Built once per run; accessors copy slices
//
// Usage:
//
//	spec, err := appspec.New(appspec.Params{Name: "project", Services: []string{"redis"}}, catalog.Default())
package appspec

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
)

// Defaults applied when a field is absent.
const (
	DefaultName = "app"
	DefaultPort = 3000
)

// Framework selects the route-definition variant rendered into server/routers/public.js.
type Framework string

const (
	// FrameworkNone renders the minimal routing skeleton.
	FrameworkNone Framework = "None"
	// FrameworkWebApp serves the public/ site with an index route and 404 page.
	FrameworkWebApp Framework = "WebApp"
	// FrameworkMicroservice mounts a JSON API router under /api.
	FrameworkMicroservice Framework = "Microservice"
)

var frameworks = []Framework{FrameworkNone, FrameworkWebApp, FrameworkMicroservice}

// Frameworks returns every accepted framework value.
func Frameworks() []Framework {
	return slices.Clone(frameworks)
}

// ParseFramework matches s case-insensitively against the accepted values; "" means None.
func ParseFramework(s string) (Framework, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FrameworkNone, nil
	}
	for _, f := range frameworks {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", errors.Build(errors.CodeValidation).
		WithOp("appspec.ParseFramework").
		WithMsgf("unrecognized framework %q (accepted: %s)", s, joinFrameworks()).
		WithField("framework").
		Err()
}

func joinFrameworks() string {
	names := make([]string, len(frameworks))
	for i, f := range frameworks {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Params is the raw, unvalidated input the loader assembles from any input mode.
type Params struct {
	Name          string
	Port          int
	Framework     string
	Services      []string
	SwaggerSource string
}

// Spec is the immutable application descriptor.
type Spec struct {
	name          string
	port          int
	framework     Framework
	services      []string
	swaggerSource string
}

// checked holds the fields validated through struct tags.
type checked struct {
	Name string `validate:"required,max=214"`
	Port int    `validate:"min=1,max=65535"`
}

var validate = validator.New()

// New applies defaults, validates every field, and returns a frozen Spec.
//
// Parameters:
//   - p: Raw parameters; zero values take defaults
//   - cat: Catalog used to canonicalize and check service identifiers
//
// Returns:
//   - *Spec: Immutable spec
//   - error: VALIDATION error naming the offending field
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - O(n log n) in the number of services
func New(p Params, cat *catalog.Catalog) (*Spec, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = DefaultName
	}
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}

	if err := validate.Struct(checked{Name: name, Port: port}); err != nil {
		return nil, translate(err)
	}

	framework, err := ParseFramework(p.Framework)
	if err != nil {
		return nil, err
	}

	services := make([]string, 0, len(p.Services))
	for i, id := range p.Services {
		canonical, err := cat.Canonical(id)
		if err != nil {
			return nil, errors.Build(errors.CodeValidation).
				WithOp("appspec.New").
				WithErr(err).
				WithMsgf("invalid services[%d]", i).
				WithField(fmt.Sprintf("services[%d]", i)).
				Err()
		}
		services = append(services, canonical)
	}
	slices.Sort(services)
	services = slices.Compact(services)

	return &Spec{
		name:          name,
		port:          port,
		framework:     framework,
		services:      services,
		swaggerSource: strings.TrimSpace(p.SwaggerSource),
	}, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.CodeValidation, "appspec.New", err)
	}

	b := errors.Build(errors.CodeValidation).WithOp("appspec.New")
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", field, fe.Tag(), fe.Value()))
		b.WithField(field)
	}
	return b.WithMsg(strings.Join(msgs, "; ")).Err()
}

// Name returns the display name.
func (s *Spec) Name() string { return s.name }

// Port returns the HTTP port written to server/config/local.json.
func (s *Spec) Port() int { return s.port }

// Framework returns the selected route-definition variant.
func (s *Spec) Framework() Framework { return s.framework }

// Services returns the canonical service identifiers, sorted and distinct.
func (s *Spec) Services() []string { return slices.Clone(s.services) }

// HasServices reports whether any service is selected.
func (s *Spec) HasServices() bool { return len(s.services) > 0 }

// SwaggerSource returns the API description path, or "" when routes use the default skeleton.
func (s *Spec) SwaggerSource() string { return s.swaggerSource }

// PackageName returns the npm package name derived from Name.
func (s *Spec) PackageName() string {
	var b strings.Builder
	for _, r := range strings.ToLower(s.name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	pkg := strings.TrimLeft(b.String(), "._-")
	pkg = strings.TrimRight(pkg, "-")
	if pkg == "" {
		return DefaultName
	}
	return pkg
}

// Params returns the spec's values in raw form, e.g. for display or re-validation.
func (s *Spec) Params() Params {
	return Params{
		Name:          s.name,
		Port:          s.port,
		Framework:     string(s.framework),
		Services:      s.Services(),
		SwaggerSource: s.swaggerSource,
	}
}
