// Package materializer renders an application spec into the complete in-memory file tree.
//
// Overview:
//   - Responsibility: Choose the templates a spec needs, render them, and assemble a FileSet
//   - Key Types: Materializer, FileSet, View (template data)
//   - Concurrency Model: A Materializer may be shared; each call builds its own FileSet
//   - Error Semantics: Any rendering or API-description failure returns a TEMPLATE error and no files
//   - Performance Notes: Templates parse once per loader; output is deterministic and timestamp-free
//
// Usage:
//
//	m := materializer.New(catalog.Default(), templates.NewLoader())
//	files, err := m.Materialize(spec)
package materializer

import (
	"strings"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/internal/appspec"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
	"go.eggybyte.com/egg/expressgen/internal/manifest"
	"go.eggybyte.com/egg/expressgen/internal/swagger"
	"go.eggybyte.com/egg/expressgen/internal/templates"
)

// Output paths with fixed meaning.
const (
	PackageJSON   = "package.json"
	ServicesIndex = catalog.ServicesDir + "/index.js"
	OpenAPIYAML   = "server/api/openapi.yaml"
	RoutersDir    = "server/routers"
)

type entry struct {
	template string
	output   string
}

// baseFiles are rendered for every spec.
var baseFiles = []entry{
	{template: "server/server.js.tmpl", output: "server/server.js"},
	{template: "server/config/local.json.tmpl", output: "server/config/local.json"},
	{template: "server/config/mappings.json.tmpl", output: "server/config/mappings.json"},
	{template: "server/routers/index.js.tmpl", output: RoutersDir + "/index.js"},
	{template: "server/routers/health.js.tmpl", output: RoutersDir + "/health.js"},
	{template: "public/index.html.tmpl", output: "public/index.html"},
	{template: "public/404.html.tmpl", output: "public/404.html"},
	{template: "test/test-server.js.tmpl", output: "test/test-server.js"},
	{template: "project/README.md.tmpl", output: "README.md"},
	{template: "project/gitignore.tmpl", output: ".gitignore"},
	{template: "project/dockerignore.tmpl", output: ".dockerignore"},
	{template: "project/Dockerfile.tmpl", output: "Dockerfile"},
}

// publicRouters selects the server/routers/public.js variant for each framework.
var publicRouters = map[appspec.Framework]string{
	appspec.FrameworkNone:         "server/routers/public-none.js.tmpl",
	appspec.FrameworkWebApp:       "server/routers/public-webapp.js.tmpl",
	appspec.FrameworkMicroservice: "server/routers/public-microservice.js.tmpl",
}

const resourceTemplate = "server/routers/resource.js.tmpl"

// PublicRouterTemplate returns the template rendered into server/routers/public.js for f.
func PublicRouterTemplate(f appspec.Framework) (string, bool) {
	t, ok := publicRouters[f]
	return t, ok
}

// ServiceView is a selected service as seen by templates.
type ServiceView struct {
	catalog.Descriptor
	Var    string // JavaScript identifier, e.g. objectStorage
	Module string // Module name without extension, e.g. service-object-storage
}

// View is the data every template renders against.
type View struct {
	Name        string
	PackageName string
	Port        int
	Framework   string
	Services    []ServiceView
	HasServices bool
	Credentials []catalog.Credential
	HasSwagger  bool
	APITitle    string
	BasePath    string
	Resources   []swagger.Resource
}

// ResourceView is the data for one generated API router.
type ResourceView struct {
	App      *View
	Resource swagger.Resource
}

// Materializer renders specs into file sets.
type Materializer struct {
	catalog   *catalog.Catalog
	templates *templates.Loader
}

// New creates a Materializer.
func New(cat *catalog.Catalog, loader *templates.Loader) *Materializer {
	return &Materializer{catalog: cat, templates: loader}
}

// Materialize renders every file spec implies.
//
// Parameters:
//   - spec: Validated application spec
//
// Returns:
//   - FileSet: Complete project tree; equal specs give byte-identical sets
//   - error: TEMPLATE error on any rendering or API-description failure
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - One render per output file; the API description is read once
func (m *Materializer) Materialize(spec *appspec.Spec) (FileSet, error) {
	services, err := m.catalog.Resolve(spec.Services())
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "materializer.Materialize", err)
	}

	view := newView(spec, services)

	var doc *swagger.Document
	if src := spec.SwaggerSource(); src != "" {
		doc, err = swagger.Load(src)
		if err != nil {
			return nil, err
		}
		view.HasSwagger = true
		view.APITitle = doc.Title
		view.Resources = doc.Resources()
		if doc.BasePath != "" {
			view.BasePath = doc.BasePath
		}
	}

	files := make(FileSet)
	render := func(tmpl, out string, data any) error {
		content, err := m.templates.LoadAndRender(tmpl, data)
		if err != nil {
			return err
		}
		files[out] = []byte(content)
		return nil
	}

	for _, e := range baseFiles {
		if err := render(e.template, e.output, view); err != nil {
			return nil, err
		}
	}

	public, ok := PublicRouterTemplate(spec.Framework())
	if !ok {
		return nil, errors.Build(errors.CodeInternal).
			WithOp("materializer.Materialize").
			WithMsgf("no router template for framework %q", spec.Framework()).
			WithField("framework").
			Err()
	}
	if err := render(public, RoutersDir+"/public.js", view); err != nil {
		return nil, err
	}

	if view.HasServices {
		if err := render("server/services/index.js.tmpl", ServicesIndex, view); err != nil {
			return nil, err
		}
		for _, d := range services {
			if err := render(d.TemplatePath(), d.OutputPath(), view); err != nil {
				return nil, err
			}
		}
	}

	if doc != nil {
		for _, r := range view.Resources {
			if err := render(resourceTemplate, RoutersDir+"/"+r.FileName(), ResourceView{App: view, Resource: r}); err != nil {
				return nil, err
			}
		}
		yaml, err := doc.YAML()
		if err != nil {
			return nil, err
		}
		files[OpenAPIYAML] = yaml
	}

	pkg, err := manifest.Build(spec, services)
	if err != nil {
		return nil, err
	}
	files[PackageJSON] = pkg

	return files, nil
}

func newView(spec *appspec.Spec, services []catalog.Descriptor) *View {
	view := &View{
		Name:        spec.Name(),
		PackageName: spec.PackageName(),
		Port:        spec.Port(),
		Framework:   string(spec.Framework()),
		HasServices: len(services) > 0,
		BasePath:    "/",
	}
	for _, d := range services {
		view.Services = append(view.Services, ServiceView{
			Descriptor: d,
			Var:        camel(d.Slug),
			Module:     strings.TrimSuffix(d.FileName(), ".js"),
		})
		view.Credentials = append(view.Credentials, d.Credentials...)
	}
	return view
}

// camel converts a dash-separated slug to lowerCamelCase.
func camel(slug string) string {
	parts := strings.Split(slug, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
