// Package templates provides template loading and rendering functionality.
//
// Overview:
//   - Responsibility: Load and render the embedded template files of a generated application
//   - Key Types: Loader with a parsed-template cache
//   - Concurrency Model: Loader is safe for concurrent use; parsed templates are cached under a mutex
//   - Error Semantics: Missing, unparsable and failing templates return TEMPLATE errors naming the file
//   - Performance Notes: Each template is parsed once per Loader
//
// Usage:
//
//	loader := templates.NewLoader()
//	rendered, err := loader.LoadAndRender("server/server.js.tmpl", data)
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go.eggybyte.com/egg/expressgen/core/errors"
)

//go:embed templates
var templateFS embed.FS

// Suffix marks template files.
const Suffix = ".tmpl"

// Loader provides template loading and rendering functionality.
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Parsed templates are cached by path
type Loader struct {
	fsys        fs.FS
	templateDir string

	mu     sync.Mutex
	parsed map[string]*template.Template
}

// NewLoader creates a loader over the embedded templates.
func NewLoader() *Loader {
	return NewLoaderFS(templateFS, "templates")
}

// NewLoaderFS creates a loader reading templates under dir in fsys.
//
// Parameters:
//   - fsys: File system holding the templates
//   - dir: Root directory inside fsys
//
// Returns:
//   - *Loader: Template loader instance
func NewLoaderFS(fsys fs.FS, dir string) *Loader {
	return &Loader{
		fsys:        fsys,
		templateDir: dir,
		parsed:      make(map[string]*template.Template),
	}
}

// Funcs returns the functions available inside every template.
//
// HTML output uses the builtin html func; JSON output uses JSON; JavaScript
// string literals use JSString, template-literal text JSTemplate, and line
// comments OneLine.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"Title":      Title,
		"JSON":       JSON,
		"JSString":   JSString,
		"JSTemplate": JSTemplate,
		"OneLine":    OneLine,
	}
}

var title = cases.Title(language.Und)

// Title upper-cases the first letter of every word.
func Title(s string) string {
	return title.String(s)
}

// JSON encodes v as compact JSON without HTML escaping.
func JSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// JSString quotes s as a single-quoted JavaScript string literal.
func JSString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		default:
			writeJSEscaped(&b, r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// JSTemplate escapes s for use as literal text inside a JavaScript template literal.
func JSTemplate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '`':
			b.WriteString("\\`")
		case '$':
			b.WriteString(`\$`)
		default:
			writeJSEscaped(&b, r)
		}
	}
	return b.String()
}

func writeJSEscaped(b *strings.Builder, r rune) {
	switch r {
	case '\\':
		b.WriteString(`\\`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case '\u2028':
		b.WriteString(`\u2028`)
	case '\u2029':
		b.WriteString(`\u2029`)
	default:
		if r < 0x20 {
			fmt.Fprintf(b, `\u%04x`, r)
			return
		}
		b.WriteRune(r)
	}
}

// OneLine collapses every run of whitespace, line terminators included, to one space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LoadTemplate loads a template file.
//
// Parameters:
//   - templatePath: Slash-separated path relative to the templates directory
//
// Returns:
//   - string: Template content
//   - error: TEMPLATE error if the file is missing
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Embedded file system access
func (l *Loader) LoadTemplate(templatePath string) (string, error) {
	content, err := fs.ReadFile(l.fsys, path.Join(l.templateDir, templatePath))
	if err != nil {
		return "", errors.Build(errors.CodeTemplate).
			WithOp("templates.LoadTemplate").
			WithErr(err).
			WithMsgf("failed to load template %s", templatePath).
			WithPath(templatePath).
			Err()
	}
	return string(content), nil
}

// RenderTemplate parses and renders template content with data.
//
// Parameters:
//   - templateContent: Template source
//   - data: Template data
//
// Returns:
//   - string: Rendered content
//   - error: TEMPLATE error on parse or execution failure
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Parses on every call; use LoadAndRender for cached templates
func (l *Loader) RenderTemplate(templateContent string, data any) (string, error) {
	tmpl, err := parse("template", templateContent)
	if err != nil {
		return "", err
	}
	return execute(tmpl, "template", data)
}

// LoadAndRender loads, parses (once) and renders the template at templatePath.
//
// Parameters:
//   - templatePath: Path to template file
//   - data: Template data
//
// Returns:
//   - string: Rendered content
//   - error: TEMPLATE error naming templatePath
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Cached parse, one execution
func (l *Loader) LoadAndRender(templatePath string, data any) (string, error) {
	tmpl, err := l.template(templatePath)
	if err != nil {
		return "", err
	}
	return execute(tmpl, templatePath, data)
}

func (l *Loader) template(templatePath string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tmpl, ok := l.parsed[templatePath]; ok {
		return tmpl, nil
	}
	content, err := l.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	tmpl, err := parse(templatePath, content)
	if err != nil {
		return nil, err
	}
	l.parsed[templatePath] = tmpl
	return tmpl, nil
}

func parse(name, content string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(Funcs()).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, errors.Build(errors.CodeTemplate).
			WithOp("templates.parse").
			WithErr(err).
			WithMsgf("failed to parse template %s", name).
			WithPath(name).
			Err()
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, name string, data any) (string, error) {
	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", errors.Build(errors.CodeTemplate).
			WithOp("templates.execute").
			WithErr(err).
			WithMsgf("failed to render template %s", name).
			WithPath(name).
			Err()
	}
	return result.String(), nil
}

// ListTemplates lists every template file, sorted.
//
// Returns:
//   - []string: Slash-separated template paths relative to the templates directory
//   - error: TEMPLATE error if the directory cannot be walked
func (l *Loader) ListTemplates() ([]string, error) {
	var out []string
	err := fs.WalkDir(l.fsys, l.templateDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, Suffix) {
			out = append(out, strings.TrimPrefix(p, l.templateDir+"/"))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeTemplate, "templates.ListTemplates", err)
	}
	sort.Strings(out)
	return out, nil
}

// ValidateTemplate checks that a template exists and parses.
func (l *Loader) ValidateTemplate(templatePath string) error {
	_, err := l.template(templatePath)
	return err
}

// ValidateAllTemplates parses every template and reports the first failure.
//
// Returns:
//   - int: Number of templates validated
//   - error: TEMPLATE error naming the first broken template
//
// Performance:
//   - Sequential; warms the parse cache
func (l *Loader) ValidateAllTemplates() (int, error) {
	paths, err := l.ListTemplates()
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		if err := l.ValidateTemplate(p); err != nil {
			return 0, err
		}
	}
	return len(paths), nil
}
