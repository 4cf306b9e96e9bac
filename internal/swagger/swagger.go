// Package swagger parses the API description that drives route generation.
//
// Overview:
//   - Responsibility: Read Swagger 2.0 or OpenAPI 3.x (JSON or YAML) and group operations into resources
//   - Key Types: Document, Resource, Operation
//   - Concurrency Model: Document is immutable after Load and safe for concurrent reads
//   - Error Semantics: Missing, unreadable or malformed descriptions fail with a TEMPLATE error naming the file
//   - Performance Notes: Whole file read into memory; descriptions are small
//
// Usage:
//
//	doc, err := swagger.Load("api/person_dino.json")
//	for _, r := range doc.Resources() { ... }
package swagger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"go.eggybyte.com/egg/expressgen/core/errors"
)

// methods lists the HTTP methods a path item may declare, in emission order.
var methods = []string{"get", "put", "post", "delete", "options", "head", "patch"}

// Parameter is one declared operation parameter.
type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in" yaml:"in"`
	Required bool   `json:"required" yaml:"required"`
}

// Operation is one method on one path.
type Operation struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Parameters  []Parameter
}

// ExpressPath converts {param} templates to Express :param form.
func (o Operation) ExpressPath() string {
	var b strings.Builder
	for _, seg := range strings.Split(o.Path, "/") {
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteByte(':')
			b.WriteString(seg[1 : len(seg)-1])
			continue
		}
		b.WriteString(seg)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Handler returns a JavaScript identifier for the operation's handler function.
// Names that are reserved words, or that the router module already binds,
// get a Handler suffix.
func (o Operation) Handler() string {
	id := jsIdentifier(o.OperationID)
	if id == "" {
		id = jsIdentifier(o.Method + " " + strings.NewReplacer("{", "by ", "}", "").Replace(o.Path))
	}
	if _, taken := reserved[id]; taken {
		return id + "Handler"
	}
	return id
}

// reserved holds ECMAScript reserved words plus the bindings a generated
// router module declares.
var reserved = map[string]struct{}{
	"await": {}, "break": {}, "case": {}, "catch": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {},
	"enum": {}, "export": {}, "extends": {}, "false": {}, "finally": {}, "for": {},
	"function": {}, "if": {}, "implements": {}, "import": {}, "in": {}, "instanceof": {},
	"interface": {}, "let": {}, "new": {}, "null": {}, "package": {}, "private": {},
	"protected": {}, "public": {}, "return": {}, "static": {}, "super": {}, "switch": {},
	"this": {}, "throw": {}, "true": {}, "try": {}, "typeof": {}, "var": {}, "void": {},
	"while": {}, "with": {}, "yield": {}, "arguments": {}, "eval": {},
	"express": {}, "router": {}, "app": {}, "module": {}, "require": {}, "exports": {},
}

// Resource groups the operations sharing a first path segment.
type Resource struct {
	Name       string
	Operations []Operation
}

// FileName returns the router file name for the resource, e.g. persons.js.
func (r Resource) FileName() string {
	return r.Name + ".js"
}

// Document is a parsed API description.
type Document struct {
	Source     string
	Version    string
	Title      string
	BasePath   string
	operations []Operation
	raw        map[string]any
}

type rawOperation struct {
	OperationID string      `json:"operationId" yaml:"operationId"`
	Summary     string      `json:"summary" yaml:"summary"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
}

type rawPathItem struct {
	Get     *rawOperation `json:"get" yaml:"get"`
	Put     *rawOperation `json:"put" yaml:"put"`
	Post    *rawOperation `json:"post" yaml:"post"`
	Delete  *rawOperation `json:"delete" yaml:"delete"`
	Options *rawOperation `json:"options" yaml:"options"`
	Head    *rawOperation `json:"head" yaml:"head"`
	Patch   *rawOperation `json:"patch" yaml:"patch"`
}

func (p rawPathItem) byMethod(method string) *rawOperation {
	switch method {
	case "get":
		return p.Get
	case "put":
		return p.Put
	case "post":
		return p.Post
	case "delete":
		return p.Delete
	case "options":
		return p.Options
	case "head":
		return p.Head
	case "patch":
		return p.Patch
	}
	return nil
}

type rawDocument struct {
	Swagger  string `json:"swagger" yaml:"swagger"`
	OpenAPI  string `json:"openapi" yaml:"openapi"`
	BasePath string `json:"basePath" yaml:"basePath"`
	Info     struct {
		Title string `json:"title" yaml:"title"`
	} `json:"info" yaml:"info"`
	Paths map[string]rawPathItem `json:"paths" yaml:"paths"`
}

// Load reads and parses the API description at path.
//
// Parameters:
//   - path: File path; .json files (or content starting with '{') are decoded as JSON, anything else as YAML
//
// Returns:
//   - *Document: Parsed description with at least one operation
//   - error: TEMPLATE error naming the file
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Reads the whole file; parses it twice (typed view and generic view)
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Build(errors.CodeTemplate).
			WithOp("swagger.Load").
			WithErr(err).
			WithMsgf("cannot read API description %s", path).
			WithPath(path).
			Err()
	}

	doc, err := Parse(data, isJSON(path, data))
	if err != nil {
		return nil, errors.Build(errors.CodeTemplate).
			WithOp("swagger.Load").
			WithErr(err).
			WithMsgf("malformed API description %s", path).
			WithPath(path).
			Err()
	}
	doc.Source = path
	return doc, nil
}

func isJSON(path string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// Parse decodes an API description already in memory.
func Parse(data []byte, asJSON bool) (*Document, error) {
	var typed rawDocument
	var generic map[string]any

	if asJSON {
		if err := json.Unmarshal(data, &typed); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &typed); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	version := typed.Swagger
	switch {
	case typed.Swagger == "2.0":
	case strings.HasPrefix(typed.OpenAPI, "3."):
		version = typed.OpenAPI
	default:
		return nil, fmt.Errorf("not a Swagger 2.0 or OpenAPI 3 document (swagger=%q openapi=%q)", typed.Swagger, typed.OpenAPI)
	}

	doc := &Document{
		Version:  version,
		Title:    typed.Info.Title,
		BasePath: strings.TrimRight(typed.BasePath, "/"),
		raw:      generic,
	}

	for p, item := range typed.Paths {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("path %q must start with '/'", p)
		}
		for _, m := range methods {
			op := item.byMethod(m)
			if op == nil {
				continue
			}
			doc.operations = append(doc.operations, Operation{
				Method:      m,
				Path:        p,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Parameters:  op.Parameters,
			})
		}
	}
	if len(doc.operations) == 0 {
		return nil, fmt.Errorf("no operations declared under paths")
	}

	sort.Slice(doc.operations, func(i, j int) bool {
		a, b := doc.operations[i], doc.operations[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return methodRank(a.Method) < methodRank(b.Method)
	})
	return doc, nil
}

func methodRank(m string) int {
	for i, candidate := range methods {
		if candidate == m {
			return i
		}
	}
	return len(methods)
}

// Operations returns every declared operation, ordered by path then method.
func (d *Document) Operations() []Operation {
	return append([]Operation(nil), d.operations...)
}

// Resources groups operations by their first static path segment, ordered by name.
func (d *Document) Resources() []Resource {
	index := make(map[string]int)
	var out []Resource
	for _, op := range d.operations {
		name := ResourceName(op.Path)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Resource{Name: name})
		}
		out[i].Operations = append(out[i].Operations, op)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResourceName returns the file-safe resource a path belongs to; "/" and parameter-only paths map to "root".
// Names that would shadow a skeleton router (index, health, public) get an "-api" suffix.
func ResourceName(path string) string {
	var seg string
	for _, s := range strings.Split(path, "/") {
		if s != "" && !strings.HasPrefix(s, "{") {
			seg = s
			break
		}
	}

	var b strings.Builder
	for _, r := range strings.ToLower(seg) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	switch name {
	case "":
		return "root"
	case "index", "health", "public":
		return name + "-api"
	}
	return name
}

// YAML re-encodes the full description as YAML with sorted keys.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.raw); err != nil {
		return nil, errors.Wrap(errors.CodeTemplate, "swagger.YAML", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.CodeTemplate, "swagger.YAML", err)
	}
	return buf.Bytes(), nil
}

func jsIdentifier(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			upper = b.Len() > 0
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
