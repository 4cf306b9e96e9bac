package swagger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"go.eggybyte.com/egg/expressgen/core/errors"
)

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func TestLoadSwagger2JSON(t *testing.T) {
	doc, err := Load(fixture("person_dino.json"))
	require.NoError(t, err)

	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, "Person and Dinosaur API", doc.Title)
	assert.Equal(t, fixture("person_dino.json"), doc.Source)

	var got []string
	for _, op := range doc.Operations() {
		got = append(got, op.Method+" "+op.ExpressPath()+" "+op.Handler())
	}
	assert.Equal(t, []string{
		"get /dinosaurs listDinosaurs",
		"get /dinosaurs/:id getDinosaur",
		"get /persons listPersons",
		"post /persons createPerson",
		"get /persons/:id getPerson",
		"delete /persons/:id deletePersonsById",
	}, got)
}

func TestResourcesGroupByFirstSegment(t *testing.T) {
	doc, err := Load(fixture("person_dino.json"))
	require.NoError(t, err)

	resources := doc.Resources()
	require.Len(t, resources, 2)
	assert.Equal(t, "dinosaurs", resources[0].Name)
	assert.Equal(t, "dinosaurs.js", resources[0].FileName())
	assert.Len(t, resources[0].Operations, 2)
	assert.Equal(t, "persons", resources[1].Name)
	assert.Len(t, resources[1].Operations, 4)
}

func TestLoadOpenAPI3YAML(t *testing.T) {
	doc, err := Load(fixture("petstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.Version)
	ops := doc.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "listPets", ops[0].Handler())
	assert.Equal(t, "/pets/:petId/toys", ops[1].ExpressPath())
	assert.Equal(t, "replace_toys", ops[1].Handler())

	resources := doc.Resources()
	require.Len(t, resources, 1)
	assert.Equal(t, "pets", resources[0].Name)
}

func TestHandlerAvoidsReservedNames(t *testing.T) {
	doc, err := Load(fixture("things.yaml"))
	require.NoError(t, err)

	var got []string
	for _, op := range doc.Operations() {
		got = append(got, op.Method+" "+op.Handler())
	}
	assert.Equal(t, []string{
		"get list",
		"post newHandler",
		"get routerHandler",
		"delete deleteHandler",
	}, got)

	op := Operation{Method: "delete", Path: "/things/{id}"}
	assert.Equal(t, "deleteThingsById", op.Handler())
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "missing file", file: "does-not-exist.json"},
		{name: "malformed json", file: "malformed.json"},
		{name: "no operations", file: "no_paths.json"},
		{name: "not an api description", file: "not_swagger.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(fixture(tt.file))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeTemplate))
			assert.Contains(t, err.Error(), tt.file)
			assert.Equal(t, []errors.Detail{{Path: fixture(tt.file)}}, errors.DetailsOf(err))
		})
	}
}

func TestResourceName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/persons/{id}", want: "persons"},
		{path: "/{tenant}/orders", want: "orders"},
		{path: "/", want: "root"},
		{path: "/{id}", want: "root"},
		{path: "/Line_Items", want: "line-items"},
		{path: "/health", want: "health-api"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ResourceName(tt.path))
		})
	}
}

func TestYAMLReemitsDocument(t *testing.T) {
	doc, err := Load(fixture("person_dino.json"))
	require.NoError(t, err)

	out, err := doc.YAML()
	require.NoError(t, err)

	var back struct {
		Swagger string         `yaml:"swagger"`
		Paths   map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "2.0", back.Swagger)
	assert.Len(t, back.Paths, 4)

	again, err := doc.YAML()
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
