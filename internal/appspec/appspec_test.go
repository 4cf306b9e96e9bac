package appspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
)

func TestNewDefaults(t *testing.T) {
	spec, err := New(Params{}, catalog.Default())
	require.NoError(t, err)

	assert.Equal(t, DefaultName, spec.Name())
	assert.Equal(t, 3000, spec.Port())
	assert.Equal(t, FrameworkNone, spec.Framework())
	assert.Empty(t, spec.Services())
	assert.False(t, spec.HasServices())
	assert.Empty(t, spec.SwaggerSource())
}

func TestNewCanonicalizesServices(t *testing.T) {
	spec, err := New(Params{
		Name:     "project",
		Services: []string{"redis", "appid", "REDIS", "watson-conversation"},
	}, catalog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"appid", "redis", "watson conversation"}, spec.Services())
	assert.True(t, spec.HasServices())
}

func TestServicesAccessorCopies(t *testing.T) {
	spec, err := New(Params{Services: []string{"redis"}}, catalog.Default())
	require.NoError(t, err)

	got := spec.Services()
	got[0] = "mutated"
	assert.Equal(t, []string{"redis"}, spec.Services())
}

func TestNewValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		field string
	}{
		{name: "negative port", p: Params{Port: -1}, field: "port"},
		{name: "port too large", p: Params{Port: 70000}, field: "port"},
		{name: "unknown framework", p: Params{Framework: "Koa"}, field: "framework"},
		{name: "unknown service", p: Params{Services: []string{"redis", "kafka"}}, field: "services[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p, catalog.Default())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidation), err.Error())
			assert.Contains(t, errors.DetailsOf(err), errors.Detail{Field: tt.field})
		})
	}
}

func TestParseFramework(t *testing.T) {
	tests := []struct {
		in      string
		want    Framework
		wantErr bool
	}{
		{in: "", want: FrameworkNone},
		{in: "None", want: FrameworkNone},
		{in: "webapp", want: FrameworkWebApp},
		{in: " Microservice ", want: FrameworkMicroservice},
		{in: "Express", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFramework(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "project", want: "project"},
		{name: "TEST_APP", want: "test_app"},
		{name: "My Cool App!", want: "my-cool-app"},
		{name: "..hidden", want: "hidden"},
		{name: "!!!", want: DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := New(Params{Name: tt.name}, catalog.Default())
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.PackageName())
		})
	}
}

func TestParamsRoundTrip(t *testing.T) {
	in := Params{Name: "p", Port: 8080, Framework: "WebApp", Services: []string{"push"}, SwaggerSource: "api.yaml"}
	spec, err := New(in, catalog.Default())
	require.NoError(t, err)

	again, err := New(spec.Params(), catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, spec, again)
}

func TestFrameworksCopy(t *testing.T) {
	fs := Frameworks()
	fs[0] = "x"
	assert.Equal(t, FrameworkNone, Frameworks()[0])
}
