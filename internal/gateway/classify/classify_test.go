package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := New("/admin", "/api", "/static/", "/favicon.ico", "/metrics")

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/", Public},
		{"/products", Public},
		{"/en/products", Public},
		{"/en/admin", Public},
		{"/administrator", Public},
		{"/apiary", Public},
		{"/admin", Administrative},
		{"/admin/", Administrative},
		{"/admin/login", Administrative},
		{"/admin/products/12", Administrative},
		{"/api", Infrastructure},
		{"/api/v1/products", Infrastructure},
		{"/static/css/site.css", Infrastructure},
		{"/favicon.ico", Infrastructure},
		{"/metrics", Infrastructure},
		{"", Public},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
}

func TestClassifyInfrastructureWinsOverAdmin(t *testing.T) {
	c := New("/admin", "/admin/assets")

	assert.Equal(t, Infrastructure, c.Classify("/admin/assets/logo.svg"))
	assert.Equal(t, Administrative, c.Classify("/admin/assets-manager"))
}

func TestRouteClassString(t *testing.T) {
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "administrative", Administrative.String())
	assert.Equal(t, "infrastructure", Infrastructure.String())
}
