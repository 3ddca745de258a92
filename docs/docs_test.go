package docs

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredSpec(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath    string                                `json:"basePath"`
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/", doc.BasePath)
	assert.Greater(t, len(doc.Paths), 50)

	routes := []struct {
		path   string
		method string
	}{
		{"/health", "get"},
		{"/api/auth/login", "post"},
		{"/api/orders/{id}/confirm", "post"},
		{"/api/trials/start", "post"},
		{"/api/admin/subscriptions/{id}/cancel", "post"},
		{"/api/newsletter/admin/messages/{id}/send", "post"},
		{"/api/payments/stripe/webhook", "post"},
	}
	for _, r := range routes {
		ops, ok := doc.Paths[r.path]
		if assert.True(t, ok, r.path) {
			assert.Contains(t, ops, r.method, r.path)
		}
	}

	refs := regexp.MustCompile(`"#/definitions/([^"]+)"`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		assert.Contains(t, doc.Definitions, ref[1])
	}
}
