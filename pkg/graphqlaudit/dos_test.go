package graphqlaudit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDoSProbes_DepthAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Query string `json:"query"` }
		json.NewDecoder(r.Body).Decode(&body)
		if strings.Contains(body.Query, "node") || strings.Contains(body.Query, "viewer") {
			w.Write([]byte(`{"data": {"ok": true}}`))
			return
		}
		w.Write([]byte(`{"data": {"users": []}}`))
	}))
	defer server.Close()

	sink := newFindingSink()
	RunDoSProbes(context.Background(), NewTransport(), server.URL, nil, nil, sink)

	findings := sink.all()
	var depthFinding *VulnerabilityFinding
	for i := range findings {
		if findings[i].Title == "Potencial DoS por Profundidad" {
			depthFinding = &findings[i]
		}
	}
	require.NotNil(t, depthFinding)
	assert.Equal(t, SeverityMedium, depthFinding.Severity)
	assert.Contains(t, depthFinding.Description, "profundidad 7")
}

func TestRunDoSProbes_DepthLimitEnforced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "query depth limit exceeded"}]}`))
	}))
	defer server.Close()

	sink := newFindingSink()
	RunDoSProbes(context.Background(), NewTransport(), server.URL, nil, nil, sink)

	for _, f := range sink.all() {
		assert.NotContains(t, f.Title, "Profundidad")
	}
}

func TestRunDoSProbes_PaginationOver100(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Query string `json:"query"` }
		json.NewDecoder(r.Body).Decode(&body)

		if strings.Contains(body.Query, "users {") {
			items := make([]map[string]string, 150)
			for i := range items {
				items[i] = map[string]string{"id": "x"}
			}
			resp := map[string]any{"data": map[string]any{"users": items}}
			raw, _ := json.Marshal(resp)
			w.Write(raw)
			return
		}
		w.Write([]byte(`{"errors": [{"message": "depth limit exceeded"}]}`))
	}))
	defer server.Close()

	schema := &Schema{QueryFields: []FieldDef{{Name: "users", Type: TypeRef{Kind: TypeKindList, OfType: &TypeRef{Name: "User"}}}}}

	sink := newFindingSink()
	RunDoSProbes(context.Background(), NewTransport(), server.URL, nil, schema, sink)

	var found bool
	for _, f := range sink.all() {
		if f.Title == "Potencial DoS por Falta de Paginación" {
			found = true
			assert.Equal(t, SeverityHigh, f.Severity)
			assert.Contains(t, f.Description, "150")
		}
	}
	assert.True(t, found)
}
