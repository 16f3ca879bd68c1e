package graphqlaudit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSchema_Disabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	schema, findings := FetchSchema(context.Background(), NewTransport(), server.URL, nil)

	assert.Nil(t, schema)
	require.Len(t, findings, 1)
	assert.Equal(t, "Introspection Deshabilitada o Fallida", findings[0].Title)
	assert.Equal(t, SeverityLow, findings[0].Severity)
}

func TestFetchSchema_Enabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"__schema": {
			"queryType": {"name": "Query"},
			"mutationType": null,
			"types": [
				{"kind": "OBJECT", "name": "Query", "fields": [
					{"name": "order", "args": [{"name": "id", "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "ID", "ofType": null}}}], "type": {"kind": "OBJECT", "name": "Order", "ofType": null}}
				]},
				{"kind": "OBJECT", "name": "Order", "fields": [
					{"name": "id", "args": [], "type": {"kind": "SCALAR", "name": "ID", "ofType": null}}
				]}
			]
		}}}`))
	}))
	defer server.Close()

	schema, findings := FetchSchema(context.Background(), NewTransport(), server.URL, nil)

	require.NotNil(t, schema)
	require.Len(t, findings, 1)
	assert.Equal(t, "Introspection Habilitada", findings[0].Title)
	require.Len(t, schema.QueryFields, 1)
	assert.Equal(t, "order", schema.QueryFields[0].Name)
}
