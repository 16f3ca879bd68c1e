package graphqlaudit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Post_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Bearer token-a", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"order": {"id": "o1"}}}`))
	}))
	defer server.Close()

	transport := NewTransport()
	resp, transportErr := transport.Post(context.Background(), server.URL, "{ order { id } }", map[string]string{"Authorization": "Bearer token-a"}, 5*time.Second)

	require.Nil(t, transportErr)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "o1", resp.Body.Data["order"].(map[string]any)["id"])
}

func TestTransport_Post_GraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "Forbidden"}]}`))
	}))
	defer server.Close()

	transport := NewTransport()
	resp, transportErr := transport.Post(context.Background(), server.URL, "{ order { id } }", nil, 5*time.Second)

	require.NotNil(t, transportErr)
	assert.Contains(t, transportErr.Error(), "GraphQL Error: Forbidden")
	require.NotNil(t, resp)
	assert.Len(t, resp.Body.Errors, 1)
}

func TestTransport_Post_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "no soup for you"}`))
	}))
	defer server.Close()

	transport := NewTransport()
	resp, transportErr := transport.Post(context.Background(), server.URL, "{ __typename }", nil, 5*time.Second)

	require.NotNil(t, transportErr)
	assert.Contains(t, transportErr.Error(), "API Error 403")
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestTransport_Post_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	transport := NewTransport()
	resp, transportErr := transport.Post(context.Background(), server.URL, "{ __typename }", nil, 5*time.Millisecond)

	require.Nil(t, resp)
	require.NotNil(t, transportErr)
	assert.Equal(t, "Timeout de la petición", transportErr.Error())
}
