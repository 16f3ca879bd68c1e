package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScanValidation(t *testing.T) {
	app := fiber.New()
	app.Post("/api/v1/graphql/scans", CreateScan)

	body, _ := json.Marshal(map[string]any{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/graphql/scans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAndGetScan(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"__typename": "Query"}}`))
	}))
	defer upstream.Close()

	app := fiber.New()
	app.Post("/api/v1/graphql/scans", CreateScan)
	app.Get("/api/v1/graphql/scans/:id", GetScan)

	body, _ := json.Marshal(map[string]any{
		"url": upstream.URL,
		"user_contexts": []map[string]any{
			{"id": "alice", "auth_token": "t"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/graphql/scans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created CreateScanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Queued", created.Status)

	var lastStatus string
	for i := 0; i < 50; i++ {
		getReq := httptest.NewRequest(http.MethodGet, "/api/v1/graphql/scans/"+strconv.FormatUint(uint64(created.ID), 10), nil)
		getResp, err := app.Test(getReq)
		require.NoError(t, err)
		if getResp.StatusCode == http.StatusOK {
			var job map[string]any
			require.NoError(t, json.NewDecoder(getResp.Body).Decode(&job))
			lastStatus, _ = job["status"].(string)
			if lastStatus == "Completed" || lastStatus == "Failed" {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("scan job did not settle, last status: %s", lastStatus)
}
