// Package api_test tests the read-only status endpoints.
package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promopipe/promokeeper/internal/api"
	"github.com/promopipe/promokeeper/internal/lifecycle"
)

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := api.NewServer(api.NewStore(), t.TempDir(), t.TempDir(), nil)

	rec := doRequest(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	store := api.NewStore()
	srv := api.NewServer(store, t.TempDir(), t.TempDir(), nil)

	t.Run("NoPassYet", func(t *testing.T) {
		rec := doRequest(t, srv.Handler(), "/v1/summary")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("AfterPass", func(t *testing.T) {
		store.Set(api.Report{
			RunID:    "run-123",
			Finished: time.Now(),
			Batches:  lifecycle.Summary{RunID: "run-123", Archived: 2, Purged: 1},
		})

		rec := doRequest(t, srv.Handler(), "/v1/summary")
		require.Equal(t, http.StatusOK, rec.Code)

		var got api.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "run-123", got.RunID)
		assert.Equal(t, 2, got.Batches.Archived)
	})
}

func TestBatchesEndpoint(t *testing.T) {
	output := t.TempDir()
	archive := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(output, "promo_20250528_030000"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(archive, "promo_20250401_030000.tar.gz"), []byte("gz"), 0o600))

	srv := api.NewServer(api.NewStore(), output, archive, nil)
	rec := doRequest(t, srv.Handler(), "/v1/batches")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Batches []struct {
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Batches, 2)

	states := map[string]string{}
	for _, b := range got.Batches {
		states[b.Name] = b.State
	}
	assert.Equal(t, "live", states["promo_20250528_030000"])
	assert.Equal(t, "compressed", states["promo_20250401_030000"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := api.NewServer(api.NewStore(), t.TempDir(), t.TempDir(), nil)
	rec := doRequest(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
