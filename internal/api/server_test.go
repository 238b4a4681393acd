package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/metrics"
	"github.com/integralabs/integra-harvester/internal/portal"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

func init() {
	metrics.Init()
}

func testServer(t *testing.T) (*Server, *rawstore.Store) {
	t.Helper()
	store, err := rawstore.Open(filepath.Join(t.TempDir(), "integra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return NewServer(store, zap.NewNop()), store
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv, store := testServer(t)
	ctx := context.Background()

	_, err := store.SaveAdvisors(ctx, "IFB", []portal.AdvisorStub{
		{Slug: "alice", Name: "Alice"},
		{Slug: "bob", Name: "Bob"},
	})
	require.NoError(t, err)
	_, err = store.SaveTheses(ctx, []portal.Thesis{
		{AdvisorSlug: "alice", InstitutionCode: "IFB", Title: "Pontes de Concreto"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary rawstore.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalAdvisors)
	assert.Equal(t, 1, summary.TotalTheses)
	require.Len(t, summary.Institutions, 1)
	assert.Equal(t, "IFB", summary.Institutions[0].Code)
}
