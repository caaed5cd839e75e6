package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GianScala/wrappr-core/internal/catalog"
)

func newModelsMux(backendURL string) *http.ServeMux {
	svc := catalog.NewService(catalog.Config{
		Endpoint: backendURL,
		CacheTTL: time.Minute,
	}, nil, nil, zap.NewNop())

	mux := http.NewServeMux()
	NewModelsHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	HealthHandler{}.RegisterRoutes(mux)
	return mux
}

func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text_models":[{"name":"gpt-4o","tier":"pro"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListModels(t *testing.T) {
	mux := newModelsMux(stubBackend(t).URL)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp catalog.ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.TextModels, 1)
	assert.Equal(t, "gpt-4o", resp.TextModels[0].Name)
	assert.Equal(t, catalog.TierPro, resp.TextModels[0].Tier)
}

func TestGetModelByID(t *testing.T) {
	mux := newModelsMux(stubBackend(t).URL)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models/gpt-4o", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var m catalog.ModelDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "gpt-4o", m.Name)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models/nonexistent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshModels(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"text_models":[{"name":"gpt-4o"}]}`))
	}))
	defer srv.Close()

	mux := newModelsMux(srv.URL)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	assert.Equal(t, 1, hits, "second list is served from cache")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/models/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, hits, "refresh bypasses the cache")
}

func TestHealthz(t *testing.T) {
	mux := newModelsMux("http://unused")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMiddlewareChain(t *testing.T) {
	mux := newModelsMux(stubBackend(t).URL)
	h := Chain(mux, zap.NewNop(), NewRateLimiter(100, 100, zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimiterRejectsBursts(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "burst of 1 rejects the second immediate request")
}
