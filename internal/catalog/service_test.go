package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recordSleeps(s *Service) *[]time.Duration {
	delays := &[]time.Duration{}
	s.sleep = func(_ context.Context, d time.Duration) {
		*delays = append(*delays, d)
	}
	return delays
}

func newTestService(t *testing.T, endpoint string) *Service {
	t.Helper()
	return NewService(Config{
		Endpoint: endpoint,
		CacheTTL: 5 * time.Minute,
	}, nil, nil, zap.NewNop())
}

func modelsHandler(hits *int32, payload remoteResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func TestGetAvailableModelsCachesWithinTTL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(modelsHandler(&hits, remoteResponse{
		TextModels: []RemoteModel{{Name: "gpt-4o"}},
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	first := s.GetAvailableModels(context.Background(), "", nil)
	second := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second call within TTL must not hit the network")
	assert.Equal(t, first.TextModels, second.TextModels)
	require.Len(t, first.TextModels, 1)
	assert.Equal(t, "gpt-4o", first.TextModels[0].Name)
}

func TestGetAvailableModelsRefetchesAfterTTL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(modelsHandler(&hits, remoteResponse{
		TextModels: []RemoteModel{{Name: "gpt-4o"}},
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL, CacheTTL: 10 * time.Millisecond}, nil, nil, zap.NewNop())

	s.GetAvailableModels(context.Background(), "", nil)
	time.Sleep(20 * time.Millisecond)
	s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetAvailableModelsExhaustedRetriesFallBackToStatic(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)
	delays := recordSleeps(s)

	resp := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits), "3 retries means 4 attempts total")
	assert.Empty(t, *delays, "non-quota failures must not back off")
	assert.Equal(t, len(StaticCatalog()), len(resp.TextModels), "result degrades to the static catalog")
}

func TestGetAvailableModelsQuotaFailuresBackOffExponentially(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= 2 {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(remoteResponse{TextModels: []RemoteModel{{Name: "gpt-4o"}}})
	}))
	defer srv.Close()

	s := NewService(Config{
		Endpoint:    srv.URL,
		BackoffBase: time.Second,
	}, nil, nil, zap.NewNop())

	var delays []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) { delays = append(delays, d) }

	resp := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays, "backoff doubles per quota retry")
	require.Len(t, resp.TextModels, 1)
	assert.Equal(t, "gpt-4o", resp.TextModels[0].Name)
}

func TestGetAvailableModelsEmptyRemoteFallsBackToStatic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{TextModels: []RemoteModel{}})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)
	resp := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, len(StaticCatalog()), len(resp.TextModels),
		"empty remote list must yield the full static catalog, not an empty one")
	assert.NotEmpty(t, s.GetTextModels())
}

func TestGetAvailableModelsForwardsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(remoteResponse{TextModels: []RemoteModel{{Name: "m"}}})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)
	s.GetAvailableModels(context.Background(), "tok-123", nil)

	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestGetAvailableModelsReportsTokenUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{
			TextModels: []RemoteModel{{Name: "m"}},
			TokensUsed: 42,
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	var reported int
	s.GetAvailableModels(context.Background(), "", func(n int) { reported = n })
	assert.Equal(t, 42, reported)
}

func TestTokenCallbackPanicDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{
			TextModels: []RemoteModel{{Name: "m"}},
			TokensUsed: 7,
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	assert.NotPanics(t, func() {
		resp := s.GetAvailableModels(context.Background(), "", func(int) {
			panic("accounting backend down")
		})
		assert.NotEmpty(t, resp.TextModels, "primary result survives callback failure")
	})
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", errors.New("identity service offline")
}

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) (string, error) { return s.token, nil }

func TestRefreshModelsBypassesCache(t *testing.T) {
	var hits int32
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(remoteResponse{TextModels: []RemoteModel{{Name: "m"}}})
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, staticTokens{token: "fresh"}, nil, zap.NewNop())

	s.GetAvailableModels(context.Background(), "", nil)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))

	s.RefreshModels(context.Background(), nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "refresh must bypass a fresh cache")
	assert.Equal(t, "Bearer fresh", gotAuth)
}

func TestRefreshModelsProceedsWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(remoteResponse{TextModels: []RemoteModel{{Name: "m"}}})
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, failingTokens{}, nil, zap.NewNop())
	resp := s.RefreshModels(context.Background(), nil)

	assert.Empty(t, gotAuth, "token failure means unauthenticated fetch")
	assert.NotEmpty(t, resp.TextModels)
}

func TestGetModelByID(t *testing.T) {
	s := NewService(Config{Endpoint: "http://unused"}, nil, nil, zap.NewNop())

	m := s.GetModelByID("gpt-4o")
	require.NotNil(t, m)
	assert.Equal(t, "gpt-4o", m.Name)

	assert.Nil(t, s.GetModelByID("nonexistent"))
}

func TestTierAndCapabilityFilters(t *testing.T) {
	s := NewService(Config{Endpoint: "http://unused"}, nil, nil, zap.NewNop())

	for _, m := range s.GetModelsByTier(TierFree) {
		assert.Equal(t, TierFree, m.Tier)
	}
	assert.NotEmpty(t, s.GetModelsByTier(TierFree))

	for _, m := range s.GetWebSearchCapableModels() {
		assert.True(t, m.Capabilities.WebSearchCapable)
	}
	assert.NotEmpty(t, s.GetWebSearchCapableModels())

	for _, m := range s.GetTextModels() {
		assert.Equal(t, TypeText, m.Type)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisSnapshot(mr.Addr(), time.Hour)
	require.NoError(t, err)

	models := []ModelDescriptor{{Name: "m", Type: TypeText, Tier: TierFree}}
	fetchedAt := time.Now().Truncate(time.Second)
	require.NoError(t, store.Save(context.Background(), models, fetchedAt))

	got, at, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models, got)
	assert.WithinDuration(t, fetchedAt, at, time.Second)
}

func TestServiceSeedsFromFreshSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisSnapshot(mr.Addr(), time.Hour)
	require.NoError(t, err)

	snap := []ModelDescriptor{{Name: "from-snapshot", Type: TypeText}}
	require.NoError(t, store.Save(context.Background(), snap, time.Now()))

	var hits int32
	srv := httptest.NewServer(modelsHandler(&hits, remoteResponse{}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, nil, store, zap.NewNop())
	resp := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "fresh snapshot must satisfy the first call")
	require.Len(t, resp.TextModels, 1)
	assert.Equal(t, "from-snapshot", resp.TextModels[0].Name)
}

func TestServiceIgnoresStaleSnapshotTimestamp(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisSnapshot(mr.Addr(), time.Hour)
	require.NoError(t, err)

	snap := []ModelDescriptor{{Name: "old", Type: TypeText}}
	require.NoError(t, store.Save(context.Background(), snap, time.Now().Add(-time.Hour)))

	var hits int32
	srv := httptest.NewServer(modelsHandler(&hits, remoteResponse{
		TextModels: []RemoteModel{{Name: "fresh"}},
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, nil, store, zap.NewNop())
	resp := s.GetAvailableModels(context.Background(), "", nil)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "stale snapshot still forces a fetch")
	require.Len(t, resp.TextModels, 1)
	assert.Equal(t, "fresh", resp.TextModels[0].Name)
}
