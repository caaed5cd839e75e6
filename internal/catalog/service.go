// Package catalog maintains the list of LLM models the wrappr client can
// offer its user. A static capability table is compiled in; a remote
// model-listing endpoint overlays availability on top of it. The service
// caches the merged result and degrades to the static table when the
// backend is unreachable, so consumers never see an empty catalog and
// never see an error.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	ometrics "github.com/GianScala/wrappr-core/internal/metrics"
)

// Defaults for the fetch shell.
const (
	DefaultCacheTTL    = 5 * time.Minute
	DefaultMaxRetries  = 3
	DefaultBackoffBase = time.Second
	DefaultHTTPTimeout = 10 * time.Second
)

// TokenSource supplies a bearer token for authenticated catalog refreshes.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config carries the injectable knobs of the catalog service.
type Config struct {
	Endpoint    string        // model-listing endpoint URL
	CacheTTL    time.Duration // how long a fetched catalog stays fresh
	MaxRetries  int           // retries after the first attempt
	BackoffBase time.Duration // first backoff delay, doubles per retry
	HTTPTimeout time.Duration
	Local       []ModelDescriptor // static table; nil means StaticCatalog()
}

func (c *Config) applyDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Local == nil {
		c.Local = StaticCatalog()
	}
}

// Service caches the merged model catalog in front of the remote endpoint.
//
// Cache writes are last-writer-wins with no request fencing: two overlapping
// fetches each run their own retry loop and each overwrite the cache.
// Callers wanting to avoid redundant backend traffic serialize their calls.
type Service struct {
	cfg      Config
	http     *http.Client
	tokens   TokenSource
	snapshot SnapshotStore
	logger   *zap.Logger

	mu        sync.RWMutex
	models    []ModelDescriptor
	lastFetch time.Time

	sleep func(ctx context.Context, d time.Duration) // test seam
}

// NewService builds a catalog service seeded from the static table. When a
// snapshot store is supplied and holds a fresh snapshot, the in-memory cache
// starts from it instead, so a restart does not refetch immediately.
// tokens and snapshot may be nil.
func NewService(cfg Config, tokens TokenSource, snapshot SnapshotStore, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:   tokens,
		snapshot: snapshot,
		logger:   logger,
		models:   cfg.Local,
		sleep:    sleepCtx,
	}

	if snapshot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if models, fetchedAt, err := snapshot.Load(ctx); err == nil && len(models) > 0 {
			s.models = models
			if time.Since(fetchedAt) < cfg.CacheTTL {
				s.lastFetch = fetchedAt
			}
			logger.Info("Seeded model catalog from snapshot",
				zap.Int("models", len(models)),
				zap.Time("fetched_at", fetchedAt))
		}
	}
	return s
}

// GetAvailableModels returns the text models currently available. Within the
// cache TTL this is a pure cache read; otherwise the remote endpoint is
// fetched with retry and the result merged onto the static table. The method
// never fails: exhausted retries degrade to the static catalog.
//
// authToken, when non-empty, is sent as a bearer token. onTokensConsumed is
// invoked with the backend-reported token usage delta when positive; its
// failures are logged and swallowed.
func (s *Service) GetAvailableModels(ctx context.Context, authToken string, onTokensConsumed func(int)) ModelResponse {
	s.mu.RLock()
	if !s.lastFetch.IsZero() && time.Since(s.lastFetch) < s.cfg.CacheTTL && len(s.models) > 0 {
		cached := filterByType(s.models, TypeText)
		s.mu.RUnlock()
		ometrics.CatalogCacheHits.Inc()
		return ModelResponse{TextModels: cached}
	}
	s.mu.RUnlock()
	ometrics.CatalogCacheMisses.Inc()

	start := time.Now()
	merged, tokensUsed, err := s.fetchWithRetry(ctx, authToken)
	ometrics.CatalogFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("Model catalog fetch exhausted retries, using static catalog",
			zap.String("endpoint", s.cfg.Endpoint),
			zap.Error(err))
		ometrics.CatalogFallbacks.WithLabelValues("exhausted").Inc()
		merged = s.staticCopy()
	}

	s.mu.Lock()
	s.models = merged
	s.lastFetch = time.Now()
	fetchedAt := s.lastFetch
	s.mu.Unlock()

	if err == nil && s.snapshot != nil {
		if serr := s.snapshot.Save(ctx, merged, fetchedAt); serr != nil {
			s.logger.Warn("Failed to persist catalog snapshot", zap.Error(serr))
		}
	}

	if onTokensConsumed != nil && tokensUsed > 0 {
		s.reportTokens(onTokensConsumed, tokensUsed)
	}

	return ModelResponse{TextModels: filterByType(merged, TypeText)}
}

// reportTokens runs the accounting callback without letting it break the
// primary result.
func (s *Service) reportTokens(cb func(int), tokens int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Token accounting callback failed", zap.Any("panic", r))
		}
	}()
	ometrics.TokensConsumed.Add(float64(tokens))
	cb(tokens)
}

// fetchError carries the backend failure reason so the retry loop can tell
// quota exhaustion apart from everything else.
type fetchError struct {
	status int
	msg    string
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("catalog fetch failed: status=%d %s", e.status, e.msg)
}

// quotaExceeded reports whether the failure is the backend's quota signal.
// Only these failures earn a backoff delay before the next attempt.
func quotaExceeded(err error) bool {
	var fe *fetchError
	if errors.As(err, &fe) {
		if fe.status == http.StatusTooManyRequests {
			return true
		}
		return strings.Contains(strings.ToLower(fe.msg), "quota")
	}
	return false
}

func (s *Service) fetchWithRetry(ctx context.Context, authToken string) ([]ModelDescriptor, int, error) {
	attempts := s.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		remote, tokensUsed, err := s.fetchOnce(ctx, authToken)
		if err == nil {
			ometrics.CatalogFetchAttempts.WithLabelValues("success").Inc()
			if len(remote) == 0 {
				// Backend answered but offered nothing; an empty catalog is
				// worse than a stale one.
				ometrics.CatalogFallbacks.WithLabelValues("empty_remote").Inc()
				return s.staticCopy(), tokensUsed, nil
			}
			return MergeCatalog(s.cfg.Local, remote), tokensUsed, nil
		}

		lastErr = err
		if quotaExceeded(err) {
			ometrics.CatalogFetchAttempts.WithLabelValues("quota_exceeded").Inc()
			if attempt < attempts-1 {
				delay := s.cfg.BackoffBase << uint(attempt)
				s.logger.Warn("Model backend quota exceeded, backing off",
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
					zap.Error(err))
				s.sleep(ctx, delay)
			}
		} else {
			ometrics.CatalogFetchAttempts.WithLabelValues("error").Inc()
			s.logger.Warn("Model catalog fetch attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
	}

	return nil, 0, lastErr
}

func (s *Service) fetchOnce(ctx context.Context, authToken string) ([]RemoteModel, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, &fetchError{status: resp.StatusCode, msg: strings.TrimSpace(string(body))}
	}

	var payload remoteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode catalog response: %w", err)
	}
	return payload.TextModels, payload.TokensUsed, nil
}

// RefreshModels invalidates the cache and fetches immediately. A token is
// requested from the identity collaborator best-effort; when that fails the
// fetch proceeds unauthenticated.
func (s *Service) RefreshModels(ctx context.Context, onTokensConsumed func(int)) ModelResponse {
	s.mu.Lock()
	s.lastFetch = time.Time{}
	s.mu.Unlock()

	token := ""
	if s.tokens != nil {
		t, err := s.tokens.Token(ctx)
		if err != nil {
			s.logger.Warn("Failed to obtain auth token for catalog refresh, proceeding unauthenticated",
				zap.Error(err))
		} else {
			token = t
		}
	}
	return s.GetAvailableModels(ctx, token, onTokensConsumed)
}

// GetModelByID looks a model up by Name in the cache, falling back to the
// static table. Returns nil when absent from both.
func (s *Service) GetModelByID(id string) *ModelDescriptor {
	s.mu.RLock()
	for i := range s.models {
		if s.models[i].Name == id {
			m := s.models[i]
			s.mu.RUnlock()
			return &m
		}
	}
	s.mu.RUnlock()

	for _, m := range s.cfg.Local {
		if m.Name == id {
			found := m
			return &found
		}
	}
	return nil
}

// GetModelsByTier returns the cached models of the given tier.
func (s *Service) GetModelsByTier(tier Tier) []ModelDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ModelDescriptor, 0, len(s.models))
	for _, m := range s.models {
		if m.Tier == tier {
			out = append(out, m)
		}
	}
	return out
}

// GetTextModels returns the cached text models.
func (s *Service) GetTextModels() []ModelDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterByType(s.models, TypeText)
}

// GetWebSearchCapableModels returns the cached models that can drive the
// client's web-search mode.
func (s *Service) GetWebSearchCapableModels() []ModelDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ModelDescriptor, 0, len(s.models))
	for _, m := range s.models {
		if m.Capabilities.WebSearchCapable {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) staticCopy() []ModelDescriptor {
	out := make([]ModelDescriptor, len(s.cfg.Local))
	copy(out, s.cfg.Local)
	return out
}

func filterByType(models []ModelDescriptor, typ string) []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(models))
	for _, m := range models {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
