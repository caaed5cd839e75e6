package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog metrics
	CatalogFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrappr_catalog_fetch_attempts_total",
			Help: "Catalog fetch attempts against the model backend",
		},
		[]string{"outcome"}, // success|quota_exceeded|error
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wrappr_catalog_fetch_duration_seconds",
			Help:    "Duration of a full catalog fetch including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrappr_catalog_cache_hits_total",
			Help: "Catalog requests served from the in-memory cache",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrappr_catalog_cache_misses_total",
			Help: "Catalog requests that went to the backend",
		},
	)

	CatalogFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrappr_catalog_fallbacks_total",
			Help: "Times the catalog degraded to the static table",
		},
		[]string{"reason"}, // exhausted|empty_remote
	)

	TokensConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrappr_catalog_tokens_consumed_total",
			Help: "Token usage reported by the model backend",
		},
	)

	// Sources metrics
	CitationsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wrappr_citations_extracted",
			Help:    "Citation numbers found per resolved response",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	SourcesDisplayed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wrappr_sources_displayed",
			Help:    "Sources selected for display per resolved response",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrappr_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrappr_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
