package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GianScala/wrappr-core/internal/catalog"
	cfg "github.com/GianScala/wrappr-core/internal/config"
	"github.com/GianScala/wrappr-core/internal/httpapi"
	"github.com/GianScala/wrappr-core/internal/identity"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	conf, err := cfg.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if conf.Catalog.Endpoint == "" {
		logger.Warn("No catalog endpoint configured; model catalog will serve the static table only")
	}

	// Optional Redis-backed catalog snapshot.
	var snapshot catalog.SnapshotStore
	if conf.Redis.Addr != "" {
		store, err := catalog.NewRedisSnapshot(conf.Redis.Addr, conf.Redis.SnapshotTTL)
		if err != nil {
			logger.Warn("Redis unavailable, catalog snapshots disabled",
				zap.String("addr", conf.Redis.Addr),
				zap.Error(err))
		} else {
			snapshot = store
		}
	}

	// Identity provider for authenticated catalog refreshes.
	var tokens catalog.TokenSource
	if conf.Auth.SigningKey != "" {
		provider, err := identity.NewJWTProvider(conf.Auth.SigningKey, conf.Auth.Issuer, conf.Auth.Subject, conf.Auth.Expiry)
		if err != nil {
			logger.Fatal("Failed to initialize identity provider", zap.Error(err))
		}
		tokens = provider
	}

	catalogSvc := catalog.NewService(catalog.Config{
		Endpoint:    conf.Catalog.Endpoint,
		CacheTTL:    conf.Catalog.CacheTTL,
		MaxRetries:  conf.Catalog.MaxRetries,
		BackoffBase: conf.Catalog.BackoffBase,
		HTTPTimeout: conf.Catalog.HTTPTimeout,
	}, tokens, snapshot, logger)

	mux := http.NewServeMux()
	httpapi.NewSourcesHandler(logger).RegisterRoutes(mux)
	httpapi.NewModelsHandler(catalogSvc, logger).RegisterRoutes(mux)
	httpapi.HealthHandler{}.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	rl := httpapi.NewRateLimiter(conf.Server.RequestsPerSecond, conf.Server.Burst, logger)
	srv := &http.Server{
		Addr:    conf.Server.Addr,
		Handler: httpapi.Chain(mux, logger, rl),
	}

	go func() {
		logger.Info("wrappr-core listening", zap.String("addr", conf.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
}
