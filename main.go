// ABOUTME: Entry point for the OmniQ Gateway service
// ABOUTME: Syncs credentials with the remote authority and proxies queries to the engine

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omniq-ai/omniq-gateway/authclient"
	"github.com/omniq-ai/omniq-gateway/cache"
	"github.com/omniq-ai/omniq-gateway/config"
	"github.com/omniq-ai/omniq-gateway/engine"
	"github.com/omniq-ai/omniq-gateway/handlers"
	"github.com/omniq-ai/omniq-gateway/history"
	"github.com/omniq-ai/omniq-gateway/logger"
	"github.com/omniq-ai/omniq-gateway/metrics"
	"github.com/omniq-ai/omniq-gateway/middleware"
	"github.com/omniq-ai/omniq-gateway/models"
	"github.com/omniq-ai/omniq-gateway/reauth"
	"github.com/omniq-ai/omniq-gateway/store"
	"github.com/omniq-ai/omniq-gateway/watcher"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting OmniQ Gateway")
	slog.Info("Remote authority configured", "url", cfg.AuthBaseURL)
	slog.Info("Credential storage", "path", cfg.CredentialsPath)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	c := cache.New(time.Duration(cfg.CacheTTL) * time.Second)
	st := store.New(cfg.CredentialsPath, c)

	clientID, err := store.LoadOrCreateClientID(cfg.ClientIDPath)
	if err != nil {
		slog.Warn("Client identity unavailable", "error", err)
	}

	fw := watcher.New(cfg.CredentialsPath, func() {
		st.Invalidate()
		collector.RecordInvalidation()
	})
	if err := fw.Start(); err != nil {
		slog.Warn("Credential watcher unavailable, reading storage fresh on every request", "error", err)
	} else {
		defer fw.Stop()
	}

	auth := authclient.NewClient(cfg.AuthBaseURL, time.Duration(cfg.AuthTimeout)*time.Second)
	orch := reauth.New(st, auth, collector)

	eng := engine.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.EngineMaxTokens, func() string {
		if validity, rec := st.Read(); validity == models.ValidityValid {
			return rec.Token
		}
		return ""
	})
	if !eng.Ready() {
		slog.Warn("Query engine not ready, serving fallback replies")
	}

	// Best-effort startup registration. Failure is logged, never fatal.
	if clientID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.AuthTimeout)*time.Second)
			defer cancel()
			if err := auth.Register(ctx, clientID); err != nil {
				slog.Warn("Startup registration failed", "client_id", clientID, "error", err)
			} else {
				slog.Info("Registered with remote authority", "client_id", clientID)
			}
		}()
	}

	h := handlers.NewHandler(cfg, st, orch, auth, eng, history.NewLog(), collector)

	defaultLimiter := middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
	reauthLimiter := middleware.NewRateLimiter(cfg.RateLimitReauth, time.Minute)

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		chain := []middleware.Middleware{
			middleware.CORS,
			middleware.LogRequest,
			middleware.Metrics(collector),
		}
		if cfg.RateLimitEnabled {
			limiter := defaultLimiter
			if route.Reauth {
				limiter = reauthLimiter
			}
			chain = append(chain, limiter.Limit)
		}
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler, chain...))
	}
	mux.Handle("GET /metrics", metrics.Handler(reg))

	// Fallback: unknown paths 404; OPTIONS preflight anywhere answered by CORS.
	mux.HandleFunc("/", middleware.Chain(h.NotFound,
		middleware.CORS, middleware.LogRequest, middleware.Metrics(collector)))

	addr := ":" + cfg.Port
	slog.Info("Server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
