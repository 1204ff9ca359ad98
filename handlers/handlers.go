// ABOUTME: HTTP handlers for the gateway API endpoints
// ABOUTME: Holds the server context shared by all handlers

package handlers

import (
	"time"

	"github.com/omniq-ai/omniq-gateway/authclient"
	"github.com/omniq-ai/omniq-gateway/config"
	"github.com/omniq-ai/omniq-gateway/engine"
	"github.com/omniq-ai/omniq-gateway/history"
	"github.com/omniq-ai/omniq-gateway/metrics"
	"github.com/omniq-ai/omniq-gateway/reauth"
	"github.com/omniq-ai/omniq-gateway/store"
)

// Handler is the explicit server context passed to every endpoint: credential
// state, conversation history, and the engine are fields here, never ambient
// globals, so tests can construct isolated instances.
type Handler struct {
	cfg         *config.Config
	store       *store.CredentialStore
	orch        *reauth.Orchestrator
	auth        *authclient.Client
	engine      engine.Engine
	history     *history.Log
	collector   *metrics.Collector
	streamDelay time.Duration
}

func NewHandler(
	cfg *config.Config,
	st *store.CredentialStore,
	orch *reauth.Orchestrator,
	auth *authclient.Client,
	eng engine.Engine,
	hist *history.Log,
	collector *metrics.Collector,
) *Handler {
	h := &Handler{
		cfg:       cfg,
		store:     st,
		orch:      orch,
		auth:      auth,
		engine:    eng,
		history:   hist,
		collector: collector,
	}
	if cfg != nil {
		h.streamDelay = time.Duration(cfg.StreamDelayMs) * time.Millisecond
	}
	return h
}
