// ABOUTME: Health and history endpoints
// ABOUTME: Reports gateway readiness, credential validity, and conversation log

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/omniq-ai/omniq-gateway/models"
)

// Health reports gateway status. Always 200: the gateway is healthy even
// when credentials are missing or the engine is offline.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	validity, _ := h.store.Read()

	h.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:             "ok",
		Ready:              h.engine != nil && h.engine.Ready(),
		CredentialValidity: validity,
		CredentialsPath:    h.store.Path(),
	})
}

// History returns the in-memory conversation log in order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Serving conversation history", "turns", h.history.Len())
	h.writeJSON(w, http.StatusOK, h.history.Snapshot())
}
