// ABOUTME: Credential endpoints: get_creds, reauth, register_client
// ABOUTME: Coordinates the store, orchestrator, and remote authority client

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omniq-ai/omniq-gateway/models"
	"github.com/omniq-ai/omniq-gateway/store"
)

// GetCreds returns the current credential payload, running a refresh cycle
// first when the stored record is not valid. Remote or parse failures during
// that cycle surface as 401; a local persist failure as 500.
func (h *Handler) GetCreds(w http.ResponseWriter, r *http.Request) {
	rec, refreshed, err := h.orch.Ensure(r.Context())
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, store.ErrStorage) {
			status = http.StatusInternalServerError
		}
		h.writeJSON(w, status, models.CredsResponse{
			Success:         false,
			ReauthPerformed: refreshed,
			Error:           err.Error(),
		})
		return
	}

	payload, err := rec.Payload()
	if err != nil {
		h.writeError(w, "Failed to encode credentials", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, models.CredsResponse{
		Success:         true,
		Credentials:     json.RawMessage(payload),
		ReauthPerformed: refreshed,
	})
}

// Reauth triggers a manual refresh cycle, bypassing the already-valid
// short-circuit. The HTTP call succeeds with 200 either way; Success reflects
// the operation outcome.
func (h *Handler) Reauth(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orch.ForceRefresh(r.Context()); err != nil {
		h.writeJSON(w, http.StatusOK, models.ReauthResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, models.ReauthResponse{
		Success: true,
		Message: "Reauthentication complete",
	})
}

// RegisterClient forwards a client identity to the remote authority.
// Registration failure is best effort by default (logged, 200); with
// REQUIRE_REGISTRATION set it surfaces as 502.
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" {
		h.writeError(w, "clientId is required", http.StatusBadRequest)
		return
	}

	if err := h.auth.Register(r.Context(), req.ClientID); err != nil {
		slog.Warn("Client registration failed", "client_id", req.ClientID, "error", err)
		if h.cfg != nil && h.cfg.RequireRegistration {
			h.writeError(w, "Registration with remote authority failed", http.StatusBadGateway)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, models.RegisterResponse{Success: true})
}
