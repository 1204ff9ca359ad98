// ABOUTME: JSON response helpers shared by all handlers
// ABOUTME: Keeps response encoding and error shape consistent

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/omniq-ai/omniq-gateway/models"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{Error: message, Code: code})
}

// NotFound is the fallback for unrouted paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, "Not found", http.StatusNotFound)
}
