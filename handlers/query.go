// ABOUTME: Query endpoint with buffered and event-stream response modes
// ABOUTME: Falls back to an echo reply when the engine is unavailable

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/omniq-ai/omniq-gateway/engine"
	"github.com/omniq-ai/omniq-gateway/models"
)

// Query handles an inbound query. The request's user turn is logged before
// processing and the reply after; engine failure never fails the request.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(w, "query is required", http.StatusBadRequest)
		return
	}

	turnID := h.history.Begin(req.Query)
	response := h.generate(r, req.Query)
	h.history.Complete(turnID, response)

	if req.Stream {
		h.recordQuery("stream")
		h.streamResponse(w, r, response)
		return
	}

	h.recordQuery("buffered")
	h.writeJSON(w, http.StatusOK, models.QueryResponse{
		Query:     req.Query,
		Response:  response,
		Timestamp: time.Now(),
	})
}

// generate runs the query through the engine, absorbing unavailability into
// a fallback reply that echoes the input.
func (h *Handler) generate(r *http.Request, query string) string {
	if h.engine != nil && h.engine.Ready() {
		response, err := h.engine.Generate(r.Context(), query)
		if err == nil {
			return response
		}
		slog.Warn("Engine generate failed, falling back to echo", "error", err)
	}
	return fmt.Sprintf("The OmniQ engine is not available right now. You asked: %s", query)
}

// streamResponse emits the reply as server-sent events, one whitespace-bound
// chunk per frame with a short inter-segment delay. A disconnected peer halts
// emission silently; remaining chunks are discarded.
func (h *Handler) streamResponse(w http.ResponseWriter, r *http.Request, response string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusOK, models.QueryResponse{
			Response:  response,
			Timestamp: time.Now(),
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sent := 0
	defer func() {
		if h.collector != nil {
			h.collector.RecordStreamChunks(sent)
		}
	}()

	for _, chunk := range engine.Chunks(response) {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		if err := writeEvent(w, models.StreamChunk{Chunk: chunk}); err != nil {
			return
		}
		flusher.Flush()
		sent++

		if h.streamDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(h.streamDelay):
			}
		}
	}

	if err := writeEvent(w, models.StreamChunk{Done: true}); err != nil {
		return
	}
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, chunk models.StreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (h *Handler) recordQuery(mode string) {
	if h.collector != nil {
		h.collector.RecordQuery(mode)
	}
}
