package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omniq-ai/omniq-gateway/authclient"
	"github.com/omniq-ai/omniq-gateway/cache"
	"github.com/omniq-ai/omniq-gateway/config"
	"github.com/omniq-ai/omniq-gateway/engine"
	"github.com/omniq-ai/omniq-gateway/history"
	"github.com/omniq-ai/omniq-gateway/models"
	"github.com/omniq-ai/omniq-gateway/reauth"
	"github.com/omniq-ai/omniq-gateway/store"
)

type stubEngine struct {
	ready bool
	reply string
	err   error
}

func (s *stubEngine) Ready() bool { return s.ready }

func (s *stubEngine) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestHandler(t *testing.T, authURL string, eng engine.Engine, cfg *config.Config) *Handler {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{AuthTimeout: 2}
	}
	st := store.New(filepath.Join(t.TempDir(), "credentials.json"), cache.New(time.Minute))
	auth := authclient.NewClient(authURL, 2*time.Second)
	orch := reauth.New(st, auth, nil)
	return NewHandler(cfg, st, orch, auth, eng, history.NewLog(), nil)
}

func seedRecord(t *testing.T, h *Handler, payload string) {
	t.Helper()
	rec, err := models.ParseCredentialRecord([]byte(payload))
	if err != nil {
		t.Fatalf("ParseCredentialRecord failed: %v", err)
	}
	if err := h.store.Write(rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestHealth_MissingCredentials(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %q", resp.Status)
	}
	if resp.Ready {
		t.Error("Expected ready false with an engine that is not ready")
	}
	if resp.CredentialValidity != models.ValidityMissing {
		t.Errorf("Expected missing validity, got %s", resp.CredentialValidity)
	}
	if resp.CredentialsPath == "" {
		t.Error("Expected credentials path to be reported")
	}
}

func TestGetCreds_RefreshFromMissingState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"credentials":{"token":"abc"}}`))
	}))
	defer server.Close()

	h := newTestHandler(t, server.URL, &stubEngine{}, nil)

	req := httptest.NewRequest("GET", "/get_creds", nil)
	w := httptest.NewRecorder()
	h.GetCreds(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success         bool              `json:"success"`
		Credentials     map[string]string `json:"credentials"`
		ReauthPerformed bool              `json:"reauthPerformed"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
	if !resp.ReauthPerformed {
		t.Error("Expected reauthPerformed true")
	}
	if resp.Credentials["token"] != "abc" {
		t.Errorf("Expected token abc, got %q", resp.Credentials["token"])
	}

	// Storage now holds the fetched payload wholesale.
	onDisk, err := os.ReadFile(h.store.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(onDisk) != `{"token":"abc"}` {
		t.Errorf("Unexpected on-disk payload: %s", onDisk)
	}
}

func TestGetCreds_ValidStateDoesNotRefresh(t *testing.T) {
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`{"credentials":{"token":"new"}}`))
	}))
	defer server.Close()

	h := newTestHandler(t, server.URL, &stubEngine{}, nil)
	seedRecord(t, h, `{"token":"existing"}`)

	req := httptest.NewRequest("GET", "/get_creds", nil)
	w := httptest.NewRecorder()
	h.GetCreds(w, req)

	var resp models.CredsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ReauthPerformed {
		t.Error("Expected reauthPerformed false for a valid record")
	}
	if fetches.Load() != 0 {
		t.Errorf("Expected no remote fetches, got %d", fetches.Load())
	}
}

func TestGetCreds_RemoteFailureIs401(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("GET", "/get_creds", nil)
	w := httptest.NewRecorder()
	h.GetCreds(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	var resp models.CredsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success false")
	}
	if resp.Error == "" {
		t.Error("Expected an error cause in the body")
	}
}

func TestReauth_FailureIs200WithError(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("POST", "/reauth", nil)
	w := httptest.NewRecorder()
	h.Reauth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 (RPC succeeded, operation failed), got %d", w.Code)
	}
	var resp models.ReauthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success false")
	}
	if resp.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestReauth_RefreshesEvenWhenValid(t *testing.T) {
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`{"credentials":{"token":"fresh"}}`))
	}))
	defer server.Close()

	h := newTestHandler(t, server.URL, &stubEngine{}, nil)
	seedRecord(t, h, `{"token":"existing"}`)

	req := httptest.NewRequest("POST", "/reauth", nil)
	w := httptest.NewRecorder()
	h.Reauth(w, req)

	var resp models.ReauthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("Expected success, got error %q", resp.Error)
	}
	if fetches.Load() != 1 {
		t.Errorf("Expected 1 fetch despite valid state, got %d", fetches.Load())
	}
}

func TestRegisterClient_MissingClientIDIs400(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("POST", "/register_client", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.RegisterClient(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected an error field")
	}
}

func TestRegisterClient_SwallowsRemoteFailure(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("POST", "/register_client", strings.NewReader(`{"clientId":"x"}`))
	w := httptest.NewRecorder()
	h.RegisterClient(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 (registration is best effort), got %d", w.Code)
	}
	var resp models.RegisterResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success true")
	}
}

func TestRegisterClient_RequireRegistrationSurfacesFailure(t *testing.T) {
	cfg := &config.Config{AuthTimeout: 2, RequireRegistration: true}
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, cfg)

	req := httptest.NewRequest("POST", "/register_client", strings.NewReader(`{"clientId":"x"}`))
	w := httptest.NewRecorder()
	h.RegisterClient(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}

func TestQuery_FallbackEchoIncludesQueryText(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{ready: false}, nil)

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"hi there"}`))
	w := httptest.NewRecorder()
	h.Query(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Query != "hi there" {
		t.Errorf("Expected query echoed, got %q", resp.Query)
	}
	if !strings.Contains(resp.Response, "hi there") {
		t.Errorf("Fallback response must include the literal query, got %q", resp.Response)
	}
}

func TestQuery_EngineErrorFallsBackToEcho(t *testing.T) {
	eng := &stubEngine{ready: true, err: errors.New("boom")}
	h := newTestHandler(t, "http://127.0.0.1:1", eng, nil)

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"still works"}`))
	w := httptest.NewRecorder()
	h.Query(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 despite engine error, got %d", w.Code)
	}
	var resp models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Response, "still works") {
		t.Errorf("Fallback response must include the literal query, got %q", resp.Response)
	}
}

func TestQuery_EmptyQueryIs400(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Query(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestQuery_RecordsHistoryPair(t *testing.T) {
	eng := &stubEngine{ready: true, reply: "the answer"}
	h := newTestHandler(t, "http://127.0.0.1:1", eng, nil)

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"the question"}`))
	h.Query(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/history", nil)
	w := httptest.NewRecorder()
	h.History(w, req)

	var turns []models.Turn
	if err := json.NewDecoder(w.Body).Decode(&turns); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Content != "the question" {
		t.Errorf("Unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != models.RoleAssistant || turns[1].Content != "the answer" {
		t.Errorf("Unexpected assistant turn: %+v", turns[1])
	}
}

// collectStreamChunks parses event-stream frames from a recorded body.
func collectStreamChunks(t *testing.T, body string) ([]string, bool) {
	t.Helper()
	var chunks []string
	done := false
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		if !strings.HasPrefix(frame, "data: ") {
			t.Fatalf("Frame missing data prefix: %q", frame)
		}
		var chunk models.StreamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &chunk); err != nil {
			t.Fatalf("Frame is not independently parseable: %v", err)
		}
		if chunk.Done {
			done = true
			continue
		}
		chunks = append(chunks, chunk.Chunk)
	}
	return chunks, done
}

func TestQuery_StreamConcatenationMatchesBuffered(t *testing.T) {
	const reply = "a cat is a small domesticated carnivorous mammal"
	eng := &stubEngine{ready: true, reply: reply}
	h := newTestHandler(t, "http://127.0.0.1:1", eng, nil)

	// Buffered mode.
	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"what is cat ?"}`))
	w := httptest.NewRecorder()
	h.Query(w, req)
	var buffered models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&buffered); err != nil {
		t.Fatalf("Failed to decode buffered response: %v", err)
	}

	// Streamed mode.
	req = httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"what is cat ?","stream":true}`))
	w = httptest.NewRecorder()
	h.Query(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}
	chunks, done := collectStreamChunks(t, w.Body.String())
	if !done {
		t.Error("Expected a terminal done frame")
	}
	if got := strings.Join(chunks, ""); got != buffered.Response {
		t.Errorf("Stream concatenation %q != buffered response %q", got, buffered.Response)
	}
}

func TestQuery_StreamHaltsOnClientDisconnect(t *testing.T) {
	eng := &stubEngine{ready: true, reply: "one two three four five"}
	cfg := &config.Config{AuthTimeout: 2, StreamDelayMs: 20}
	h := newTestHandler(t, "http://127.0.0.1:1", eng, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // peer already gone

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"q","stream":true}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	h.Query(w, req)

	chunks, done := collectStreamChunks(t, w.Body.String())
	if done {
		t.Error("Expected no done frame after disconnect")
	}
	if len(chunks) != 0 {
		t.Errorf("Expected no chunks after disconnect, got %q", chunks)
	}
}

func TestNotFound(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1", &stubEngine{}, nil)

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	h.NotFound(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected an error field")
	}
}
