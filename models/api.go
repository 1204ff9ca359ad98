// ABOUTME: Request and response models for the gateway HTTP API
// ABOUTME: JSON-serializable structures matching client expectations

package models

import (
	"encoding/json"
	"time"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// HealthResponse reports gateway status and credential state.
type HealthResponse struct {
	Status             string   `json:"status"`
	Ready              bool     `json:"ready"`
	CredentialValidity Validity `json:"credential_validity"`
	CredentialsPath    string   `json:"credentials_path"`
}

// ReauthResponse is the outcome of a manual refresh cycle. The HTTP call
// itself succeeds with 200; Success reflects the operation.
type ReauthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CredsResponse carries the current credential payload.
type CredsResponse struct {
	Success         bool            `json:"success"`
	Credentials     json.RawMessage `json:"credentials,omitempty"`
	ReauthPerformed bool            `json:"reauthPerformed"`
	Error           string          `json:"error,omitempty"`
}

// RegisterRequest announces a client identity to the remote authority.
type RegisterRequest struct {
	ClientID string `json:"clientId"`
}

// RegisterResponse acknowledges a registration request.
type RegisterResponse struct {
	Success bool `json:"success"`
}

// QueryRequest is an inbound query. Stream selects incremental delivery.
type QueryRequest struct {
	Query  string `json:"query"`
	Stream bool   `json:"stream"`
}

// QueryResponse is the buffered (non-streaming) query result.
type QueryResponse struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamChunk is one event-stream frame of a streamed query response.
type StreamChunk struct {
	Chunk string `json:"chunk,omitempty"`
	Done  bool   `json:"done"`
}
