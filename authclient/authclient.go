// ABOUTME: HTTP client for the remote credential authority
// ABOUTME: Registers client identities and fetches credential payloads

package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/omniq-ai/omniq-gateway/models"
)

// ErrRemote indicates a transport failure or non-success outcome talking to
// the remote authority. ErrParse is its subtype for a reachable authority
// whose credential payload was absent or unparsable; errors.Is(err, ErrRemote)
// holds for both.
var (
	ErrRemote = errors.New("remote authority error")
	ErrParse  = fmt.Errorf("%w: unparsable credential payload", ErrRemote)
)

// Client talks to the remote authority. It performs no retries; retry policy
// belongs to the reauth orchestrator.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Register announces the local client identity to the remote authority.
// One shot: non-2xx or transport failure yields an ErrRemote-wrapped error.
func (c *Client) Register(ctx context.Context, clientID string) error {
	body, err := json.Marshal(models.RegisterRequest{ClientID: clientID})
	if err != nil {
		return fmt.Errorf("%w: encode registration: %v", ErrRemote, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build registration request: %v", ErrRemote, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: register: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: register returned status %d: %s", ErrRemote, resp.StatusCode, snippet)
	}
	return nil
}

// FetchCredentials retrieves a fresh credential payload from the authority.
// The response shape has varied across authority versions; parsing tolerates
// the known variants (see parse.go).
func (c *Client) FetchCredentials(ctx context.Context) (*models.CredentialRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/credentials", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build credentials request: %v", ErrRemote, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch credentials: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: credentials endpoint returned status %d: %s", ErrRemote, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials response: %v", ErrRemote, err)
	}

	return ParseCredentialPayload(body)
}
