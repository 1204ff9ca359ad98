// ABOUTME: Claude-backed query engine using the Anthropic SDK
// ABOUTME: Authorizes with a static API key or the gateway's synced credential token

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// TokenSource supplies a bearer token from the gateway's credential state.
// It returns an empty string when no usable credential is available.
type TokenSource func() string

// Claude implements Engine on the Anthropic Messages API. When no API key is
// configured, each request is authorized with the current credential token.
type Claude struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	hasKey    bool
	tokens    TokenSource
}

func NewClaude(apiKey, model string, maxTokens int, tokens TokenSource) *Claude {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		hasKey:    apiKey != "",
		tokens:    tokens,
	}
}

func (c *Claude) Ready() bool {
	if c.hasKey {
		return true
	}
	return c.tokens != nil && c.tokens() != ""
}

func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	var opts []option.RequestOption
	if !c.hasKey {
		if c.tokens == nil {
			return "", ErrUnavailable
		}
		token := c.tokens()
		if token == "" {
			return "", ErrUnavailable
		}
		opts = append(opts, option.WithAuthToken(token))
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
