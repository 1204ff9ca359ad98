// ABOUTME: Query-processing engine capability consumed by the gateway
// ABOUTME: Defines the abstract interface and the unavailable sentinel

package engine

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the query-processing capability is not ready.
// Handlers absorb it into a fallback reply; it never fails a query request.
var ErrUnavailable = errors.New("query engine unavailable")

// Engine turns a text query into a text response. The gateway treats it as a
// black box: Ready reports whether Generate can be expected to work.
type Engine interface {
	Ready() bool
	Generate(ctx context.Context, prompt string) (string, error)
}
