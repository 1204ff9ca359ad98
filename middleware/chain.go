// ABOUTME: Middleware composition helper
// ABOUTME: Wraps a handler so the first listed middleware runs first

package middleware

import "net/http"

// Middleware wraps an http.HandlerFunc with additional behavior.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain wraps h in the given middleware, outermost first, so
// Chain(h, CORS, LogRequest) serves CORS(LogRequest(h)).
func Chain(h http.HandlerFunc, mws ...Middleware) http.HandlerFunc {
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
