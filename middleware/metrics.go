// ABOUTME: Metrics middleware recording response status codes
// ABOUTME: Decoupled from the collector via a small recorder interface

package middleware

import "net/http"

// StatusRecorder receives the status code of each completed response.
type StatusRecorder interface {
	RecordHTTPStatus(code int)
}

// Metrics returns middleware that reports each response's status code to rec.
func Metrics(rec StatusRecorder) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(wrapped, r)
			rec.RecordHTTPStatus(wrapped.statusCode)
		}
	}
}
