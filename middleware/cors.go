// ABOUTME: CORS middleware for cross-origin API access
// ABOUTME: Handles preflight OPTIONS and adds permissive headers

package middleware

import "net/http"

// CORS returns middleware that adds permissive cross-origin headers to
// responses. OPTIONS preflight requests on any path return 200 OK without
// reaching the wrapped handler.
func CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
