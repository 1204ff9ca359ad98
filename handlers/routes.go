// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods and handlers

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST)
	Path    string           // URL path (e.g., "/health")
	Reauth  bool             // subject to the stricter reauth rate limit
	Handler http.HandlerFunc // Handler function
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/health", Handler: h.Health},
		{Method: http.MethodPost, Path: "/reauth", Reauth: true, Handler: h.Reauth},
		{Method: http.MethodGet, Path: "/history", Handler: h.History},
		{Method: http.MethodGet, Path: "/get_creds", Handler: h.GetCreds},
		{Method: http.MethodPost, Path: "/register_client", Reauth: true, Handler: h.RegisterClient},
		{Method: http.MethodPost, Path: "/query", Handler: h.Query},
	}
}
