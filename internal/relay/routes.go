// Package relay wires HTTP handlers into a ServeMux for the relay
// application via routing helpers.
package relay

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes. It sets up handlers for health check, the WebSocket endpoint
// bound to the given hub, and the test page.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.Handle("/ws", NewWebSocketHandler(hub))
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
