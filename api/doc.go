// Package api provides the HTTP surface of the CodeShare collaboration
// server.
//
// The api package implements:
//   - RESTful session management endpoints
//   - WebSocket upgrade handling for the realtime protocol
//   - Health and Prometheus metrics endpoints
//   - Static file serving
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a new session, returns id and share link
//   - GET /api/sessions - List session summaries (no code bodies)
//   - GET /api/sessions/{id} - Get full session state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Realtime:
//   - GET /ws?session=<id> - Upgrade to the collaboration WebSocket
//
// Operational:
//   - GET /healthz - Liveness probe
//   - GET /metrics - Prometheus scrape endpoint
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Errors are returned as JSON with
// appropriate HTTP status codes:
//
//	{
//	  "error": "session not found"
//	}
//
// Usage:
//
//	server := api.NewServer(editorService, hub)
//	http.ListenAndServe(addr, server)
package api
