// Package websocket provides the realtime transport for the CodeShare
// collaboration server.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Session-aware connection tracking with per-connection user IDs
//   - Message routing for the collaboration protocol
//   - Fan-out of document changes to a session's other participants
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-room model. The central Hub maps session IDs to
// rooms; a room is the set of live connections joined to one session. Each
// connection is handled by dedicated read and write goroutines.
//
// Message Protocol:
//
// Messages are JSON envelopes of the shape {type, sessionId, data}.
//   - Inbound: join, code_update, language_change, cursor_update
//   - Outbound: init, user_joined, user_left, code_update, language_change,
//     cursor_update, error
//
// A connection joins a session by sending {type: "join", sessionId: "..."}
// after the upgrade. The joiner receives an init message with the full
// current document; everyone else in the session receives user_joined.
// Document updates are relayed to all participants except their author.
//
// Concurrency:
//
// Each room carries its own mutex. A session mutation and the broadcast it
// produces execute under that lock as one atomic unit, so updates to one
// session are applied and relayed in a single well-defined order while
// different sessions proceed in parallel. The only blocking points are the
// transport write deadline and the client send buffers, which drop rather
// than stall when a consumer is too slow.
//
// Usage:
//
//	hub := websocket.NewHub(store)
//	hub.SetReaper(reaper)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r)
//	})
package websocket
