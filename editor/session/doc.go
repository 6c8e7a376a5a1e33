// Package session provides session state management for the CodeShare
// collaboration server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Last-write-wins document updates (code text and language tag)
//   - Deferred cleanup of abandoned sessions
//
// Core Types:
//
// Store is the owner of all session state. Session represents one shared
// document with its metadata. Reaper reclaims sessions whose participant
// count has stayed at zero for a grace period.
//
// Session Identifiers:
//
// Sessions use 10-character hex IDs generated with cryptographic randomness.
// The ID doubles as the public shareable handle for joining a session.
//
// Concurrency:
//
// The store is thread-safe and supports concurrent operations. Reads return
// copies taken under the store lock, so callers never observe a torn
// document. Serialization of mutate-then-broadcast sequences is the
// responsibility of the transport layer, which holds a per-session lock
// around each mutation and the fan-out derived from it.
//
// Persistence:
//
// The store is in-memory by default. Attaching a Persistence implementation
// (FilePersistence writes one JSON file per session) mirrors mutations to
// durable storage best-effort and allows restoring sessions on startup.
//
// Cleanup:
//
// Sessions are removed explicitly through Delete or by the Reaper. The
// reaper holds no timer handles: every scheduled deletion re-checks the live
// participant count when it fires, so a rejoin during the grace period
// simply turns the deletion into a no-op.
package session
