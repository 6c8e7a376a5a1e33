package service

import "context"

// EditorService defines the session operations consumed by the HTTP and MCP
// surfaces.
type EditorService interface {
	// CreateSession creates a new session with the default document.
	CreateSession(ctx context.Context) (*CreateSessionResult, error)

	// GetSession returns the full state of a session, including the live
	// participant count.
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)

	// ListSessions returns summaries of all live sessions.
	ListSessions(ctx context.Context) ([]*SessionSummary, error)

	// DeleteSession removes a session immediately.
	DeleteSession(ctx context.Context, sessionID string) error
}
