package service

import "time"

// SessionInfo is the full read view of a session.
type SessionInfo struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Language         string    `json:"language"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// SessionSummary is the listing view of a session. It never carries the
// code body.
type SessionSummary struct {
	ID               string    `json:"id"`
	Language         string    `json:"language"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateSessionResult is returned when a session is created. The ID is
// usable immediately as a join target; ShareLink is the public handle to
// hand to collaborators.
type CreateSessionResult struct {
	ID        string    `json:"id"`
	ShareLink string    `json:"share_link"`
	CreatedAt time.Time `json:"created_at"`
}
