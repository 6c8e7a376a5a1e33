package websocket

import "encoding/json"

// Inbound message types accepted from clients.
const (
	TypeJoin           = "join"
	TypeCodeUpdate     = "code_update"
	TypeLanguageChange = "language_change"
	TypeCursorUpdate   = "cursor_update"
)

// Outbound message types emitted to clients.
const (
	TypeInit       = "init"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
	TypeError      = "error"
)

// Envelope is the single bidirectional message shape of the realtime
// protocol. Data is kept raw on the inbound path so that each handler can
// decode only the fields it needs.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// outEnvelope is the outbound counterpart of Envelope with an already
// materialized payload.
type outEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// initData is unicast to a joiner with the full current document state.
type initData struct {
	Code             string `json:"code"`
	Language         string `json:"language"`
	UserID           string `json:"userId"`
	ParticipantCount int    `json:"participantCount"`
}

// presenceData announces a participant joining or leaving.
type presenceData struct {
	ParticipantCount int    `json:"participantCount"`
	UserID           string `json:"userId"`
}

// codeUpdateData carries a document text replacement.
type codeUpdateData struct {
	Code   string `json:"code"`
	UserID string `json:"userId,omitempty"`
}

// languageChangeData carries a language tag replacement.
type languageChangeData struct {
	Language string `json:"language"`
	UserID   string `json:"userId,omitempty"`
}

// errorData is unicast to a client whose request could not be honored.
type errorData struct {
	Message string `json:"message"`
}
