package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/codeshare/server/editor/session"
	"github.com/codeshare/server/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Hub tracks which live connection belongs to which session and fans state
// changes out to a session's other participants.
//
// Each session with participants has a room guarding its client set with a
// dedicated mutex. Every mutation of a session's document and the broadcast
// derived from it happen under that room's lock, so concurrent updates to
// the same session are applied and relayed in one well-defined order, and a
// joiner's init snapshot is never torn between two updates. Sessions do not
// contend with each other.
type Hub struct {
	store  *session.Store
	reaper *session.Reaper

	mu    sync.RWMutex
	rooms map[string]*room
}

// room is the set of live connections joined to one session. closed is set,
// under mu, when the room is removed from the hub's map; a closed room must
// never be inserted into again.
type room struct {
	mu      sync.Mutex
	clients map[*Client]bool
	closed  bool
}

// NewHub creates a hub backed by the given session store.
func NewHub(store *session.Store) *Hub {
	return &Hub{
		store: store,
		rooms: make(map[string]*room),
	}
}

// SetReaper wires the reaper notified when a session's participant count
// drops to zero. The hub is usable without one; nothing is reclaimed then.
func (h *Hub) SetReaper(r *session.Reaper) {
	h.reaper = r
}

// ServeWS upgrades an HTTP request to a WebSocket connection and starts the
// connection's read and write pumps. The connection joins a session only
// once it sends a join message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: uuid.NewString(),
	}

	metrics.TotalConnections.Inc()
	metrics.ActiveConnections.Inc()

	go client.writePump()
	go client.readPump()
}

// ParticipantCount returns the number of live connections joined to the
// session, or zero if none are.
func (h *Hub) ParticipantCount(sessionID string) int {
	h.mu.RLock()
	r := h.rooms[sessionID]
	h.mu.RUnlock()

	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// route parses an inbound envelope and dispatches it. Malformed or unknown
// messages are logged and discarded; they never terminate the connection.
func (h *Hub) route(c *Client, raw []byte) {
	metrics.MessagesReceived.Inc()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("Discarding malformed message from %s: %v", c.userID, err)
		return
	}

	switch env.Type {
	case TypeJoin:
		h.handleJoin(c, &env)
	case TypeCodeUpdate:
		h.handleCodeUpdate(c, &env)
	case TypeLanguageChange:
		h.handleLanguageChange(c, &env)
	case TypeCursorUpdate:
		h.handleCursorUpdate(c, &env)
	default:
		log.Printf("Discarding message with unknown type %q from %s", env.Type, c.userID)
	}
}

// handleJoin adds the connection to the session's participant set, sends it
// the full current document state, and announces it to the other
// participants. Joining a missing session reports a typed error to the
// joiner only; the connection stays open and usable.
func (h *Hub) handleJoin(c *Client, env *Envelope) {
	if _, err := h.store.Get(env.SessionID); err != nil {
		c.sendMessage(&outEnvelope{Type: TypeError, Data: errorData{Message: "Session not found"}})
		return
	}

	// A join for a different session while already joined acts as
	// leave-then-join: the old session sees a user_left before the new one
	// sees a user_joined.
	if c.sessionID != "" && c.sessionID != env.SessionID {
		h.leave(c)
	}

	r := h.lockRoom(env.SessionID)
	snap, err := h.store.Get(env.SessionID)
	if err != nil {
		// Deleted between the precheck and taking the room lock.
		r.mu.Unlock()
		h.removeRoomIfEmpty(env.SessionID)
		c.sendMessage(&outEnvelope{Type: TypeError, Data: errorData{Message: "Session not found"}})
		return
	}

	rejoin := r.clients[c]
	r.clients[c] = true
	c.sessionID = env.SessionID
	count := len(r.clients)

	c.sendMessage(&outEnvelope{Type: TypeInit, Data: initData{
		Code:             snap.Code,
		Language:         snap.Language,
		UserID:           c.userID,
		ParticipantCount: count,
	}})
	if !rejoin {
		r.broadcastLocked(&outEnvelope{Type: TypeUserJoined, Data: presenceData{
			ParticipantCount: count,
			UserID:           c.userID,
		}}, c)
	}
	r.mu.Unlock()

	log.Printf("User %s joined session %s (participants: %d)", c.userID, env.SessionID, count)
}

// handleCodeUpdate applies a document text replacement and relays it to the
// session's other participants. Updates for unknown sessions are no-ops.
func (h *Hub) handleCodeUpdate(c *Client, env *Envelope) {
	var data codeUpdateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Printf("Discarding malformed code_update payload from %s: %v", c.userID, err)
		return
	}

	if _, err := h.store.Get(env.SessionID); err != nil {
		return
	}

	r := h.lockRoom(env.SessionID)
	if err := h.store.SetCode(env.SessionID, data.Code); err == nil {
		r.broadcastLocked(&outEnvelope{Type: TypeCodeUpdate, Data: codeUpdateData{
			Code:   data.Code,
			UserID: c.userID,
		}}, c)
	}
	r.mu.Unlock()

	h.removeRoomIfEmpty(env.SessionID)
}

// handleLanguageChange applies a language tag replacement and relays it to
// the session's other participants.
func (h *Hub) handleLanguageChange(c *Client, env *Envelope) {
	var data languageChangeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Printf("Discarding malformed language_change payload from %s: %v", c.userID, err)
		return
	}

	if _, err := h.store.Get(env.SessionID); err != nil {
		return
	}

	r := h.lockRoom(env.SessionID)
	if err := h.store.SetLanguage(env.SessionID, data.Language); err == nil {
		r.broadcastLocked(&outEnvelope{Type: TypeLanguageChange, Data: languageChangeData{
			Language: data.Language,
			UserID:   c.userID,
		}}, c)
	}
	r.mu.Unlock()

	h.removeRoomIfEmpty(env.SessionID)
}

// handleCursorUpdate relays an opaque cursor payload, tagged with the
// sender's userId, to the session's other participants. No session state is
// touched.
func (h *Hub) handleCursorUpdate(c *Client, env *Envelope) {
	payload := make(map[string]interface{})
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Printf("Discarding malformed cursor_update payload from %s: %v", c.userID, err)
			return
		}
	}
	payload["userId"] = c.userID

	h.mu.RLock()
	r := h.rooms[env.SessionID]
	h.mu.RUnlock()
	if r == nil {
		return
	}

	r.mu.Lock()
	r.broadcastLocked(&outEnvelope{Type: TypeCursorUpdate, Data: payload}, c)
	r.mu.Unlock()
}

// leave removes the connection from whatever session it belongs to, tells
// the remaining participants, and hands the session to the reaper when the
// participant count reaches zero. It is a no-op for un-joined connections.
func (h *Hub) leave(c *Client) {
	sessionID := c.sessionID
	if sessionID == "" {
		return
	}
	c.sessionID = ""

	h.mu.RLock()
	r := h.rooms[sessionID]
	h.mu.RUnlock()
	if r == nil {
		return
	}

	r.mu.Lock()
	if !r.clients[c] {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c)
	count := len(r.clients)
	r.broadcastLocked(&outEnvelope{Type: TypeUserLeft, Data: presenceData{
		ParticipantCount: count,
		UserID:           c.userID,
	}}, nil)
	r.mu.Unlock()

	log.Printf("User %s left session %s (participants: %d)", c.userID, sessionID, count)

	if count == 0 {
		h.removeRoomIfEmpty(sessionID)
		if h.reaper != nil {
			h.reaper.Schedule(sessionID)
		}
	}
}

// getOrCreateRoom returns the session's room, creating it if needed.
func (h *Hub) getOrCreateRoom(sessionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[sessionID]
	if !exists {
		r = &room{clients: make(map[*Client]bool)}
		h.rooms[sessionID] = r
	}
	return r
}

// lockRoom returns the session's room with its lock held, creating the room
// if needed. A concurrent last-leave can remove the room between the lookup
// and taking its lock; removal marks the room closed, so that case is
// detected and the lookup retried rather than joining an orphaned room that
// no broadcast will ever reach.
func (h *Hub) lockRoom(sessionID string) *room {
	for {
		r := h.getOrCreateRoom(sessionID)
		r.mu.Lock()
		if !r.closed {
			return r
		}
		r.mu.Unlock()
	}
}

// removeRoomIfEmpty drops the session's room if it has no participants. The
// emptiness check and the removal happen under both the hub lock and the
// room lock, so an insertion cannot slip in between.
func (h *Hub) removeRoomIfEmpty(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[sessionID]
	if !exists {
		return
	}
	r.mu.Lock()
	if len(r.clients) == 0 {
		r.closed = true
		delete(h.rooms, sessionID)
	}
	r.mu.Unlock()
}

// broadcastLocked serializes the message once and delivers it to every
// participant except exclude. Delivery is best-effort per connection: a
// client whose send buffer is full misses the message without affecting the
// others. Callers must hold the room lock.
func (r *room) broadcastLocked(msg *outEnvelope, exclude *Client) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	metrics.BroadcastsSent.WithLabelValues(msg.Type).Inc()

	for client := range r.clients {
		if client == exclude {
			continue
		}
		select {
		case client.send <- data:
		default:
			metrics.DroppedWrites.Inc()
			log.Printf("Dropped %s message to %s: send buffer full", msg.Type, client.userID)
		}
	}
}
