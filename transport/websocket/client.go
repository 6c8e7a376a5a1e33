package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codeshare/server/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Documents ride inside
	// code_update payloads, so this bounds the editable document size too.
	maxMessageSize = 1 << 20
)

// Client is the server-side handle for one WebSocket connection.
//
// userID is generated once at connection open and stays constant for the
// connection's lifetime; it tags outbound messages as authored by this
// participant and is never used for authorization. sessionID is the single
// session the connection is joined to ("" if none); it is only touched from
// the connection's read goroutine.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	sessionID string
}

// sendMessage marshals a message and queues it for delivery to this client
// alone. Like broadcasts, delivery is best-effort.
func (c *Client) sendMessage(msg *outEnvelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message for %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		metrics.DroppedWrites.Inc()
		log.Printf("Dropped %s message to %s: send buffer full", msg.Type, c.userID)
	}
}

// readPump pumps messages from the WebSocket connection into the hub's
// router. It runs in a per-connection goroutine; when the connection closes
// for any reason, it drives the leave sequence before returning.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		close(c.send)
		c.conn.Close()
		metrics.ActiveConnections.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.hub.route(c, raw)
	}
}

// writePump pumps queued messages to the WebSocket connection and keeps it
// alive with periodic pings. One message per frame; a write failure ends the
// connection and with it the pump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
