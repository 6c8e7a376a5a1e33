// Command smoke runs a quick end-to-end exercise against a running CodeShare
// server: it creates a session over the REST API, connects several WebSocket
// clients, joins them all, sends a code update from the first, and reports
// whether every other client received it. Exit status is non-zero when any
// step fails, so it doubles as a deploy check.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var (
	serverURL  = flag.String("url", "http://localhost:8080", "Base URL of the CodeShare server")
	numClients = flag.Int("clients", 3, "Number of WebSocket clients to connect")
	timeout    = flag.Duration("timeout", 5*time.Second, "Per-read timeout")
)

// envelope mirrors the server's protocol message shape.
type envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func main() {
	flag.Parse()

	sessionID, err := createSession(*serverURL)
	if err != nil {
		fail("create session: %v", err)
	}
	fmt.Printf("Created session %s\n", sessionID)

	wsURL := "ws" + strings.TrimPrefix(*serverURL, "http") + "/ws?session=" + sessionID

	conns := make([]*websocket.Conn, 0, *numClients)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < *numClients; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			fail("client %d: dial: %v", i, err)
		}
		conns = append(conns, conn)

		join := envelope{Type: "join", SessionID: sessionID}
		if err := conn.WriteJSON(join); err != nil {
			fail("client %d: send join: %v", i, err)
		}

		init, err := readUntil(conn, "init")
		if err != nil {
			fail("client %d: wait for init: %v", i, err)
		}

		var initData struct {
			ParticipantCount int `json:"participantCount"`
		}
		json.Unmarshal(init.Data, &initData)
		if initData.ParticipantCount != i+1 {
			fail("client %d: expected participantCount %d in init, got %d", i, i+1, initData.ParticipantCount)
		}
		fmt.Printf("Client %d joined (participants: %d)\n", i, initData.ParticipantCount)
	}

	// One author, everyone else a reader.
	updated := fmt.Sprintf("// smoke test %d\n", time.Now().Unix())
	update := envelope{
		Type:      "code_update",
		SessionID: sessionID,
		Data:      mustMarshal(map[string]string{"code": updated}),
	}
	if err := conns[0].WriteJSON(update); err != nil {
		fail("send code_update: %v", err)
	}

	for i := 1; i < len(conns); i++ {
		msg, err := readUntil(conns[i], "code_update")
		if err != nil {
			fail("client %d: wait for code_update: %v", i, err)
		}

		var data struct {
			Code string `json:"code"`
		}
		json.Unmarshal(msg.Data, &data)
		if data.Code != updated {
			fail("client %d: code mismatch: got %q", i, data.Code)
		}
	}
	fmt.Printf("All %d readers received the update\n", len(conns)-1)

	// The stored document should reflect the update too.
	code, err := getSessionCode(*serverURL, sessionID)
	if err != nil {
		fail("get session: %v", err)
	}
	if code != updated {
		fail("stored code mismatch: got %q", code)
	}

	fmt.Println("Smoke test passed")
}

// createSession creates a session via the REST API and returns its ID.
func createSession(baseURL string) (string, error) {
	resp, err := http.Post(baseURL+"/api/sessions", "application/json", bytes.NewReader(nil))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// getSessionCode fetches the stored document text of a session.
func getSessionCode(baseURL, sessionID string) (string, error) {
	resp, err := http.Get(baseURL + "/api/sessions/" + sessionID)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var info struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Code, nil
}

// readUntil reads messages until one of the wanted type arrives, skipping
// presence traffic from the other clients.
func readUntil(conn *websocket.Conn, wantType string) (*envelope, error) {
	deadline := time.Now().Add(*timeout)
	conn.SetReadDeadline(deadline)

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil, err
		}
		if env.Type == wantType {
			return &env, nil
		}
		if env.Type == "error" {
			return nil, fmt.Errorf("server error: %s", env.Data)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for %s", wantType)
		}
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
