// Package testhelpers provides common utilities for testing the chat relay.
//
// It contains reusable helpers shared by the integration tests: starting a
// test server, dialing WebSocket connections with an accepted origin, and
// sending and reading event envelopes with deadlines.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verbly/chat-relay/internal/relay"
)

// TestOrigin is the origin the integration tests present on upgrade; relay
// configuration in tests must allow it.
const TestOrigin = "http://relay.test"

// CreateTestServer creates a test HTTP server with the given handler. It
// returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts a test server's base URL to its ws:// endpoint.
func WebSocketURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

// DialRelay opens a WebSocket connection to the test server, presenting
// TestOrigin. It fails the test if the handshake does not succeed and
// closes the connection on cleanup.
func DialRelay(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("Origin", TestOrigin)

	conn, resp, err := websocket.DefaultDialer.Dial(WebSocketURL(server), header)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent marshals payload and writes one event envelope to the
// connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	env := relay.Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload for %q: %v", event, err)
		}
		env.Payload = raw
	}

	frame, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Failed to marshal envelope for %q: %v", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Failed to write %q event: %v", event, err)
	}
}

// SendRaw writes an arbitrary text frame, valid or not.
func SendRaw(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("Failed to write raw frame: %v", err)
	}
}

// ReadEvent reads the next envelope from the connection, failing the test
// if nothing arrives within the timeout.
func ReadEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) relay.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Expected an event within %s: %v", timeout, err)
	}

	var env relay.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("Received frame is not a valid envelope: %s", frame)
	}
	return env
}

// ExpectEvent reads the next envelope and asserts its event name.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) relay.Envelope {
	t.Helper()

	env := ReadEvent(t, conn, timeout)
	if env.Event != event {
		t.Fatalf("Expected event %q, got %q (payload %s)", event, env.Event, env.Payload)
	}
	return env
}

// ExpectNoEvent asserts that nothing is delivered on the connection within
// the wait window.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, frame, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no delivery, got frame: %s", frame)
	}
}
