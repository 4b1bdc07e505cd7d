// Package integration contains full-stack tests for the chat relay.
//
// These tests start a real HTTP server, upgrade real WebSocket connections,
// and exercise the event protocol end to end the way clients do.
package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verbly/chat-relay/internal/relay"
	"github.com/verbly/chat-relay/test/testhelpers"
)

const (
	eventTimeout = 2 * time.Second
	quietWindow  = 300 * time.Millisecond
	// settle gives join/setup events from other connections time to land;
	// cross-connection ordering is not guaranteed by the relay.
	settle = 150 * time.Millisecond
)

type chatUser struct {
	ID string `json:"_id"`
}

type chatObject struct {
	ID    string     `json:"_id"`
	Users []chatUser `json:"users"`
}

type messagePayload struct {
	Sender  chatUser   `json:"sender"`
	Content string     `json:"content"`
	Chat    chatObject `json:"chat"`
}

type lifecyclePayload struct {
	Chat   chatObject `json:"chat"`
	UserID string     `json:"userId"`
}

// startRelay configures the relay for testing, runs a hub, and serves the
// routes on a test HTTP server.
func startRelay(t *testing.T) *httptest.Server {
	t.Helper()

	relay.SetConfig(&relay.Config{
		AllowedOrigins: []string{testhelpers.TestOrigin},
	})
	t.Cleanup(func() { relay.SetConfig(nil) })

	hub := relay.NewHub(relay.NewRegistry())
	relay.StartHub(hub)
	t.Cleanup(func() {
		if err := hub.Shutdown(5 * time.Second); err != nil {
			t.Errorf("Hub shutdown: %v", err)
		}
	})

	server := testhelpers.CreateTestServer(relay.SetupRoutes(hub))
	t.Cleanup(server.Close)
	return server
}

// dialRaw attempts a handshake without the helpers' origin header
// handling, returning whatever the server answered.
func dialRaw(url string, header http.Header) (*websocket.Conn, *http.Response, error) {
	return websocket.DefaultDialer.Dial(url, header)
}

// TestSetupAcknowledged verifies the setup handshake: the relay answers
// with "connected" on the same connection.
func TestSetupAcknowledged(t *testing.T) {
	server := startRelay(t)
	conn := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, conn, relay.EventSetup, "u1")
	env := testhelpers.ExpectEvent(t, conn, relay.EventConnected, eventTimeout)
	if len(env.Payload) != 0 {
		t.Errorf("Expected empty connected payload, got %s", env.Payload)
	}
}

// TestMessageRouting verifies that a message fans out to the
// other participant's personal room and never echoes to the sender.
func TestMessageRouting(t *testing.T) {
	server := startRelay(t)
	a := testhelpers.DialRelay(t, server)
	b := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, a, relay.EventSetup, "u1")
	testhelpers.ExpectEvent(t, a, relay.EventConnected, eventTimeout)
	testhelpers.SendEvent(t, b, relay.EventSetup, "u2")
	testhelpers.ExpectEvent(t, b, relay.EventConnected, eventTimeout)

	payload := messagePayload{
		Sender:  chatUser{ID: "u1"},
		Content: "hello",
		Chat: chatObject{
			ID:    "c1",
			Users: []chatUser{{ID: "u1"}, {ID: "u2"}},
		},
	}
	testhelpers.SendEvent(t, a, relay.EventNewMessage, payload)

	env := testhelpers.ExpectEvent(t, b, relay.EventMessageReceived, eventTimeout)
	if !strings.Contains(string(env.Payload), `"content":"hello"`) {
		t.Errorf("Expected forwarded payload to carry the message, got %s", env.Payload)
	}
	if !strings.Contains(string(env.Payload), `"_id":"c1"`) {
		t.Errorf("Expected forwarded payload to carry the chat, got %s", env.Payload)
	}

	testhelpers.ExpectNoEvent(t, a, quietWindow)
}

// TestTypingEcho verifies the documented indicator policy: every
// subscriber of the conversation room receives the indicator, the emitter
// included.
func TestTypingEcho(t *testing.T) {
	server := startRelay(t)
	a := testhelpers.DialRelay(t, server)
	b := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, a, relay.EventJoinChat, "room7")
	testhelpers.SendEvent(t, b, relay.EventJoinChat, "room7")
	time.Sleep(settle)

	testhelpers.SendEvent(t, a, relay.EventTyping, "room7")

	testhelpers.ExpectEvent(t, b, relay.EventTyping, eventTimeout)
	testhelpers.ExpectEvent(t, a, relay.EventTyping, eventTimeout)

	testhelpers.SendEvent(t, a, relay.EventStopTyping, "room7")
	testhelpers.ExpectEvent(t, b, relay.EventStopTyping, eventTimeout)
}

// TestTypingAfterLeavingRoom verifies that once a connection has
// migrated to another conversation, typing into the old room delivers
// nothing.
func TestTypingAfterLeavingRoom(t *testing.T) {
	server := startRelay(t)
	a := testhelpers.DialRelay(t, server)
	b := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, a, relay.EventJoinChat, "room1")
	testhelpers.SendEvent(t, b, relay.EventJoinChat, "room1")
	time.Sleep(settle)
	testhelpers.SendEvent(t, a, relay.EventJoinChat, "room2")
	time.Sleep(settle)

	testhelpers.SendEvent(t, a, relay.EventTyping, "room1")

	testhelpers.ExpectNoEvent(t, b, quietWindow)
}

// TestChatLifecycleExclusion verifies that chat created and delete chat
// reach every participant except the acting user.
func TestChatLifecycleExclusion(t *testing.T) {
	server := startRelay(t)
	x := testhelpers.DialRelay(t, server)
	y := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, x, relay.EventSetup, "X")
	testhelpers.ExpectEvent(t, x, relay.EventConnected, eventTimeout)
	testhelpers.SendEvent(t, y, relay.EventSetup, "Y")
	testhelpers.ExpectEvent(t, y, relay.EventConnected, eventTimeout)

	chat := chatObject{ID: "c7", Users: []chatUser{{ID: "X"}, {ID: "Y"}}}

	testhelpers.SendEvent(t, x, relay.EventChatCreated, lifecyclePayload{Chat: chat, UserID: "X"})
	env := testhelpers.ExpectEvent(t, y, relay.EventChatCreated, eventTimeout)
	if !strings.Contains(string(env.Payload), `"_id":"c7"`) {
		t.Errorf("Expected chat object payload, got %s", env.Payload)
	}

	testhelpers.SendEvent(t, x, relay.EventDeleteChat, lifecyclePayload{Chat: chat, UserID: "X"})
	env = testhelpers.ExpectEvent(t, y, relay.EventDeleteChat, eventTimeout)
	if string(env.Payload) != `"c7"` {
		t.Errorf("Expected deleted chat id payload, got %s", env.Payload)
	}

	testhelpers.ExpectNoEvent(t, x, quietWindow)
}

// TestClearChat verifies that viewers of a conversation are told when its
// history is cleared.
func TestClearChat(t *testing.T) {
	server := startRelay(t)
	a := testhelpers.DialRelay(t, server)
	b := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, a, relay.EventJoinChat, "c3")
	testhelpers.SendEvent(t, b, relay.EventJoinChat, "c3")
	time.Sleep(settle)

	testhelpers.SendEvent(t, a, relay.EventClearChat, "c3")

	env := testhelpers.ExpectEvent(t, b, relay.EventClearChat, eventTimeout)
	if string(env.Payload) != `"c3"` {
		t.Errorf("Expected chat id payload, got %s", env.Payload)
	}
}

// TestDisconnectPurgesMemberships verifies that a closed connection stops
// receiving and the relay keeps serving the remaining connections.
func TestDisconnectPurgesMemberships(t *testing.T) {
	server := startRelay(t)
	a := testhelpers.DialRelay(t, server)
	b := testhelpers.DialRelay(t, server)

	testhelpers.SendEvent(t, a, relay.EventSetup, "u1")
	testhelpers.ExpectEvent(t, a, relay.EventConnected, eventTimeout)
	testhelpers.SendEvent(t, b, relay.EventSetup, "u2")
	testhelpers.ExpectEvent(t, b, relay.EventConnected, eventTimeout)

	if err := a.Close(); err != nil {
		t.Fatalf("Failed to close connection: %v", err)
	}
	time.Sleep(settle)

	// Emitting to the departed user's personal room must neither fail nor
	// disturb the surviving connection.
	payload := messagePayload{
		Sender: chatUser{ID: "u2"},
		Chat:   chatObject{ID: "c1", Users: []chatUser{{ID: "u1"}, {ID: "u2"}}},
	}
	testhelpers.SendEvent(t, b, relay.EventNewMessage, payload)

	testhelpers.SendEvent(t, b, relay.EventJoinChat, "c1")
	time.Sleep(settle)
	testhelpers.SendEvent(t, b, relay.EventTyping, "c1")
	testhelpers.ExpectEvent(t, b, relay.EventTyping, eventTimeout)
}

// TestMalformedFramesKeepConnectionAlive verifies the error policy: bad
// frames and unknown events are dropped without terminating the
// connection.
func TestMalformedFramesKeepConnectionAlive(t *testing.T) {
	server := startRelay(t)
	conn := testhelpers.DialRelay(t, server)

	testhelpers.SendRaw(t, conn, `this is not json`)
	testhelpers.SendRaw(t, conn, `{"payload":"no event name"}`)
	testhelpers.SendRaw(t, conn, `{"event":"no such event","payload":1}`)
	testhelpers.SendEvent(t, conn, relay.EventNewMessage, map[string]any{"chat": "missing users"})

	testhelpers.SendEvent(t, conn, relay.EventSetup, "u1")
	testhelpers.ExpectEvent(t, conn, relay.EventConnected, eventTimeout)
}

// TestHealthEndpoint verifies the plain health check route.
func TestHealthEndpoint(t *testing.T) {
	server := startRelay(t)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

// TestWebSocketEndpointRejectsNonGet verifies the upgrade endpoint's method
// guard.
func TestWebSocketEndpointRejectsNonGet(t *testing.T) {
	server := startRelay(t)

	resp, err := http.Post(server.URL+"/ws", "application/json", nil)
	if err != nil {
		t.Fatalf("POST request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.StatusCode)
	}
}

// TestDisallowedOriginBlocked verifies that upgrades from unlisted origins
// fail the handshake.
func TestDisallowedOriginBlocked(t *testing.T) {
	server := startRelay(t)

	header := http.Header{}
	header.Set("Origin", "http://evil.test")

	conn, resp, err := dialRaw(testhelpers.WebSocketURL(server), header)
	if err == nil {
		_ = conn.Close()
		t.Fatal("Expected handshake from disallowed origin to fail")
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", resp.StatusCode)
		}
	}
}
