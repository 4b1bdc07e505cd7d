// Package relay defines the wire-level event envelope and the event names
// shared between the relay and its clients.
package relay

import "encoding/json"

// Inbound event names. These strings are part of the wire contract and must
// match the client side byte-for-byte, spaces included.
const (
	EventSetup       = "setup"
	EventNewMessage  = "new message"
	EventJoinChat    = "join chat"
	EventTyping      = "typing"
	EventStopTyping  = "stop typing"
	EventClearChat   = "clear chat"
	EventDeleteChat  = "delete chat"
	EventChatCreated = "chat created"
)

// Outbound event names. "connected" acknowledges setup to the originating
// connection only; "message received" carries the full message payload to
// each recipient's personal room. The lifecycle events reuse their inbound
// names.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

// Envelope is the JSON frame exchanged over the WebSocket. Payload is kept
// as raw JSON: the relay forwards it verbatim and never re-validates it.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeEnvelope frames an outbound event. An empty payload is legal and
// omits the payload field entirely ("connected" has no body).
func encodeEnvelope(event string, payload []byte) ([]byte, error) {
	env := Envelope{Event: event}
	if len(payload) > 0 {
		env.Payload = json.RawMessage(payload)
	}
	return json.Marshal(env)
}
