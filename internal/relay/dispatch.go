// Package relay binds inbound event names to their handlers and implements
// the routing policy for each chat event.
package relay

import (
	"encoding/json"
	"log"

	"github.com/tidwall/gjson"
)

// handlerFunc processes one inbound event for a connection. The payload is
// exactly what the transport delivered; handlers must tolerate missing
// structure and degrade to a no-op rather than fail the connection.
type handlerFunc func(c *Client, payload json.RawMessage)

// dispatcher maps inbound event names to handlers. One dispatcher is bound
// per connection at accept time; handlers run on the connection's read
// pump, so events from the same connection are processed in arrival order.
type dispatcher struct {
	handlers map[string]handlerFunc
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: map[string]handlerFunc{
		EventSetup:       handleSetup,
		EventNewMessage:  handleNewMessage,
		EventJoinChat:    handleJoinChat,
		EventTyping:      handleTyping,
		EventStopTyping:  handleStopTyping,
		EventClearChat:   handleClearChat,
		EventDeleteChat:  handleDeleteChat,
		EventChatCreated: handleChatCreated,
	}}
}

func (d *dispatcher) dispatch(c *Client, env Envelope) {
	handler, ok := d.handlers[env.Event]
	if !ok {
		log.Printf("No handler for event %q from %s; discarding", env.Event, c.addr)
		return
	}
	handler(c, env.Payload)
}

// extractUserID reads the user identifier from a setup payload, which may
// be a bare JSON string or an object carrying an "_id" field.
func extractUserID(payload json.RawMessage) string {
	v := gjson.ParseBytes(payload)
	if v.Type == gjson.String {
		return v.String()
	}
	return v.Get("_id").String()
}

// handleSetup binds the connection to its personal room and acknowledges
// with "connected" to the same connection only. Duplicate setup events are
// ignored.
func handleSetup(c *Client, payload json.RawMessage) {
	userID := extractUserID(payload)
	if userID == "" {
		return
	}
	if !c.identify(userID) {
		return
	}
	c.hub.broadcaster.ToClient(c, EventConnected, nil)
}

// handleNewMessage fans the full message payload out to the personal room
// of every chat participant except the sender. Personal rooms are used so
// recipients are reached even when they are not viewing the conversation.
func handleNewMessage(c *Client, payload json.RawMessage) {
	msg := gjson.ParseBytes(payload)
	senderID := msg.Get("sender._id").String()

	msg.Get("chat.users").ForEach(func(_, user gjson.Result) bool {
		userID := user.Get("_id").String()
		if userID == "" || userID == senderID {
			return true
		}
		c.hub.broadcaster.ToRoom(UserRoom(userID), EventMessageReceived, payload, nil)
		return true
	})
}

// handleJoinChat moves the connection into the named conversation room.
// No outbound event is emitted; this is a membership change only.
func handleJoinChat(c *Client, payload json.RawMessage) {
	conversationID := gjson.ParseBytes(payload).String()
	if conversationID == "" {
		return
	}
	c.joinConversation(conversationID)
}

// Typing indicators go to the conversation room rather than personal rooms:
// they are only meaningful to peers actively viewing the same conversation.
// Every subscriber receives them, the emitting connection included.
func handleTyping(c *Client, payload json.RawMessage) {
	relayToConversation(c, EventTyping, payload)
}

func handleStopTyping(c *Client, payload json.RawMessage) {
	relayToConversation(c, EventStopTyping, payload)
}

func relayToConversation(c *Client, event string, payload json.RawMessage) {
	conversationID := gjson.ParseBytes(payload).String()
	if conversationID == "" {
		return
	}
	room := ConversationRoom(conversationID)
	// Indicators are only relayed for the conversation the connection is
	// actually in; typing into a room left behind delivers nothing.
	if c.currentRoom != room {
		return
	}
	c.hub.broadcaster.ToRoom(room, event, payload, nil)
}

// handleClearChat notifies everyone viewing the conversation that its
// history was cleared.
func handleClearChat(c *Client, payload json.RawMessage) {
	chatID := gjson.ParseBytes(payload).String()
	if chatID == "" {
		return
	}
	c.hub.broadcaster.ToRoom(ConversationRoom(chatID), EventClearChat, payload, nil)
}

// handleDeleteChat notifies every chat participant except the acting user,
// carrying only the deleted chat's id.
func handleDeleteChat(c *Client, payload json.RawMessage) {
	v := gjson.ParseBytes(payload)
	chatID := v.Get("chat._id")
	fanOutToParticipants(c, v, EventDeleteChat, json.RawMessage(chatID.Raw))
}

// handleChatCreated notifies every chat participant except the acting user,
// carrying the full chat object.
func handleChatCreated(c *Client, payload json.RawMessage) {
	v := gjson.ParseBytes(payload)
	chat := v.Get("chat")
	fanOutToParticipants(c, v, EventChatCreated, json.RawMessage(chat.Raw))
}

// fanOutToParticipants delivers an event to the personal room of every user
// in payload.chat.users, skipping payload.userId (the acting user). Missing
// fields iterate zero times.
func fanOutToParticipants(c *Client, payload gjson.Result, event string, out json.RawMessage) {
	actorID := payload.Get("userId").String()

	payload.Get("chat.users").ForEach(func(_, user gjson.Result) bool {
		userID := user.Get("_id").String()
		if userID == "" || userID == actorID {
			return true
		}
		c.hub.broadcaster.ToRoom(UserRoom(userID), event, out, nil)
		return true
	})
}
