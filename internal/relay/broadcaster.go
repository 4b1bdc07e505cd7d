// Package relay delivers event envelopes to room subscriber sets through
// the Broadcaster type.
package relay

import "log"

// Broadcaster fans an event out to every connection subscribed to a room.
// Delivery is fire-and-forget: it is attempted once, to the registry
// snapshot taken at call time, with no acknowledgment or replay. A
// subscriber that joins after the call does not receive the event.
type Broadcaster struct {
	hub *Hub
}

// ToRoom delivers the event to every current subscriber of the room,
// skipping the excluded connection if one is given. Subscribers whose send
// buffers are full are dropped from the hub.
func (b *Broadcaster) ToRoom(room RoomID, event string, payload []byte, except *Client) {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		log.Printf("Error encoding %q envelope: %v", event, err)
		return
	}

	var failed []*Client
	for _, sub := range b.hub.registry.SubscribersOf(room) {
		if except != nil && sub == except {
			continue
		}
		if !b.hub.safeSend(sub, frame) {
			failed = append(failed, sub)
		}
	}

	b.hub.removeFailedClients(failed)
}

// ToClient delivers the event to a single connection, bypassing room
// routing. Used for the setup acknowledgment.
func (b *Broadcaster) ToClient(c *Client, event string, payload []byte) {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		log.Printf("Error encoding %q envelope: %v", event, err)
		return
	}

	if !b.hub.safeSend(c, frame) {
		b.hub.removeFailedClients([]*Client{c})
	}
}
