// Package relay maintains the process-wide room registry that maps room
// identifiers to their current subscriber sets.
package relay

import "sync"

// RoomID names a delivery group. User ids and conversation ids live in
// separate namespaces; construct values through UserRoom and
// ConversationRoom so the two can never collide on an equal raw id.
type RoomID string

// UserRoom returns the personal room for a user id. A user's personal room
// reaches that user regardless of which conversation they are viewing.
func UserRoom(id string) RoomID {
	return RoomID("user:" + id)
}

// ConversationRoom returns the shared room for a conversation id, reaching
// every connection currently viewing that conversation.
func ConversationRoom(id string) RoomID {
	return RoomID("conversation:" + id)
}

// Registry tracks which connections are subscribed to which rooms. It is
// shared by every connection's handlers and is safe for concurrent use.
//
// Two indexes are kept in lockstep: byRoom answers "who is in this room"
// for the broadcaster, byClient answers "which rooms does this connection
// hold" so disconnect cleanup never scans the full room table.
type Registry struct {
	mu       sync.RWMutex
	byRoom   map[RoomID]map[*Client]struct{}
	byClient map[*Client]map[RoomID]struct{}
}

// NewRegistry creates an empty Registry ready for concurrent use.
func NewRegistry() *Registry {
	return &Registry{
		byRoom:   make(map[RoomID]map[*Client]struct{}),
		byClient: make(map[*Client]map[RoomID]struct{}),
	}
}

// Join subscribes the connection to the room, creating the room's set on
// first use. Joining a room the connection is already in is a no-op.
func (r *Registry) Join(c *Client, room RoomID) {
	if c == nil || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.byRoom[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.byRoom[room] = members
	}
	members[c] = struct{}{}

	rooms, ok := r.byClient[c]
	if !ok {
		rooms = make(map[RoomID]struct{})
		r.byClient[c] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes the connection from the room. Leaving a room the connection
// never joined, or an unknown room, is a no-op. Empty rooms are reclaimed.
func (r *Registry) Leave(c *Client, room RoomID) {
	if c == nil || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, room)
}

func (r *Registry) leaveLocked(c *Client, room RoomID) {
	if members, ok := r.byRoom[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.byRoom, room)
		}
	}
	if rooms, ok := r.byClient[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.byClient, c)
		}
	}
}

// RemoveAll removes the connection from every room it belongs to. Called
// once when a connection disconnects.
func (r *Registry) RemoveAll(c *Client) {
	if c == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.byClient[c] {
		r.leaveLocked(c, room)
	}
	delete(r.byClient, c)
}

// SubscribersOf returns a snapshot of the room's current subscribers. The
// broadcaster delivers to exactly this snapshot; joins racing the call may
// or may not be included.
func (r *Registry) SubscribersOf(room RoomID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byRoom[room]
	if len(members) == 0 {
		return nil
	}

	subs := make([]*Client, 0, len(members))
	for c := range members {
		subs = append(subs, c)
	}
	return subs
}

// Rooms returns a snapshot of the rooms the connection currently holds.
func (r *Registry) Rooms(c *Client) []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	held := r.byClient[c]
	if len(held) == 0 {
		return nil
	}

	rooms := make([]RoomID, 0, len(held))
	for room := range held {
		rooms = append(rooms, room)
	}
	return rooms
}
