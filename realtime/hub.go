package realtime

import (
	"fmt"
	"log"
	"sync"

	"hive-server/services"
)

type RoomKind string

const (
	RoomConversation RoomKind = "conversation"
	RoomFade         RoomKind = "fade"
)

// Room names a fan-out group: one per conversation or fade id. Conversation
// and fade ids live in separate tables, so the kind is part of the key.
type Room struct {
	Kind RoomKind
	ID   uint
}

func ConversationRoom(id uint) Room { return Room{Kind: RoomConversation, ID: id} }
func FadeRoom(id uint) Room         { return Room{Kind: RoomFade, ID: id} }

func (r Room) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Hub tracks which connections are in which rooms and fans persisted
// messages out to them. All state is process-local; the persistence store
// is the only shared resource.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[Room]map[*Client]bool
	memberships map[*Client]map[Room]struct{}

	chat          *services.ChatService
	notifications *services.NotificationService
}

func NewHub(chat *services.ChatService, notifications *services.NotificationService) *Hub {
	return &Hub{
		rooms:         make(map[Room]map[*Client]bool),
		memberships:   make(map[*Client]map[Room]struct{}),
		chat:          chat,
		notifications: notifications,
	}
}

// Join adds the client to the room. A connection may hold any number of
// memberships.
func (h *Hub) Join(room Room, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[room]
	if clients == nil {
		clients = make(map[*Client]bool)
		h.rooms[room] = clients
	}
	clients[c] = true

	member := h.memberships[c]
	if member == nil {
		member = make(map[Room]struct{})
		h.memberships[c] = member
	}
	member[room] = struct{}{}
}

// Leave removes the client from the room.
func (h *Hub) Leave(room Room, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, c)
}

// Detach clears every room membership for a disconnecting client.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.memberships[c] {
		h.leaveLocked(room, c)
	}
	delete(h.memberships, c)
}

func (h *Hub) leaveLocked(room Room, c *Client) {
	clients := h.rooms[room]
	if clients == nil {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
	if member, ok := h.memberships[c]; ok {
		delete(member, room)
	}
}

// Broadcast writes payload to every member of the room. When exclude is
// non-nil that client is skipped (typing relays). A member whose send
// buffer is full is dropped to keep backpressure bounded.
func (h *Hub) Broadcast(room Room, payload []byte, exclude *Client) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c == exclude {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		select {
		case c.send <- payload:
			delivered++
		default:
			log.Printf("Client %s send buffer full in room %s, dropping connection", c.id, room)
			c.closeSlow()
		}
	}
	return delivered
}

// InRoom reports membership; used by handlers and tests.
func (h *Hub) InRoom(room Room, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room][c]
}
