package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one gateway connection. Inbound events are handled on the read
// pump; outbound frames are serialized through the send channel.
type Client struct {
	id     string
	userID uint
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

func (c *Client) closeSlow() {
	c.once.Do(func() {
		c.conn.Close()
	})
}

func (c *Client) sendEvent(eventType string, data interface{}) {
	payload, err := Encode(eventType, data)
	if err != nil {
		log.Printf("Error encoding %s event for client %s: %v", eventType, c.id, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.closeSlow()
	}
}

// sendError reports a failure to this connection only. There is no
// correlation id on errors; clients associate them by temporal proximity.
func (c *Client) sendError(message string) {
	c.sendEvent(EventError, ErrorData{Message: message})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c)
		c.conn.Close()
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
				log.Printf("Error reading from client %s: %v", c.id, err)
			}
			break
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("invalid event format")
			continue
		}
		c.dispatch(event)
	}
}

func (c *Client) dispatch(event Event) {
	switch event.Type {
	case EventJoinConversation:
		var ref RoomRef
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			c.sendError("invalid join payload")
			return
		}
		// Conversations are access-checked; fades deliberately are not.
		if !c.hub.chat.IsConversationParticipant(ref.ID, c.userID) {
			c.sendError("not a participant of this conversation")
			return
		}
		c.hub.Join(ConversationRoom(ref.ID), c)
		c.sendEvent(EventJoinedConversation, ref)

	case EventLeaveConversation:
		var ref RoomRef
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			c.sendError("invalid leave payload")
			return
		}
		c.hub.Leave(ConversationRoom(ref.ID), c)
		c.sendEvent(EventLeftConversation, ref)

	case EventJoinFade:
		var ref RoomRef
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			c.sendError("invalid join payload")
			return
		}
		c.hub.Join(FadeRoom(ref.ID), c)
		c.sendEvent(EventJoinedFade, ref)

	case EventLeaveFade:
		var ref RoomRef
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			c.sendError("invalid leave payload")
			return
		}
		c.hub.Leave(FadeRoom(ref.ID), c)
		c.sendEvent(EventLeftFade, ref)

	case EventSendMessage:
		var data SendMessageData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			c.sendError("invalid message payload")
			return
		}
		c.handleSendMessage(data)

	case EventTyping:
		var data TypingData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			c.sendError("invalid typing payload")
			return
		}
		c.handleTyping(data)

	default:
		c.sendError("unknown event type: " + event.Type)
	}
}

// handleSendMessage persists synchronously, then fans out to every room
// member including the sender. On persistence failure only the sender hears
// about it; nothing is broadcast and nothing is retried.
func (c *Client) handleSendMessage(data SendMessageData) {
	switch {
	case data.ConversationID != 0:
		message, err := c.hub.chat.SendConversationMessage(c.userID, data.ConversationID, data.Content, data.ReplyToID)
		if err != nil {
			c.sendError("failed to send message: " + err.Error())
			return
		}
		payload, err := NewMessagePayload(message, data.ClientID)
		if err != nil {
			c.sendError("failed to encode message")
			return
		}
		c.hub.Broadcast(ConversationRoom(data.ConversationID), payload, nil)
		if c.hub.notifications != nil {
			go c.hub.notifications.NotifyConversationMessage(message)
		}

	case data.FadeID != 0:
		message, err := c.hub.chat.SendFadeMessage(c.userID, data.FadeID, data.Content, data.ReplyToID)
		if err != nil {
			c.sendError("failed to send message: " + err.Error())
			return
		}
		payload, err := NewMessagePayload(message, data.ClientID)
		if err != nil {
			c.sendError("failed to encode message")
			return
		}
		c.hub.Broadcast(FadeRoom(data.FadeID), payload, nil)

	default:
		c.sendError("missing conversationId or fadeId")
	}
}

// handleTyping relays to every other member of the room. Nothing is
// persisted and no server-side timeout clears a stale indicator.
func (c *Client) handleTyping(data TypingData) {
	var room Room
	switch {
	case data.ConversationID != 0:
		room = ConversationRoom(data.ConversationID)
	case data.FadeID != 0:
		room = FadeRoom(data.FadeID)
	default:
		c.sendError("missing conversationId or fadeId")
		return
	}

	payload, err := Encode(EventUserTyping, TypingData{
		ConversationID: data.ConversationID,
		FadeID:         data.FadeID,
		UserID:         c.userID,
		IsTyping:       data.IsTyping,
	})
	if err != nil {
		return
	}
	c.hub.Broadcast(room, payload, c)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
