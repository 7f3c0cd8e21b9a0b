package realtime

import "encoding/json"

// Client -> server event types.
const (
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventJoinFade          = "join-fade"
	EventLeaveFade         = "leave-fade"
	EventSendMessage       = "send-message"
	EventTyping            = "typing"
)

// Server -> client event types.
const (
	EventJoinedConversation = "joined-conversation"
	EventLeftConversation   = "left-conversation"
	EventJoinedFade         = "joined-fade"
	EventLeftFade           = "left-fade"
	EventNewMessage         = "new-message"
	EventUserTyping         = "user-typing"
	EventError              = "error"
)

// Event is the wire envelope for every gateway message in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps data in an Event envelope and marshals it.
func Encode(eventType string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Event{Type: eventType, Data: raw})
}

// RoomRef identifies the parent conversation or fade in join/leave events.
type RoomRef struct {
	ID uint `json:"id"`
}

type SendMessageData struct {
	ConversationID uint   `json:"conversationId,omitempty"`
	FadeID         uint   `json:"fadeId,omitempty"`
	Content        string `json:"content"`
	ReplyToID      *uint  `json:"replyToId,omitempty"`
	// ClientID is a client-generated correlation id, echoed verbatim in the
	// new-message broadcast so senders can match their optimistic entry.
	ClientID string `json:"clientId,omitempty"`
}

type TypingData struct {
	ConversationID uint `json:"conversationId,omitempty"`
	FadeID         uint `json:"fadeId,omitempty"`
	UserID         uint `json:"userId,omitempty"`
	IsTyping       bool `json:"isTyping"`
}

type NewMessageData struct {
	Message  interface{} `json:"message"`
	ClientID string      `json:"clientId,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// NewMessagePayload builds the broadcast body for a freshly persisted
// message. The REST message routes use it too, so both transports fan out
// the same shape.
func NewMessagePayload(message interface{}, clientID string) ([]byte, error) {
	return Encode(EventNewMessage, NewMessageData{Message: message, ClientID: clientID})
}
