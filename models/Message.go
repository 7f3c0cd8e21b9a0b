package models

import "gorm.io/gorm"

// MaxMessageLength caps message content after trimming.
const MaxMessageLength = 2000

// Message is immutable once created except for its pin state.
type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"not null;index"`
	SenderID       uint   `json:"senderID" gorm:"not null;index"`
	Content        string `json:"content" gorm:"type:text;not null"`
	ReplyToID      *uint  `json:"replyToID" gorm:"index"`
	Pinned         bool   `json:"pinned"`
	PinnedByID     *uint  `json:"pinnedByID"`

	Sender  User     `json:"sender" gorm:"foreignKey:SenderID"`
	ReplyTo *Message `json:"replyTo,omitempty" gorm:"foreignKey:ReplyToID"`
}
