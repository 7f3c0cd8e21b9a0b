package models

import "gorm.io/gorm"

type FadeMessage struct {
	gorm.Model
	FadeID     uint   `json:"fadeID" gorm:"not null;index"`
	SenderID   uint   `json:"senderID" gorm:"not null;index"`
	Content    string `json:"content" gorm:"type:text;not null"`
	ReplyToID  *uint  `json:"replyToID" gorm:"index"`
	Pinned     bool   `json:"pinned"`
	PinnedByID *uint  `json:"pinnedByID"`

	Sender  User         `json:"sender" gorm:"foreignKey:SenderID"`
	ReplyTo *FadeMessage `json:"replyTo,omitempty" gorm:"foreignKey:ReplyToID"`
}
