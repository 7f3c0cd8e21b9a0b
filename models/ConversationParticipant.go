package models

import "time"

type ParticipantRole string

const (
	RoleHost      ParticipantRole = "HOST"
	RoleConverser ParticipantRole = "CONVERSER"
	RoleSpectator ParticipantRole = "SPECTATOR"
)

func (r ParticipantRole) IsValid() bool {
	switch r {
	case RoleHost, RoleConverser, RoleSpectator:
		return true
	}
	return false
}

// ConversationParticipant grants a user membership and a role in a
// conversation. The (conversation, user) pair is unique.
type ConversationParticipant struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	ConversationID uint            `json:"conversationID" gorm:"not null;uniqueIndex:idx_conversation_user"`
	UserID         uint            `json:"userID" gorm:"not null;uniqueIndex:idx_conversation_user"`
	Role           ParticipantRole `json:"role" gorm:"type:varchar(16);default:CONVERSER"`
	Muted          bool            `json:"muted"`
	JoinedAt       time.Time       `json:"joinedAt"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}
