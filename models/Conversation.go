package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityPrivate  Visibility = "PRIVATE"
	VisibilityUnlisted Visibility = "UNLISTED"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

type Conversation struct {
	gorm.Model
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description"`
	Topics        datatypes.JSON `json:"topics"`
	Visibility    Visibility     `json:"visibility" gorm:"type:varchar(16);default:PUBLIC;index"`
	DefaultMuted  bool           `json:"defaultMuted"`
	IsActive      bool           `json:"isActive" gorm:"default:true;index"`
	CreatorID     uint           `json:"creatorID" gorm:"not null;index"`
	Creator       User           `json:"creator" gorm:"foreignKey:CreatorID"`
	LastMessageID *uint          `json:"lastMessageID"`

	Participants []ConversationParticipant `json:"participants" gorm:"foreignKey:ConversationID"`
	Messages     []Message                 `json:"-" gorm:"foreignKey:ConversationID"`
}
