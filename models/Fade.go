package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxFadeLifetime bounds how far in the future a fade may expire.
const MaxFadeLifetime = 7 * 24 * time.Hour

// Fade is a time-boxed conversation. It is never reaped; once ExpiresAt
// passes it simply stops matching the discovery filters.
type Fade struct {
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

	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	// ConvertedToConversation is declared in the schema but no route
	// mutates it.
	ConvertedToConversation bool `json:"convertedToConversation"`

	Participants []FadeParticipant `json:"participants" gorm:"foreignKey:FadeID"`
	Messages     []FadeMessage     `json:"-" gorm:"foreignKey:FadeID"`
}

// Expired reports whether the fade's validity window has elapsed.
func (f *Fade) Expired(now time.Time) bool {
	return !f.ExpiresAt.After(now)
}

// ValidFadeWindow checks the creation-time constraint: expiresAt must lie
// in (now, now+MaxFadeLifetime]. It is not re-validated after creation.
func ValidFadeWindow(expiresAt, now time.Time) bool {
	return expiresAt.After(now) && !expiresAt.After(now.Add(MaxFadeLifetime))
}
