package models

import "time"

type FadeParticipant struct {
	ID       uint            `json:"id" gorm:"primaryKey"`
	FadeID   uint            `json:"fadeID" gorm:"not null;uniqueIndex:idx_fade_user"`
	UserID   uint            `json:"userID" gorm:"not null;uniqueIndex:idx_fade_user"`
	Role     ParticipantRole `json:"role" gorm:"type:varchar(16);default:CONVERSER"`
	Muted    bool            `json:"muted"`
	JoinedAt time.Time       `json:"joinedAt"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}
