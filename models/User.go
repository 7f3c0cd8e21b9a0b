package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email               string         `json:"email" gorm:"uniqueIndex;not null"`
	Password            string         `json:"-"`
	Name                string         `json:"name"`
	DisplayName         string         `json:"displayName"`
	AvatarURL           string         `json:"avatarURL"`
	PushTokens          datatypes.JSON `json:"pushTokens"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
}
