package models

import "gorm.io/gorm"

// NotebookEntry bookmarks a conversation message for one user.
type NotebookEntry struct {
	gorm.Model
	UserID    uint   `json:"userID" gorm:"not null;uniqueIndex:idx_notebook_user_message"`
	MessageID uint   `json:"messageID" gorm:"not null;uniqueIndex:idx_notebook_user_message"`
	Title     string `json:"title" gorm:"size:200"`

	Message Message `json:"message" gorm:"foreignKey:MessageID"`
}
