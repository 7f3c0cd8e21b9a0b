package services

import (
	"errors"
	"strings"

	"hive-server/models"

	"gorm.io/gorm"
)

var (
	ErrParentNotFound = errors.New("conversation not found")
	ErrNotParticipant = errors.New("sender is not a participant")
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content exceeds the 2000 character limit")
	ErrBadReplyTarget = errors.New("reply target belongs to a different conversation")
)

// ChatService persists messages for conversations and fades. Both the REST
// routes and the realtime gateway send through it, so a message created on
// either transport gets the same checks and the same hydrated shape.
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if len(content) > models.MaxMessageLength {
		return "", ErrContentTooLong
	}
	return content, nil
}

// SendConversationMessage persists a message and returns it hydrated with
// the sender's public profile.
func (s *ChatService) SendConversationMessage(senderID, conversationID uint, content string, replyToID *uint) (*models.Message, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	var conversation models.Conversation
	if err := s.db.Where("id = ? AND is_active = ?", conversationID, true).First(&conversation).Error; err != nil {
		return nil, ErrParentNotFound
	}

	var participant models.ConversationParticipant
	if err := s.db.Where("conversation_id = ? AND user_id = ?", conversationID, senderID).First(&participant).Error; err != nil {
		return nil, ErrNotParticipant
	}

	if replyToID != nil {
		var target models.Message
		if err := s.db.First(&target, *replyToID).Error; err != nil || target.ConversationID != conversationID {
			return nil, ErrBadReplyTarget
		}
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ReplyToID:      replyToID,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	s.db.Model(&conversation).Update("last_message_id", message.ID)
	s.db.Preload("Sender").First(&message, message.ID)

	return &message, nil
}

// SendFadeMessage persists a fade message. An expired fade still accepts
// messages from clients that already have it open; expiry only gates
// discovery and joining.
func (s *ChatService) SendFadeMessage(senderID, fadeID uint, content string, replyToID *uint) (*models.FadeMessage, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	var fade models.Fade
	if err := s.db.Where("id = ? AND is_active = ?", fadeID, true).First(&fade).Error; err != nil {
		return nil, ErrParentNotFound
	}

	var participant models.FadeParticipant
	if err := s.db.Where("fade_id = ? AND user_id = ?", fadeID, senderID).First(&participant).Error; err != nil {
		return nil, ErrNotParticipant
	}

	if replyToID != nil {
		var target models.FadeMessage
		if err := s.db.First(&target, *replyToID).Error; err != nil || target.FadeID != fadeID {
			return nil, ErrBadReplyTarget
		}
	}

	message := models.FadeMessage{
		FadeID:    fadeID,
		SenderID:  senderID,
		Content:   content,
		ReplyToID: replyToID,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	s.db.Model(&fade).Update("last_message_id", message.ID)
	s.db.Preload("Sender").First(&message, message.ID)

	return &message, nil
}

// ConversationMessages returns a page of history in chronological order.
func (s *ChatService) ConversationMessages(conversationID uint, limit, offset int) ([]models.Message, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var total int64
	s.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&total)

	var msgs []models.Message
	if err := s.db.Where("conversation_id = ?", conversationID).
		Preload("Sender").
		Order("id DESC").Limit(limit).Offset(offset).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	reverseMessages(msgs)
	return msgs, total, nil
}

// FadeMessages mirrors ConversationMessages for fades. It deliberately does
// not filter on expiry: an open fade stays readable after it lapses.
func (s *ChatService) FadeMessages(fadeID uint, limit, offset int) ([]models.FadeMessage, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var total int64
	s.db.Model(&models.FadeMessage{}).Where("fade_id = ?", fadeID).Count(&total)

	var msgs []models.FadeMessage
	if err := s.db.Where("fade_id = ?", fadeID).
		Preload("Sender").
		Order("id DESC").Limit(limit).Offset(offset).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	reverseFadeMessages(msgs)
	return msgs, total, nil
}

// IsConversationParticipant reports whether the user holds a participant row.
func (s *ChatService) IsConversationParticipant(conversationID, userID uint) bool {
	var count int64
	s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count)
	return count > 0
}

func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

func reverseFadeMessages(msgs []models.FadeMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
