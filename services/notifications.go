package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"unicode/utf8"

	"hive-server/models"
	"hive-server/storage"
	"hive-server/utils"
)

// NotificationService pushes new-message alerts to participants who have
// not muted the conversation.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

// SendNotificationToUser fans a push message out to all of a user's tokens.
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data map[string]string) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		return err
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, data); err != nil {
			log.Printf("Failed to send push to token of user %d: %v", userID, err)
			lastError = err
		}
	}
	return lastError
}

// NotifyConversationMessage alerts every unmuted participant except the
// sender. Failures are logged only; message delivery never depends on push.
func (ns *NotificationService) NotifyConversationMessage(message *models.Message) {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, message.ConversationID).Error; err != nil {
		log.Printf("Notification skipped, conversation %d not found: %v", message.ConversationID, err)
		return
	}

	var participants []models.ConversationParticipant
	if err := storage.DB.
		Where("conversation_id = ? AND muted = ? AND user_id <> ?", message.ConversationID, false, message.SenderID).
		Find(&participants).Error; err != nil {
		log.Printf("Notification skipped, participant lookup failed: %v", err)
		return
	}

	senderName := message.Sender.DisplayName
	if senderName == "" {
		senderName = message.Sender.Name
	}

	title := conversation.Name
	body := fmt.Sprintf("%s: %s", senderName, truncate(message.Content, 120))
	data := map[string]string{
		"type":           "new-message",
		"conversationId": strconv.FormatUint(uint64(message.ConversationID), 10),
		"messageId":      strconv.FormatUint(uint64(message.ID), 10),
	}

	for _, p := range participants {
		if err := ns.SendNotificationToUser(p.UserID, title, body, data); err != nil {
			log.Printf("Push to user %d failed: %v", p.UserID, err)
		}
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
