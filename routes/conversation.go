package routes

import (
	"encoding/json"
	"time"

	"hive-server/models"
	"hive-server/storage"
	"hive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

type CreateConversationInput struct {
	Name           string   `json:"name" validate:"required,max=100"`
	Description    string   `json:"description" validate:"max=500"`
	Topics         []string `json:"topics" validate:"max=10,dive,max=40"`
	Visibility     string   `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
	DefaultMuted   bool     `json:"defaultMuted"`
	ParticipantIDs []uint   `json:"participantIds"`
}

type UpdateConversationInput struct {
	Name        string   `json:"name" validate:"max=100"`
	Description string   `json:"description" validate:"max=500"`
	Topics      []string `json:"topics" validate:"max=10,dive,max=40"`
	Visibility  string   `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
}

type conversationSummary struct {
	models.Conversation
	LastMessage      *models.Message `json:"lastMessage"`
	ParticipantCount int             `json:"participantCount"`
	MessageCount     int64           `json:"messageCount"`
}

// GetUserConversations lists the caller's active conversations with
// creator, participants, counts and the most recent message.
func GetUserConversations(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var conversations []models.Conversation
	if err := storage.DB.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ? AND conversations.is_active = ?", claims.ID, true).
		Preload("Creator").
		Preload("Participants.User").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"conversations": summarizeConversations(conversations)})
}

// GetPublicConversations lists active PUBLIC conversations for discovery.
func GetPublicConversations(ctx iris.Context) {
	var conversations []models.Conversation
	if err := storage.DB.
		Where("visibility = ? AND is_active = ?", models.VisibilityPublic, true).
		Preload("Creator").
		Preload("Participants.User").
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"conversations": summarizeConversations(conversations)})
}

func CreateConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateConversationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	visibility := models.Visibility(input.Visibility)
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	topicsJSON, _ := json.Marshal(input.Topics)

	conversation := models.Conversation{
		Name:         input.Name,
		Description:  input.Description,
		Topics:       topicsJSON,
		Visibility:   visibility,
		DefaultMuted: input.DefaultMuted,
		IsActive:     true,
		CreatorID:    claims.ID,
	}

	if err := storage.DB.Create(&conversation).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	host := models.ConversationParticipant{
		ConversationID: conversation.ID,
		UserID:         claims.ID,
		Role:           models.RoleHost,
		Muted:          conversation.DefaultMuted,
		JoinedAt:       time.Now(),
	}
	if err := storage.DB.Create(&host).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	added := []uint{claims.ID}
	for _, userID := range input.ParticipantIDs {
		if slices.Contains(added, userID) {
			continue
		}
		var count int64
		storage.DB.Model(&models.User{}).Where("id = ?", userID).Count(&count)
		if count == 0 {
			continue
		}
		participant := models.ConversationParticipant{
			ConversationID: conversation.ID,
			UserID:         userID,
			Role:           models.RoleConverser,
			Muted:          conversation.DefaultMuted,
			JoinedAt:       time.Now(),
		}
		storage.DB.Create(&participant)
		added = append(added, userID)
	}

	storage.DB.Preload("Creator").Preload("Participants.User").First(&conversation, conversation.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"conversation": conversation})
}

// UpdateConversation mutates name/description/topics/visibility. Creator only.
func UpdateConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var input UpdateConversationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var conversation models.Conversation
	if err := storage.DB.Where("id = ? AND is_active = ?", conversationID, true).First(&conversation).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if conversation.CreatorID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	before := conversation

	if input.Name != "" {
		conversation.Name = input.Name
	}
	if input.Description != "" {
		conversation.Description = input.Description
	}
	if input.Topics != nil {
		topicsJSON, _ := json.Marshal(input.Topics)
		conversation.Topics = topicsJSON
	}
	if input.Visibility != "" {
		conversation.Visibility = models.Visibility(input.Visibility)
	}

	if err := storage.DB.Save(&conversation).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "conversation.update", "conversation", conversation.ID, before, conversation)
	ctx.JSON(iris.Map{"conversation": conversation})
}

// DeleteConversation soft-deletes by flipping IsActive. The row is never
// physically removed.
func DeleteConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var conversation models.Conversation
	if err := storage.DB.Where("id = ? AND is_active = ?", conversationID, true).First(&conversation).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if conversation.CreatorID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	before := conversation
	if err := storage.DB.Model(&conversation).Update("is_active", false).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "conversation.delete", "conversation", conversation.ID, before, nil)
	ctx.JSON(iris.Map{"success": true})
}

func JoinConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var conversation models.Conversation
	if err := storage.DB.Where("id = ? AND is_active = ?", conversationID, true).First(&conversation).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var existing models.ConversationParticipant
	if err := storage.DB.Where("conversation_id = ? AND user_id = ?", conversationID, claims.ID).First(&existing).Error; err == nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "Already a participant of this conversation.", ctx)
		return
	}

	participant := models.ConversationParticipant{
		ConversationID: conversationID,
		UserID:         claims.ID,
		Role:           models.RoleConverser,
		Muted:          conversation.DefaultMuted,
		JoinedAt:       time.Now(),
	}
	if err := storage.DB.Create(&participant).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"participant": participant})
}

// LeaveConversation removes the caller's participant row. A second call
// for the same pair finds no row and returns 404. There is no role check:
// a HOST may leave their own conversation.
func LeaveConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var participant models.ConversationParticipant
	if err := storage.DB.Where("conversation_id = ? AND user_id = ?", conversationID, claims.ID).First(&participant).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := storage.DB.Delete(&participant).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// GetConversationMessages pages history for participants.
func GetConversationMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var conversation models.Conversation
	if err := storage.DB.Where("id = ? AND is_active = ?", conversationID, true).First(&conversation).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if !Chat.IsConversationParticipant(conversationID, claims.ID) {
		utils.CreateForbidden(ctx)
		return
	}

	limit := ctx.URLParamIntDefault("limit", 50)
	offset := ctx.URLParamIntDefault("offset", 0)

	messages, total, err := Chat.ConversationMessages(conversationID, limit, offset)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	utils.JSONPage(ctx, "messages", messages, page, limit, total)
}

func summarizeConversations(conversations []models.Conversation) []conversationSummary {
	out := make([]conversationSummary, 0, len(conversations))
	for i := range conversations {
		c := conversations[i]
		summary := conversationSummary{
			Conversation:     c,
			ParticipantCount: len(c.Participants),
		}
		storage.DB.Model(&models.Message{}).Where("conversation_id = ?", c.ID).Count(&summary.MessageCount)
		if c.LastMessageID != nil {
			var last models.Message
			if err := storage.DB.Preload("Sender").First(&last, *c.LastMessageID).Error; err == nil {
				summary.LastMessage = &last
			}
		}
		out = append(out, summary)
	}
	return out
}
