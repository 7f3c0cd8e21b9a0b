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

type CreateFadeInput struct {
	Name           string    `json:"name" validate:"required,max=100"`
	Description    string    `json:"description" validate:"max=500"`
	Topics         []string  `json:"topics" validate:"max=10,dive,max=40"`
	Visibility     string    `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
	DefaultMuted   bool      `json:"defaultMuted"`
	ExpiresAt      time.Time `json:"expiresAt" validate:"required"`
	ParticipantIDs []uint    `json:"participantIds"`
}

type UpdateFadeInput struct {
	Name        string   `json:"name" validate:"max=100"`
	Description string   `json:"description" validate:"max=500"`
	Topics      []string `json:"topics" validate:"max=10,dive,max=40"`
	Visibility  string   `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE UNLISTED"`
}

type fadeSummary struct {
	models.Fade
	LastMessage      *models.FadeMessage `json:"lastMessage"`
	ParticipantCount int                 `json:"participantCount"`
	MessageCount     int64               `json:"messageCount"`
}

// GetUserFades lists the caller's fades that are active and not yet past
// their deadline. Expiry is enforced here at read time; no background job
// ever flips a flag.
func GetUserFades(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var fades []models.Fade
	if err := storage.DB.
		Joins("JOIN fade_participants fp ON fp.fade_id = fades.id").
		Where("fp.user_id = ? AND fades.is_active = ? AND fades.expires_at > ?", claims.ID, true, time.Now()).
		Preload("Creator").
		Preload("Participants.User").
		Order("fades.expires_at ASC").
		Find(&fades).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"fades": summarizeFades(fades)})
}

func GetPublicFades(ctx iris.Context) {
	var fades []models.Fade
	if err := storage.DB.
		Where("visibility = ? AND is_active = ? AND expires_at > ?", models.VisibilityPublic, true, time.Now()).
		Preload("Creator").
		Preload("Participants.User").
		Order("expires_at ASC").
		Find(&fades).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"fades": summarizeFades(fades)})
}

func CreateFade(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateFadeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !models.ValidFadeWindow(input.ExpiresAt, time.Now()) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error",
			"expiresAt must be in the future and at most 7 days away.", ctx)
		return
	}

	visibility := models.Visibility(input.Visibility)
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	topicsJSON, _ := json.Marshal(input.Topics)

	fade := models.Fade{
		Name:         input.Name,
		Description:  input.Description,
		Topics:       topicsJSON,
		Visibility:   visibility,
		DefaultMuted: input.DefaultMuted,
		IsActive:     true,
		CreatorID:    claims.ID,
		ExpiresAt:    input.ExpiresAt,
	}

	if err := storage.DB.Create(&fade).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	host := models.FadeParticipant{
		FadeID:   fade.ID,
		UserID:   claims.ID,
		Role:     models.RoleHost,
		Muted:    fade.DefaultMuted,
		JoinedAt: time.Now(),
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
		participant := models.FadeParticipant{
			FadeID:   fade.ID,
			UserID:   userID,
			Role:     models.RoleConverser,
			Muted:    fade.DefaultMuted,
			JoinedAt: time.Now(),
		}
		storage.DB.Create(&participant)
		added = append(added, userID)
	}

	storage.DB.Preload("Creator").Preload("Participants.User").First(&fade, fade.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"fade": fade})
}

// UpdateFade mutates the descriptive fields only. The deadline is fixed at
// creation and cannot be extended or shortened.
func UpdateFade(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var input UpdateFadeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var fade models.Fade
	if err := storage.DB.Where("id = ? AND is_active = ? AND expires_at > ?", fadeID, true, time.Now()).First(&fade).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if fade.CreatorID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	before := fade

	if input.Name != "" {
		fade.Name = input.Name
	}
	if input.Description != "" {
		fade.Description = input.Description
	}
	if input.Topics != nil {
		topicsJSON, _ := json.Marshal(input.Topics)
		fade.Topics = topicsJSON
	}
	if input.Visibility != "" {
		fade.Visibility = models.Visibility(input.Visibility)
	}

	if err := storage.DB.Save(&fade).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "fade.update", "fade", fade.ID, before, fade)
	ctx.JSON(iris.Map{"fade": fade})
}

func DeleteFade(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var fade models.Fade
	if err := storage.DB.Where("id = ? AND is_active = ?", fadeID, true).First(&fade).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if fade.CreatorID != claims.ID {
		utils.CreateForbidden(ctx)
		return
	}

	before := fade
	if err := storage.DB.Model(&fade).Update("is_active", false).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "fade.delete", "fade", fade.ID, before, nil)
	ctx.JSON(iris.Map{"success": true})
}

func JoinFade(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var fade models.Fade
	if err := storage.DB.Where("id = ? AND is_active = ? AND expires_at > ?", fadeID, true, time.Now()).First(&fade).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var existing models.FadeParticipant
	if err := storage.DB.Where("fade_id = ? AND user_id = ?", fadeID, claims.ID).First(&existing).Error; err == nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "Already a participant of this fade.", ctx)
		return
	}

	participant := models.FadeParticipant{
		FadeID:   fadeID,
		UserID:   claims.ID,
		Role:     models.RoleConverser,
		Muted:    fade.DefaultMuted,
		JoinedAt: time.Now(),
	}
	if err := storage.DB.Create(&participant).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"participant": participant})
}

func LeaveFade(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var participant models.FadeParticipant
	if err := storage.DB.Where("fade_id = ? AND user_id = ?", fadeID, claims.ID).First(&participant).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := storage.DB.Delete(&participant).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// GetFadeMessages pages history for participants. An expired fade is still
// readable as long as it has not been deleted, so there is no deadline
// filter here.
func GetFadeMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var fade models.Fade
	if err := storage.DB.Where("id = ? AND is_active = ?", fadeID, true).First(&fade).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var count int64
	storage.DB.Model(&models.FadeParticipant{}).Where("fade_id = ? AND user_id = ?", fadeID, claims.ID).Count(&count)
	if count == 0 {
		utils.CreateForbidden(ctx)
		return
	}

	limit := ctx.URLParamIntDefault("limit", 50)
	offset := ctx.URLParamIntDefault("offset", 0)

	messages, total, err := Chat.FadeMessages(fadeID, limit, offset)
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

func summarizeFades(fades []models.Fade) []fadeSummary {
	out := make([]fadeSummary, 0, len(fades))
	for i := range fades {
		f := fades[i]
		summary := fadeSummary{
			Fade:             f,
			ParticipantCount: len(f.Participants),
		}
		storage.DB.Model(&models.FadeMessage{}).Where("fade_id = ?", f.ID).Count(&summary.MessageCount)
		if f.LastMessageID != nil {
			var last models.FadeMessage
			if err := storage.DB.Preload("Sender").First(&last, *f.LastMessageID).Error; err == nil {
				summary.LastMessage = &last
			}
		}
		out = append(out, summary)
	}
	return out
}
