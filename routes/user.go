package routes

import (
	"encoding/json"
	"fmt"

	"hive-server/models"
	"hive-server/storage"
	"hive-server/utils"

	"github.com/kataras/iris/v12"
)

type UpdateAvatarInput struct {
	Base64Image string `json:"base64Image" validate:"required"`
}

type UpdatePushTokenInput struct {
	Token              string `json:"token" validate:"required"`
	AllowsNotifications *bool `json:"allowsNotifications"`
}

// UpdateAvatar uploads the image to Cloudinary under a per-user public id
// so re-uploads replace the previous asset.
func UpdateAvatar(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input UpdateAvatarInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	url := storage.UploadBase64Image(input.Base64Image, fmt.Sprintf("avatar-%d", userID))
	if url == "" {
		utils.CreateError(iris.StatusInternalServerError, "Upload Error", "Failed to upload avatar image.", ctx)
		return
	}

	user.AvatarURL = url
	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"user": user})
}

// UpdatePushToken registers a device token for Expo notifications and
// optionally toggles the account-wide opt-in.
func UpdatePushToken(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input UpdatePushTokenInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var tokens []string
	if len(user.PushTokens) > 0 {
		json.Unmarshal(user.PushTokens, &tokens)
	}

	exists := false
	for _, t := range tokens {
		if t == input.Token {
			exists = true
			break
		}
	}
	if !exists {
		tokens = append(tokens, input.Token)
	}

	tokensJSON, _ := json.Marshal(tokens)
	user.PushTokens = tokensJSON
	if input.AllowsNotifications != nil {
		user.AllowsNotifications = input.AllowsNotifications
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"user": user})
}
