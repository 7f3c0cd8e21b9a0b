package routes

import (
	"hive-server/models"
	"hive-server/storage"
	"hive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type AddNotebookEntryInput struct {
	MessageID uint   `json:"messageId" validate:"required"`
	Title     string `json:"title" validate:"max=200"`
}

// ListNotebook returns the caller's saved messages, newest first.
func ListNotebook(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var entries []models.NotebookEntry
	if err := storage.DB.
		Where("user_id = ?", claims.ID).
		Preload("Message.Sender").
		Order("id DESC").
		Find(&entries).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"entries": entries})
}

func AddNotebookEntry(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input AddNotebookEntryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var message models.Message
	if err := storage.DB.First(&message, input.MessageID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var existing models.NotebookEntry
	if err := storage.DB.Where("user_id = ? AND message_id = ?", claims.ID, input.MessageID).First(&existing).Error; err == nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "Message is already saved to your notebook.", ctx)
		return
	}

	entry := models.NotebookEntry{
		UserID:    claims.ID,
		MessageID: input.MessageID,
		Title:     input.Title,
	}
	if err := storage.DB.Create(&entry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("Message.Sender").First(&entry, entry.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"entry": entry})
}

// DeleteNotebookEntry removes one of the caller's own entries. Entries are
// owner-scoped, so someone else's entry id just 404s.
func DeleteNotebookEntry(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	entryID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var entry models.NotebookEntry
	if err := storage.DB.Where("id = ? AND user_id = ?", entryID, claims.ID).First(&entry).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := storage.DB.Delete(&entry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}
