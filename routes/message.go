package routes

import (
	"errors"

	"hive-server/realtime"
	"hive-server/services"
	"hive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type CreateMessageInput struct {
	Content   string `json:"content" validate:"required"`
	ReplyToID *uint  `json:"replyToId"`
	ClientID  string `json:"clientId" validate:"max=64"`
}

// CreateConversationMessage persists over REST and fans out to gateway
// subscribers of the same room, so both transports land on one path.
func CreateConversationMessage(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("conversationId")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var input CreateMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	message, sendErr := Chat.SendConversationMessage(claims.ID, conversationID, input.Content, input.ReplyToID)
	if sendErr != nil {
		chatError(sendErr, ctx)
		return
	}

	if Gateway != nil {
		if payload, encodeErr := realtime.NewMessagePayload(message, input.ClientID); encodeErr == nil {
			Gateway.Broadcast(realtime.ConversationRoom(conversationID), payload, nil)
		}
	}
	if Notifications != nil {
		go Notifications.NotifyConversationMessage(message)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": message, "clientId": input.ClientID})
}

func CreateFadeMessage(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	fadeID, err := ctx.Params().GetUint("fadeId")
	if err != nil {
		ctx.StopWithStatus(iris.StatusBadRequest)
		return
	}

	var input CreateMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	message, sendErr := Chat.SendFadeMessage(claims.ID, fadeID, input.Content, input.ReplyToID)
	if sendErr != nil {
		chatError(sendErr, ctx)
		return
	}

	if Gateway != nil {
		if payload, encodeErr := realtime.NewMessagePayload(message, input.ClientID); encodeErr == nil {
			Gateway.Broadcast(realtime.FadeRoom(fadeID), payload, nil)
		}
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": message, "clientId": input.ClientID})
}

func chatError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrParentNotFound):
		utils.CreateNotFound(ctx)
	case errors.Is(err, services.ErrNotParticipant):
		utils.CreateForbidden(ctx)
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrContentTooLong),
		errors.Is(err, services.ErrBadReplyTarget):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}
