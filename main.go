package main

import (
	"fmt"
	"log"
	"os"

	"hive-server/realtime"
	"hive-server/routes"
	"hive-server/services"
	"hive-server/storage"
	"hive-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	routes.Chat = services.NewChatService(storage.DB)
	routes.Notifications = services.NewNotificationService()
	routes.Gateway = realtime.NewHub(routes.Chat, routes.Notifications)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "OK"})
	})

	auth := app.Party("/api/auth")
	{
		auth.Post("/signup", routes.Signup)
		auth.Post("/login", routes.Login)
		auth.Get("/me", accessTokenVerifierMiddleware, routes.Me)
	}

	conversations := app.Party("/api/conversations", accessTokenVerifierMiddleware)
	{
		conversations.Get("/", routes.GetUserConversations)
		conversations.Get("/public", routes.GetPublicConversations)
		conversations.Post("/", routes.CreateConversation)
		conversations.Put("/{id:uint}", routes.UpdateConversation)
		conversations.Delete("/{id:uint}", routes.DeleteConversation)
		conversations.Post("/{id:uint}/join", routes.JoinConversation)
		conversations.Post("/{id:uint}/leave", routes.LeaveConversation)
		conversations.Get("/{id:uint}/messages", routes.GetConversationMessages)
	}

	fades := app.Party("/api/fades", accessTokenVerifierMiddleware)
	{
		fades.Get("/", routes.GetUserFades)
		fades.Get("/public", routes.GetPublicFades)
		fades.Post("/", routes.CreateFade)
		fades.Put("/{id:uint}", routes.UpdateFade)
		fades.Delete("/{id:uint}", routes.DeleteFade)
		fades.Post("/{id:uint}/join", routes.JoinFade)
		fades.Post("/{id:uint}/leave", routes.LeaveFade)
		fades.Get("/{id:uint}/messages", routes.GetFadeMessages)
	}

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware)
	{
		messages.Post("/conversations/{conversationId:uint}", routes.CreateConversationMessage)
		messages.Post("/fades/{fadeId:uint}", routes.CreateFadeMessage)
	}

	notebook := app.Party("/api/notebook", accessTokenVerifierMiddleware)
	{
		notebook.Get("/", routes.ListNotebook)
		notebook.Post("/", routes.AddNotebookEntry)
		notebook.Delete("/{id:uint}", routes.DeleteNotebookEntry)
	}

	user := app.Party("/api/user", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		user.Patch("/avatar", routes.UpdateAvatar)
		user.Patch("/pushtoken", routes.UpdatePushToken)
	}

	app.Get("/ws", accessTokenVerifierMiddleware, realtime.ServeWs(routes.Gateway))

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
