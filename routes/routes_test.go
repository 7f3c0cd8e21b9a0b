package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hive-server/models"
	"hive-server/realtime"
	"hive-server/services"
	"hive-server/storage"
	"hive-server/utils"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// buildTestApp wires an in-memory database and the full route tree so
// handlers run exactly as they do in production.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Fade{},
		&models.FadeParticipant{},
		&models.FadeMessage{},
		&models.NotebookEntry{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	storage.DB = db
	storage.InitializeRedis()

	Chat = services.NewChatService(db)
	Notifications = nil
	Gateway = realtime.NewHub(Chat, nil)

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	auth := app.Party("/api/auth")
	{
		auth.Post("/signup", Signup)
		auth.Post("/login", Login)
		auth.Get("/me", accessTokenVerifierMiddleware, Me)
	}

	conversations := app.Party("/api/conversations", accessTokenVerifierMiddleware)
	{
		conversations.Get("/", GetUserConversations)
		conversations.Get("/public", GetPublicConversations)
		conversations.Post("/", CreateConversation)
		conversations.Put("/{id:uint}", UpdateConversation)
		conversations.Delete("/{id:uint}", DeleteConversation)
		conversations.Post("/{id:uint}/join", JoinConversation)
		conversations.Post("/{id:uint}/leave", LeaveConversation)
		conversations.Get("/{id:uint}/messages", GetConversationMessages)
	}

	fades := app.Party("/api/fades", accessTokenVerifierMiddleware)
	{
		fades.Get("/", GetUserFades)
		fades.Get("/public", GetPublicFades)
		fades.Post("/", CreateFade)
		fades.Put("/{id:uint}", UpdateFade)
		fades.Delete("/{id:uint}", DeleteFade)
		fades.Post("/{id:uint}/join", JoinFade)
		fades.Post("/{id:uint}/leave", LeaveFade)
		fades.Get("/{id:uint}/messages", GetFadeMessages)
	}

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware)
	{
		messages.Post("/conversations/{conversationId:uint}", CreateConversationMessage)
		messages.Post("/fades/{fadeId:uint}", CreateFadeMessage)
	}

	notebook := app.Party("/api/notebook", accessTokenVerifierMiddleware)
	{
		notebook.Get("/", ListNotebook)
		notebook.Post("/", AddNotebookEntry)
		notebook.Delete("/{id:uint}", DeleteNotebookEntry)
	}

	user := app.Party("/api/user", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		user.Patch("/avatar", UpdateAvatar)
		user.Patch("/pushtoken", UpdatePushToken)
	}

	if err := app.Build(); err != nil {
		t.Fatalf("failed to build test app: %v", err)
	}
	return app
}

func createTestUser(t *testing.T, email string) models.User {
	t.Helper()
	hashed, err := hashAndSaltPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{Email: email, Password: hashed, Name: "Test User", DisplayName: "Tester"}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func signTestToken(t *testing.T, userID uint) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), time.Hour)
	token, err := signer.Sign(utils.AccessToken{ID: userID})
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return string(token)
}

// doJSON issues a request with an optional bearer token and JSON body, and
// decodes the JSON response into out when out is non-nil.
func doJSON(t *testing.T, app *iris.Application, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if out != nil && resp.Body.Len() > 0 {
		if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
		}
	}
	return resp
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d (%s)", want, resp.Code, resp.Body.String())
	}
}
