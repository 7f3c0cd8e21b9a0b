package routes

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"hive-server/models"
)

func TestCreateMessageEchoesClientID(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "sender@example.com")
	token := signTestToken(t, user.ID)
	id := createConversationVia(t, app, token, "Echo Chamber")

	var out struct {
		Message struct {
			ID      uint   `json:"ID"`
			Content string `json:"content"`
		} `json:"message"`
		ClientID string `json:"clientId"`
	}
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", id), token, map[string]string{
		"content":  "  hello  ",
		"clientId": "c-123",
	}, &out)
	expectStatus(t, resp, http.StatusCreated)

	if out.ClientID != "c-123" {
		t.Errorf("expected clientId echoed back, got %q", out.ClientID)
	}
	if out.Message.Content != "hello" {
		t.Errorf("expected trimmed content, got %q", out.Message.Content)
	}
	if out.Message.ID == 0 {
		t.Error("expected a persisted message id")
	}
}

func TestCreateMessageValidatesContent(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "validator@example.com")
	token := signTestToken(t, user.ID)
	id := createConversationVia(t, app, token, "Strict Room")
	path := fmt.Sprintf("/api/messages/conversations/%d", id)

	// Whitespace-only content.
	resp := doJSON(t, app, http.MethodPost, path, token, map[string]string{"content": "   "}, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	// One character over the limit.
	resp = doJSON(t, app, http.MethodPost, path, token, map[string]string{
		"content": strings.Repeat("a", models.MaxMessageLength+1),
	}, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	// Exactly at the limit is fine.
	resp = doJSON(t, app, http.MethodPost, path, token, map[string]string{
		"content": strings.Repeat("a", models.MaxMessageLength),
	}, nil)
	expectStatus(t, resp, http.StatusCreated)
}

func TestCreateMessageRequiresMembership(t *testing.T) {
	app := buildTestApp(t)
	host := createTestUser(t, "roomhost@example.com")
	outsider := createTestUser(t, "stranger@example.com")
	hostToken := signTestToken(t, host.ID)
	outsiderToken := signTestToken(t, outsider.ID)

	id := createConversationVia(t, app, hostToken, "Private Room")
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", id), outsiderToken, map[string]string{
		"content": "let me in",
	}, nil)
	expectStatus(t, resp, http.StatusForbidden)
}

func TestCreateMessageRejectsCrossRoomReply(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "replier@example.com")
	token := signTestToken(t, user.ID)

	roomA := createConversationVia(t, app, token, "Room A")
	roomB := createConversationVia(t, app, token, "Room B")

	var first struct {
		Message struct {
			ID uint `json:"ID"`
		} `json:"message"`
	}
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", roomA), token, map[string]string{
		"content": "original",
	}, &first)
	expectStatus(t, resp, http.StatusCreated)

	// Replying from another conversation to that message must fail.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", roomB), token, map[string]interface{}{
		"content":   "sneaky reply",
		"replyToId": first.Message.ID,
	}, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	// Replying within the same conversation works.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", roomA), token, map[string]interface{}{
		"content":   "proper reply",
		"replyToId": first.Message.ID,
	}, nil)
	expectStatus(t, resp, http.StatusCreated)
}

func TestMessagesToMissingConversation(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "ghost@example.com")
	token := signTestToken(t, user.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/messages/conversations/9999", token, map[string]string{
		"content": "anyone home?",
	}, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestMessageHistoryPagesChronologically(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "pager@example.com")
	token := signTestToken(t, user.ID)
	id := createConversationVia(t, app, token, "Busy Room")

	for i := 0; i < 5; i++ {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/messages/conversations/%d", id), token, map[string]string{
			"content": fmt.Sprintf("message %d", i),
		}, nil)
		expectStatus(t, resp, http.StatusCreated)
	}

	var page struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/conversations/%d/messages?limit=3", id), token, nil, &page)
	expectStatus(t, resp, http.StatusOK)

	if page.Meta.Total != 5 {
		t.Errorf("expected total 5, got %d", page.Meta.Total)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(page.Messages))
	}
	// Newest page, oldest first within it.
	if page.Messages[0].Content != "message 2" || page.Messages[2].Content != "message 4" {
		t.Errorf("unexpected page order: %+v", page.Messages)
	}
}
