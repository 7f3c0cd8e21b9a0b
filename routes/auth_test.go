package routes

import (
	"net/http"
	"strings"
	"testing"
)

func TestSignupReturnsTokensAndHidesPassword(t *testing.T) {
	app := buildTestApp(t)

	var out struct {
		User struct {
			ID    uint   `json:"ID"`
			Email string `json:"email"`
		} `json:"user"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "password123",
		"name":     "Alice",
	}, &out)
	expectStatus(t, resp, http.StatusCreated)

	if out.User.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", out.User.Email)
	}
	if out.Token == "" || out.RefreshToken == "" {
		t.Error("expected a token pair in the signup response")
	}
	if strings.Contains(resp.Body.String(), "password123") || strings.Contains(resp.Body.String(), `"password"`) {
		t.Error("password leaked into the signup response")
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	app := buildTestApp(t)

	body := map[string]string{"email": "dup@example.com", "password": "password123", "name": "Dup"}
	expectStatus(t, doJSON(t, app, http.MethodPost, "/api/auth/signup", "", body, nil), http.StatusCreated)
	expectStatus(t, doJSON(t, app, http.MethodPost, "/api/auth/signup", "", body, nil), http.StatusConflict)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := buildTestApp(t)
	createTestUser(t, "bob@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "bob@example.com", "password": "wrongpassword",
	}, nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	// An unknown account yields the same status and message shape.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	}, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestLoginAndMe(t *testing.T) {
	app := buildTestApp(t)
	user := createTestUser(t, "carol@example.com")

	var login struct {
		Token string `json:"token"`
	}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "password123",
	}, &login)
	expectStatus(t, resp, http.StatusOK)

	var me struct {
		User struct {
			ID uint `json:"ID"`
		} `json:"user"`
	}
	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", login.Token, nil, &me)
	expectStatus(t, resp, http.StatusOK)
	if me.User.ID != user.ID {
		t.Errorf("expected user %d from /me, got %d", user.ID, me.User.ID)
	}
}

func TestMeRequiresToken(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil, nil)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}
}
