// internal/handlers/user.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/n1kozver/memelords/internal/auth"
	"github.com/n1kozver/memelords/internal/database"
	"github.com/n1kozver/memelords/internal/models"
)

// CreateUserHandler registers an email/password account.
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}
	if user.Email == "" || user.Password == "" || user.Name == "" {
		http.Error(w, "email, password and name are required", http.StatusBadRequest)
		return
	}

	if err := database.CreateUser(r.Context(), &user); err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// LoginHandler verifies credentials and sets the auth_token cookie.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}

	token, err := database.AuthenticateUser(r.Context(), creds.Email, creds.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	setAuthCookie(w, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// EnsureEphemeralUser resolves the request to a user id, creating a guest
// user (and setting its cookie) when no valid token is present. Must be
// called before any WebSocket upgrade so the cookie header can be written.
func EnsureEphemeralUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, "auth_token=") {
		token := extractCookieToken(cookieHeader, "auth_token")
		userIDStr, err := auth.AuthenticateJWT(token)
		if err == nil {
			return uuid.Parse(userIDStr)
		}
		// Fall through to a fresh guest on a bad token.
	}

	guest := models.User{
		Name:        "Guest",
		IsEphemeral: true,
	}
	if err := database.CreateUser(context.Background(), &guest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ephemeral user: %w", err)
	}
	token, err := auth.CreateJWT(guest.ID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ephemeral JWT: %w", err)
	}
	setAuthCookie(w, token)
	return guest.ID, nil
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
}

// extractCookieToken extracts a named cookie value from a Cookie header,
// or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// authenticateRequest returns the user id for a request carrying a valid
// auth_token cookie.
func authenticateRequest(r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if !strings.Contains(cookieHeader, "auth_token=") {
		return uuid.Nil, fmt.Errorf("missing auth_token")
	}
	token := extractCookieToken(cookieHeader, "auth_token")
	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	return uuid.Parse(userIDStr)
}
