// internal/handlers/discord.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/n1kozver/memelords/internal/auth"
	"github.com/n1kozver/memelords/internal/database"
)

// DiscordAuthHandler exchanges a Discord OAuth authorization code for a
// local session: the Discord profile is fetched, the user row is
// upserted, and a session token is issued.
func DiscordAuthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		http.Error(w, "missing oauth code", http.StatusBadRequest)
		return
	}

	accessToken, err := auth.ExchangeDiscordCode(r.Context(), body.Code)
	if err != nil {
		if errors.Is(err, auth.ErrBadOAuthCode) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":      "Bad Request",
				"message":    `invalid "code" was provided`,
				"statusCode": http.StatusBadRequest,
			})
			return
		}
		http.Error(w, "discord exchange failed", http.StatusBadGateway)
		return
	}

	profile, err := auth.FetchDiscordProfile(r.Context(), accessToken)
	if err != nil {
		http.Error(w, "failed to fetch discord profile", http.StatusBadGateway)
		return
	}

	user, err := database.UpsertDiscordUser(r.Context(), profile)
	if err != nil {
		http.Error(w, "failed to persist user", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	setAuthCookie(w, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"accessToken": token})
}
