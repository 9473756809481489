// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

// CreateLobbyHandler creates an in-memory lobby owned by the
// authenticated user and returns its invite code.
func CreateLobbyHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
			return
		}

		lobby := gs.Lobbies.CreateLobby(userID, gs.Cards, gs.Situations, gs.History, gs.Logger)
		gs.Logger.WithField("lobby", lobby.InviteCode).Info("lobby created")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"inviteCode": lobby.InviteCode})
	}
}

// GetLobbyHandler returns the lobby summary for an invite code, or a 404
// body for unknown codes.
func GetLobbyHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("invite")
		lobby, ok := gs.Lobbies.Get(code)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":      "Not Found",
				"message":    "unknown lobby",
				"statusCode": http.StatusNotFound,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lobby.Summary())
	}
}

// LobbyQRHandler serves a PNG QR code of the join URL for an invite code.
func LobbyQRHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("invite")
		if _, ok := gs.Lobbies.Get(code); !ok {
			http.Error(w, "unknown lobby", http.StatusNotFound)
			return
		}

		joinURL := fmt.Sprintf("%s/join/%s", os.Getenv("DOMAIN"), code)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			gs.Logger.WithError(err).Error("failed to encode invite QR")
			http.Error(w, "failed to encode QR", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}
