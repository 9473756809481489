// internal/auth/discord.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const discordAPI = "https://discord.com/api/v10"

// ErrBadOAuthCode is returned when Discord rejects the authorization code.
var ErrBadOAuthCode = fmt.Errorf("invalid oauth code")

// DiscordProfile is the subset of the Discord /users/@me response we keep.
type DiscordProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email"`
}

// AvatarURL builds the CDN URL for the profile's avatar, empty when the
// account has none.
func (p *DiscordProfile) AvatarURL() string {
	if p.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.ID, p.Avatar)
}

var discordHTTP = &http.Client{Timeout: 10 * time.Second}

// ExchangeDiscordCode trades an OAuth authorization code for an access
// token using the client credentials from the environment.
func ExchangeDiscordCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {os.Getenv("DISCORD_CLIENT_ID")},
		"client_secret": {os.Getenv("DISCORD_CLIENT_SECRET")},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {os.Getenv("DOMAIN") + "/auth/discord"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, discordAPI+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := discordHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("discord token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", ErrBadOAuthCode
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("discord token exchange returned %d: %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	return token.AccessToken, nil
}

// FetchDiscordProfile loads the authenticated user's Discord profile.
func FetchDiscordProfile(ctx context.Context, accessToken string) (*DiscordProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordAPI+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := discordHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord profile fetch returned %d", resp.StatusCode)
	}

	var profile DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return &profile, nil
}
