package models

import "github.com/google/uuid"

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`

	IsEphemeral bool `json:"is_ephemeral"`
}

// DiscordConnection links a Discord account to a local user row.
type DiscordConnection struct {
	DiscordID string    `json:"discordId"`
	UserID    uuid.UUID `json:"userId"`
}
