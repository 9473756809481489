package models

import "github.com/google/uuid"

// Card is a meme picture a player can put down against a situation.
type Card struct {
	ID         int64  `json:"cardId"`
	PictureURL string `json:"pictureUrl"`
	IsNSFW     bool   `json:"isNsfw"`

	// AuthorID is set for user-submitted cards, nil for the stock deck.
	AuthorID *uuid.UUID `json:"userId,omitempty"`
}
