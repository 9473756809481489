package models

import "github.com/google/uuid"

// Situation is a round prompt ("joke") players answer with a card.
type Situation struct {
	ID       int64  `json:"situationId"`
	Joke     string `json:"joke"`
	Language string `json:"language"`
	IsNSFW   bool   `json:"isNsfw"`

	AuthorID *uuid.UUID `json:"userId,omitempty"`
}
