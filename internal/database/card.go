package database

import (
	"context"
	"fmt"

	"github.com/n1kozver/memelords/internal/models"
)

// CardStore serves random card draws from the cards table. It implements
// game.CardSupply: no card in the exclusion set is ever returned, and a
// single call never repeats a card.
type CardStore struct{}

func (CardStore) DrawCards(ctx context.Context, count int, exclude []int64, nsfw bool) ([]models.Card, error) {
	if exclude == nil {
		exclude = []int64{}
	}
	q := `
	SELECT card_id, picture_url, is_nsfw, user_id
	FROM cards
	WHERE card_id != ALL($1) AND ($2 OR NOT is_nsfw)
	ORDER BY random()
	LIMIT $3
	`
	rows, err := DB.Query(ctx, q, exclude, nsfw, count)
	if err != nil {
		return nil, fmt.Errorf("failed to draw cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.PictureURL, &c.IsNSFW, &c.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
