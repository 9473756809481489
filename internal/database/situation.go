package database

import (
	"context"
	"fmt"

	"github.com/n1kozver/memelords/internal/models"
)

// SituationStore serves random round prompts filtered by language and the
// lobby's NSFW flag. It implements game.SituationSupply.
type SituationStore struct{}

func (SituationStore) DrawSituations(ctx context.Context, count int, language string, nsfw bool) ([]models.Situation, error) {
	q := `
	SELECT situation_id, joke, language, is_nsfw, user_id
	FROM situations
	WHERE language=$1 AND ($2 OR NOT is_nsfw)
	ORDER BY random()
	LIMIT $3
	`
	rows, err := DB.Query(ctx, q, language, nsfw, count)
	if err != nil {
		return nil, fmt.Errorf("failed to draw situations: %w", err)
	}
	defer rows.Close()

	var situations []models.Situation
	for rows.Next() {
		var s models.Situation
		if err := rows.Scan(&s.ID, &s.Joke, &s.Language, &s.IsNSFW, &s.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan situation: %w", err)
		}
		situations = append(situations, s)
	}
	return situations, rows.Err()
}
