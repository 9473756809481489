// internal/game/supply.go
package game

import (
	"context"
	"math/rand"

	"github.com/n1kozver/memelords/internal/models"
)

// CardSupply hands out random card records. Implementations must never
// return a card whose id is in exclude, nor the same card twice within
// one call.
type CardSupply interface {
	DrawCards(ctx context.Context, count int, exclude []int64, nsfw bool) ([]models.Card, error)
}

// SituationSupply returns a pool of round prompts for a language. The pool
// must contain at least count entries for a start to proceed; the lobby
// shuffles the pool itself.
type SituationSupply interface {
	DrawSituations(ctx context.Context, count int, language string, nsfw bool) ([]models.Situation, error)
}

// GameRecord is what a finished session leaves behind for the stats
// consumer.
type GameRecord struct {
	InviteCode string        `json:"invite_code"`
	Scores     []PlayerScore `json:"scores"`
	BestMeme   *BestMeme     `json:"best_meme,omitempty"`
	FinishedAt int64         `json:"finished_at"`
}

// History receives records of finished games. Implementations must not
// block game teardown on failure.
type History interface {
	RecordGame(ctx context.Context, rec GameRecord) error
}

// shuffleSituations runs a Fisher–Yates pass over the pool in place,
// giving a uniform permutation with no repeats.
func shuffleSituations(pool []models.Situation) {
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
}
