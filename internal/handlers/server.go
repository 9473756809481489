// internal/handlers/server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/n1kozver/memelords/internal/game"
)

// GameServer bundles the lobby registry with the collaborators lobbies
// need: the card and situation supplies and the game history sink.
type GameServer struct {
	Lobbies    *game.LobbyStore
	Cards      game.CardSupply
	Situations game.SituationSupply
	History    game.History
	Logger     *logrus.Logger
}

func NewGameServer(logger *logrus.Logger, cards game.CardSupply, situations game.SituationSupply, history game.History) *GameServer {
	return &GameServer{
		Lobbies:    game.NewLobbyStore(),
		Cards:      cards,
		Situations: situations,
		History:    history,
		Logger:     logger,
	}
}
