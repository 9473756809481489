// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client (inbound) event tags.
const (
	EventConnect     = "connect"
	EventDisconnect  = "disconnect"
	EventChooseCard  = "choose_card"
	EventVoteCard    = "vote_card"
	EventStart       = "start"
	EventKick        = "kick"
	EventSetSettings = "set_settings"
)

// Server (outbound) event tags.
const (
	EventLobbyInfo    = "lobby_info"
	EventPlayerJoin   = "player_join"
	EventPlayerLeave  = "player_leave"
	EventStartGame    = "start_game"
	EventStartRound   = "start_round"
	EventCardsUpdate  = "cards_update"
	EventSetUserCards = "set_user_cards"
	EventStartVoting  = "start_voting"
	EventVoteResults  = "vote_results"
	EventBestMeme     = "best_meme"
	EventEndGame      = "end_game"
	EventError        = "error"
	// set_settings is echoed back to clients with the full settings object.
)

// ClientEvent is the inbound envelope. Data stays raw until the tag is known.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is the outbound envelope.
type ServerEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Inbound payloads.

type ConnectData struct {
	InviteCode string `json:"inviteCode"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl"`
}

type CardData struct {
	CardID int64 `json:"cardId"`
}

type KickData struct {
	UserID uuid.UUID `json:"userId"`
}

// Outbound payloads.

// PlayerInfo is a player's public identity snapshot.
type PlayerInfo struct {
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
}

type LobbyInfoData struct {
	Settings Settings     `json:"settings"`
	Players  []PlayerInfo `json:"players"`
	OwnerID  uuid.UUID    `json:"ownerId"`
}

type PlayerLeaveData struct {
	UserID uuid.UUID `json:"userId"`
}

type StartRoundData struct {
	Joke string `json:"joke"`
}

// SelectedCard is the public view of one player's selection.
type SelectedCard struct {
	UserID     uuid.UUID `json:"userId"`
	CardID     int64     `json:"cardId"`
	PictureURL string    `json:"pictureUrl"`
}

// HandCard is the private view of a card in the owner's hand.
type HandCard struct {
	CardID     int64  `json:"cardId"`
	PictureURL string `json:"pictureUrl"`
}

type PlayerScore struct {
	UserID     uuid.UUID `json:"userId"`
	MemePoints int       `json:"memePoints"`
}

// CardVotes reports the voters a selection collected in one round.
// Voters is omitted when the lobby runs with anonymous votes.
type CardVotes struct {
	CardID int64       `json:"cardId"`
	Votes  int         `json:"votes"`
	Voters []uuid.UUID `json:"voters,omitempty"`
}

type VoteResultsData struct {
	Players []PlayerScore `json:"players"`
	Cards   []CardVotes   `json:"cards"`
}

// BestMeme is the highest-voted selection seen so far in a session.
type BestMeme struct {
	Joke       string     `json:"joke"`
	PictureURL string     `json:"pictureUrl"`
	Votes      int        `json:"votes"`
	Author     PlayerInfo `json:"author"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func errorEvent(msg string) ServerEvent {
	return ServerEvent{Type: EventError, Data: ErrorData{Message: msg}}
}
