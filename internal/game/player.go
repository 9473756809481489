// internal/game/player.go
package game

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/n1kozver/memelords/internal/models"
)

// Conn is one player's duplex message channel. Send must preserve the
// order of events for this connection and must not block the caller.
type Conn interface {
	Send(ev ServerEvent) error
	Close(reason string)
}

// Player owns one live connection and the per-round state the round
// timeline reads once a window closes: hand, selection, vote, score.
type Player struct {
	UserID    uuid.UUID
	Name      string
	AvatarURL string

	lobby *Lobby
	conn  Conn

	mu       sync.Mutex
	hand     []models.Card
	selected *models.Card
	votedID  int64
	score    int

	leaveOnce sync.Once
}

func NewPlayer(info PlayerInfo, conn Conn, lobby *Lobby) *Player {
	return &Player{
		UserID:    info.UserID,
		Name:      info.Name,
		AvatarURL: info.AvatarURL,
		lobby:     lobby,
		conn:      conn,
	}
}

// Info returns the player's public identity snapshot.
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{UserID: p.UserID, Name: p.Name, AvatarURL: p.AvatarURL}
}

// SendEvent serializes the event onto the player's connection.
func (p *Player) SendEvent(ev ServerEvent) error {
	return p.conn.Send(ev)
}

// Leave removes the player from its lobby and closes the transport.
// Both the disconnect message and the transport close call this, so it
// must only run once.
func (p *Player) Leave() {
	p.leaveOnce.Do(func() {
		p.lobby.RemovePlayer(p)
		p.conn.Close("left lobby")
	})
}

// HandleMessage dispatches one inbound envelope. It returns an error only
// for protocol violations (malformed JSON, unknown tag); rejected actions
// answer the sender with an error event and return nil.
func (p *Player) HandleMessage(raw []byte) error {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("malformed client event: %w", err)
	}

	switch ev.Type {
	case EventConnect:
		// Handshake-only; nothing to do once the player is seated.
		return nil

	case EventDisconnect:
		p.Leave()
		return nil

	case EventChooseCard:
		var data CardData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fmt.Errorf("bad choose_card payload: %w", err)
		}
		p.chooseCard(data.CardID)
		return nil

	case EventVoteCard:
		var data CardData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fmt.Errorf("bad vote_card payload: %w", err)
		}
		p.voteCard(data.CardID)
		return nil

	case EventStart:
		if p.lobby.OwnerID != p.UserID {
			p.SendEvent(errorEvent("only the lobby owner can start the game"))
			return nil
		}
		if err := p.lobby.Start(); err != nil {
			p.SendEvent(errorEvent(err.Error()))
		}
		return nil

	case EventKick:
		if p.lobby.OwnerID != p.UserID {
			p.SendEvent(errorEvent("only the lobby owner can kick players"))
			return nil
		}
		var data KickData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fmt.Errorf("bad kick payload: %w", err)
		}
		p.lobby.Kick(data.UserID)
		return nil

	case EventSetSettings:
		if p.lobby.OwnerID != p.UserID {
			p.SendEvent(errorEvent("only the lobby owner can change settings"))
			return nil
		}
		var patch SettingsPatch
		if err := json.Unmarshal(ev.Data, &patch); err != nil {
			return fmt.Errorf("bad set_settings payload: %w", err)
		}
		p.lobby.SetSettings(patch)
		return nil

	default:
		return fmt.Errorf("unknown client event type %q", ev.Type)
	}
}

// chooseCard resolves the id against the player's own hand. Ids not in
// the hand are ignored; a successful selection is rebroadcast to the
// lobby via cards_update.
func (p *Player) chooseCard(cardID int64) {
	p.mu.Lock()
	var found *models.Card
	for i := range p.hand {
		if p.hand[i].ID == cardID {
			found = &p.hand[i]
			break
		}
	}
	if found == nil {
		p.mu.Unlock()
		return
	}
	card := *found
	p.selected = &card
	p.mu.Unlock()

	p.lobby.UpdateCards()
}

// voteCard records the voted card id verbatim; the tally only counts ids
// that match an actual selection.
func (p *Player) voteCard(cardID int64) {
	p.mu.Lock()
	p.votedID = cardID
	p.mu.Unlock()
}

// addCards appends to the hand and sends the full updated hand to this
// player only.
func (p *Player) addCards(cards []models.Card) {
	p.mu.Lock()
	p.hand = append(p.hand, cards...)
	view := make([]HandCard, 0, len(p.hand))
	for _, c := range p.hand {
		view = append(view, HandCard{CardID: c.ID, PictureURL: c.PictureURL})
	}
	p.mu.Unlock()

	p.SendEvent(ServerEvent{Type: EventSetUserCards, Data: view})
}

// Hand returns a copy of the player's current hand.
func (p *Player) Hand() []models.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// Score returns the player's cumulative meme points.
func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

func (p *Player) selection() *models.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return nil
	}
	card := *p.selected
	return &card
}

func (p *Player) vote() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.votedID
}

func (p *Player) addScore(points int) {
	p.mu.Lock()
	p.score += points
	p.mu.Unlock()
}

// heldCardIDs appends the ids of every card in the hand to dst.
func (p *Player) heldCardIDs(dst []int64) []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.hand {
		dst = append(dst, c.ID)
	}
	return dst
}

// finishRound removes the previously selected card from the hand, takes
// the replacement if one was drawn, and clears selection and vote.
// The refreshed hand is sent to the player.
func (p *Player) finishRound(replacement *models.Card) {
	p.mu.Lock()
	if p.selected != nil {
		kept := p.hand[:0]
		for _, c := range p.hand {
			if c.ID != p.selected.ID {
				kept = append(kept, c)
			}
		}
		p.hand = kept
	}
	if replacement != nil {
		p.hand = append(p.hand, *replacement)
	}
	p.selected = nil
	p.votedID = 0

	view := make([]HandCard, 0, len(p.hand))
	for _, c := range p.hand {
		view = append(view, HandCard{CardID: c.ID, PictureURL: c.PictureURL})
	}
	p.mu.Unlock()

	p.SendEvent(ServerEvent{Type: EventSetUserCards, Data: view})
}
