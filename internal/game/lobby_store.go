// internal/game/lobby_store.go
package game

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	inviteCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength  = 6
)

// LobbyStore maps invite codes to active lobbies in memory. Lobbies are
// inserted on create and removed through their OnEnd callback, so an
// ended session cannot be looked up again.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*Lobby),
	}
}

// CreateLobby builds a lobby for the owner under a fresh invite code,
// wires its teardown back into the store, and registers it.
func (s *LobbyStore) CreateLobby(ownerID uuid.UUID, cards CardSupply, situations SituationSupply, history History, logger *logrus.Logger) *Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := randomInviteCode()
	for _, taken := s.lobbies[code]; taken; _, taken = s.lobbies[code] {
		code = randomInviteCode()
	}

	l := NewLobby(ownerID, code, cards, situations, logger)
	l.History = history
	l.OnEnd = func(ended *Lobby) {
		s.Delete(ended.InviteCode)
	}
	s.lobbies[code] = l
	return l
}

// Get looks a lobby up by invite code.
func (s *LobbyStore) Get(code string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[code]
	return l, ok
}

// Delete drops a lobby from the store. Safe to call for absent codes.
func (s *LobbyStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
}

// Len reports how many lobbies are registered.
func (s *LobbyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}

func randomInviteCode() string {
	b := make([]byte, inviteCodeLength)
	for i := range b {
		b[i] = inviteCodeCharset[rand.Intn(len(inviteCodeCharset))]
	}
	return string(b)
}
