// internal/game/lobby_store_test.go
package game

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLobbyStoreCreateAndLookup(t *testing.T) {
	store := NewLobbyStore()
	ownerID := uuid.New()

	l := store.CreateLobby(ownerID, &seqCardSupply{}, &fixedSituationSupply{pool: situationPool(10)}, nil, testLogger())

	require.Len(t, l.InviteCode, 6)
	for _, r := range l.InviteCode {
		assert.True(t, strings.ContainsRune(inviteCodeCharset, r), "unexpected invite code rune %q", r)
	}

	got, ok := store.Get(l.InviteCode)
	require.True(t, ok)
	assert.Same(t, l, got)
	assert.Equal(t, 1, store.Len())

	_, ok = store.Get("NOPE00")
	assert.False(t, ok)
}

func TestLobbyStoreCodesAreUnique(t *testing.T) {
	store := NewLobbyStore()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		l := store.CreateLobby(uuid.New(), &seqCardSupply{}, &fixedSituationSupply{pool: situationPool(10)}, nil, testLogger())
		assert.False(t, seen[l.InviteCode])
		seen[l.InviteCode] = true
	}
	assert.Equal(t, 50, store.Len())
}

func TestLobbyStoreDropsEndedLobby(t *testing.T) {
	store := NewLobbyStore()
	ownerID := uuid.New()
	l := store.CreateLobby(ownerID, &seqCardSupply{}, &fixedSituationSupply{pool: situationPool(10)}, nil, testLogger())

	owner, _ := seatPlayer(t, l, ownerID, "alice")
	owner.Leave()

	_, ok := store.Get(l.InviteCode)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestLobbyStoreDelete(t *testing.T) {
	store := NewLobbyStore()
	l := store.CreateLobby(uuid.New(), &seqCardSupply{}, &fixedSituationSupply{pool: situationPool(10)}, nil, testLogger())

	store.Delete(l.InviteCode)
	store.Delete(l.InviteCode) // absent codes are fine
	assert.Equal(t, 0, store.Len())
}
