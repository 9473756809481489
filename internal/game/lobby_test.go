// internal/game/lobby_test.go
package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n1kozver/memelords/internal/models"
)

// mockConn records every event sent to one player, in order.
type mockConn struct {
	mu     sync.Mutex
	events []ServerEvent
	closed bool
	reason string
}

func (c *mockConn) Send(ev ServerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *mockConn) Close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reason = reason
}

func (c *mockConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *mockConn) countOfType(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (c *mockConn) eventsOfType(typ string) []ServerEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ServerEvent
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *mockConn) lastOfType(typ string) (ServerEvent, bool) {
	evs := c.eventsOfType(typ)
	if len(evs) == 0 {
		return ServerEvent{}, false
	}
	return evs[len(evs)-1], true
}

// seqCardSupply hands out cards with strictly increasing ids, so every
// draw is unique across the whole test by construction. It still honors
// the exclusion contract.
type seqCardSupply struct {
	mu   sync.Mutex
	next int64
}

func (s *seqCardSupply) DrawCards(_ context.Context, count int, exclude []int64, _ bool) ([]models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	cards := make([]models.Card, 0, count)
	for len(cards) < count {
		s.next++
		if excluded[s.next] {
			continue
		}
		cards = append(cards, models.Card{
			ID:         s.next,
			PictureURL: fmt.Sprintf("https://cdn.example/memes/%d.png", s.next),
		})
	}
	return cards, nil
}

type fixedSituationSupply struct {
	pool []models.Situation
}

func (s *fixedSituationSupply) DrawSituations(_ context.Context, _ int, _ string, _ bool) ([]models.Situation, error) {
	out := make([]models.Situation, len(s.pool))
	copy(out, s.pool)
	return out, nil
}

// emptyCardSupply simulates an exhausted card table.
type emptyCardSupply struct{}

func (emptyCardSupply) DrawCards(context.Context, int, []int64, bool) ([]models.Card, error) {
	return nil, nil
}

// memoryHistory captures finished game records.
type memoryHistory struct {
	mu      sync.Mutex
	records []GameRecord
}

func (h *memoryHistory) RecordGame(_ context.Context, rec GameRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *memoryHistory) all() []GameRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]GameRecord, len(h.records))
	copy(out, h.records)
	return out
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func situationPool(n int) []models.Situation {
	pool := make([]models.Situation, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, models.Situation{
			ID:       int64(i + 1),
			Joke:     fmt.Sprintf("situation #%d", i+1),
			Language: "ru",
		})
	}
	return pool
}

func newTestLobby(t *testing.T) (*Lobby, *seqCardSupply) {
	t.Helper()
	cards := &seqCardSupply{}
	l := NewLobby(uuid.New(), "ABC123", cards, &fixedSituationSupply{pool: situationPool(10)}, testLogger())
	l.Tick = 2 * time.Millisecond
	return l, cards
}

func seatPlayer(t *testing.T, l *Lobby, id uuid.UUID, name string) (*Player, *mockConn) {
	t.Helper()
	conn := &mockConn{}
	p := NewPlayer(PlayerInfo{UserID: id, Name: name, AvatarURL: name + ".png"}, conn, l)
	require.NoError(t, l.AddPlayer(p))
	return p, conn
}

func waitCount(t *testing.T, c *mockConn, typ string, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.countOfType(typ) >= count
	}, 2*time.Second, time.Millisecond, "waiting for %d %s events", count, typ)
}

func chooseMsg(cardID int64) []byte {
	return []byte(fmt.Sprintf(`{"type":"choose_card","data":{"cardId":%d}}`, cardID))
}

func voteMsg(cardID int64) []byte {
	return []byte(fmt.Sprintf(`{"type":"vote_card","data":{"cardId":%d}}`, cardID))
}

func TestAddPlayerEventOrdering(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	// Seated players hear about the newcomer.
	joins := ownerConn.eventsOfType(EventPlayerJoin)
	require.Len(t, joins, 1)
	assert.Equal(t, bob.Info(), joins[0].Data)

	// The newcomer never hears their own join, only the snapshot.
	assert.Equal(t, 0, bobConn.countOfType(EventPlayerJoin))

	infoEv, ok := bobConn.lastOfType(EventLobbyInfo)
	require.True(t, ok)
	info, ok := infoEv.Data.(LobbyInfoData)
	require.True(t, ok)
	assert.Equal(t, l.OwnerID, info.OwnerID)
	assert.Equal(t, DefaultSettings(), info.Settings)
	require.Len(t, info.Players, 2)
	assert.Equal(t, owner.Info(), info.Players[0])
	assert.Equal(t, bob.Info(), info.Players[1])

	// Summary reflects the connected owner and roster size.
	sum := l.Summary()
	require.NotNil(t, sum.Owner)
	assert.Equal(t, "alice", sum.Owner.Name)
	assert.Equal(t, 2, sum.Players)
	assert.Equal(t, DefaultSettings().MaximumUsers, sum.MaxPlayers)
}

func TestAddPlayerCapacity(t *testing.T) {
	l, _ := newTestLobby(t)
	seatPlayer(t, l, l.OwnerID, "alice")
	seatPlayer(t, l, uuid.New(), "bob")
	l.SetSettings(SettingsPatch{MaximumUsers: intPtr(2)})

	late := NewPlayer(PlayerInfo{UserID: uuid.New(), Name: "carol"}, &mockConn{}, l)
	err := l.AddPlayer(late)
	require.ErrorIs(t, err, ErrLobbyFull)
	assert.Equal(t, 2, l.Summary().Players)
}

func TestAddPlayerRejectedMidGame(t *testing.T) {
	l, _ := newTestLobby(t)
	l.Tick = time.Minute
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	require.NoError(t, l.Start())

	late := NewPlayer(PlayerInfo{UserID: uuid.New(), Name: "bob"}, &mockConn{}, l)
	require.ErrorIs(t, l.AddPlayer(late), ErrGameInProgress)

	owner.Leave()
}

func TestOwnerLeaveTearsDownLobby(t *testing.T) {
	l, _ := newTestLobby(t)
	var endCalls int
	l.OnEnd = func(*Lobby) { endCalls++ }

	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	_, bobConn := seatPlayer(t, l, uuid.New(), "bob")
	_, carolConn := seatPlayer(t, l, uuid.New(), "carol")

	owner.Leave()

	assert.Equal(t, 0, l.Summary().Players)
	assert.Equal(t, PhaseEnded, l.Phase())
	assert.True(t, bobConn.isClosed())
	assert.True(t, carolConn.isClosed())
	assert.Equal(t, 1, endCalls)

	// Teardown is silent: the disconnect itself is the signal.
	assert.Equal(t, 0, bobConn.countOfType(EventPlayerLeave))
	assert.Equal(t, 0, carolConn.countOfType(EventPlayerLeave))
}

func TestPlayerLeaveBroadcast(t *testing.T) {
	l, _ := newTestLobby(t)
	_, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, _ := seatPlayer(t, l, uuid.New(), "bob")

	bob.Leave()

	leaves := ownerConn.eventsOfType(EventPlayerLeave)
	require.Len(t, leaves, 1)
	assert.Equal(t, PlayerLeaveData{UserID: bob.UserID}, leaves[0].Data)
	assert.Equal(t, 1, l.Summary().Players)
	assert.Equal(t, PhaseIdle, l.Phase())
}

func TestLastPlayerLeaveEndsLobby(t *testing.T) {
	l, _ := newTestLobby(t)
	var endCalls int
	l.OnEnd = func(*Lobby) { endCalls++ }

	bob, _ := seatPlayer(t, l, uuid.New(), "bob")
	bob.Leave()

	assert.Equal(t, 0, l.Summary().Players)
	assert.Equal(t, 1, endCalls)
}

func TestKick(t *testing.T) {
	l, _ := newTestLobby(t)
	_, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	// Unknown ids are a no-op.
	l.Kick(uuid.New())
	assert.Equal(t, 2, l.Summary().Players)

	l.Kick(bob.UserID)
	assert.True(t, bobConn.isClosed())
	assert.Equal(t, 1, l.Summary().Players)
	require.Equal(t, 1, ownerConn.countOfType(EventPlayerLeave))
}

func TestOwnerOnlyActions(t *testing.T) {
	l, _ := newTestLobby(t)
	seatPlayer(t, l, l.OwnerID, "alice")
	bob, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	require.NoError(t, bob.HandleMessage([]byte(`{"type":"start"}`)))
	require.NoError(t, bob.HandleMessage([]byte(`{"type":"set_settings","data":{"roundsCount":1}}`)))
	require.NoError(t, bob.HandleMessage([]byte(fmt.Sprintf(`{"type":"kick","data":{"userId":%q}}`, l.OwnerID))))

	// Every attempt got an error event and nothing changed.
	assert.Equal(t, 3, bobConn.countOfType(EventError))
	assert.Equal(t, PhaseIdle, l.Phase())
	assert.Equal(t, DefaultSettings(), l.Settings())
	assert.Equal(t, 2, l.Summary().Players)
}

func TestOwnerSetSettingsBroadcast(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	_, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	require.NoError(t, owner.HandleMessage([]byte(`{"type":"set_settings","data":{"roundsCount":2,"voteDuration":10}}`)))

	want := DefaultSettings()
	want.RoundsCount = 2
	want.VoteDuration = 10
	assert.Equal(t, want, l.Settings())

	ev, ok := bobConn.lastOfType(EventSetSettings)
	require.True(t, ok)
	assert.Equal(t, want, ev.Data)
}

func TestHandleMessageProtocolErrors(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")

	assert.Error(t, owner.HandleMessage([]byte(`not json`)))
	assert.Error(t, owner.HandleMessage([]byte(`{"type":"warp_reality"}`)))
	assert.Error(t, owner.HandleMessage([]byte(`{"type":"choose_card","data":"nope"}`)))
}

func TestStartGuards(t *testing.T) {
	l, _ := newTestLobby(t)
	require.Error(t, l.Start(), "empty lobby must not start")

	l.Tick = time.Minute
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	require.NoError(t, l.Start())
	require.ErrorIs(t, l.Start(), ErrAlreadyStarted)

	owner.Leave()
}

func TestStartAbortsOnExhaustedCardSupply(t *testing.T) {
	l, _ := newTestLobby(t)
	l.Cards = emptyCardSupply{}
	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")

	require.NoError(t, l.Start())

	waitCount(t, ownerConn, EventError, 1)
	require.Eventually(t, func() bool {
		return l.Phase() == PhaseIdle
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 0, ownerConn.countOfType(EventStartRound))

	// The owner can retry once the supply recovers.
	l.Cards = &seqCardSupply{}
	require.NoError(t, l.Start())
	owner.Leave()
}

func TestUpdateCardsIsIdempotent(t *testing.T) {
	l, cards := newTestLobby(t)
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	_, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	hand, err := cards.DrawCards(context.Background(), 3, nil, false)
	require.NoError(t, err)
	owner.addCards(hand)

	require.NoError(t, owner.HandleMessage(chooseMsg(hand[0].ID)))
	l.UpdateCards()

	updates := bobConn.eventsOfType(EventCardsUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, updates[0].Data, updates[1].Data)

	want := []SelectedCard{{UserID: owner.UserID, CardID: hand[0].ID, PictureURL: hand[0].PictureURL}}
	assert.Equal(t, want, updates[0].Data)
}

func TestChooseCardIgnoresForeignIDs(t *testing.T) {
	l, cards := newTestLobby(t)
	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	_, bobConn := seatPlayer(t, l, uuid.New(), "bob")

	hand, err := cards.DrawCards(context.Background(), 3, nil, false)
	require.NoError(t, err)
	owner.addCards(hand)

	require.NoError(t, owner.HandleMessage(chooseMsg(99999)))
	assert.Equal(t, 0, bobConn.countOfType(EventCardsUpdate))
}

func TestFullGameRun(t *testing.T) {
	l, _ := newTestLobby(t)
	history := &memoryHistory{}
	l.History = history
	var endCalls int
	l.OnEnd = func(*Lobby) { endCalls++ }

	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, _ := seatPlayer(t, l, uuid.New(), "bob")
	carol, _ := seatPlayer(t, l, uuid.New(), "carol")

	const rounds = 3
	l.SetSettings(SettingsPatch{
		RoundsCount:        intPtr(rounds),
		ChooseCardDuration: intPtr(25),
		VoteDuration:       intPtr(25),
	})

	require.NoError(t, owner.HandleMessage([]byte(`{"type":"start"}`)))

	waitCount(t, ownerConn, EventStartGame, 1)
	waitCount(t, ownerConn, EventSetUserCards, 1)

	cardsCount := l.Settings().CardsCount
	require.Len(t, owner.Hand(), cardsCount)
	require.Len(t, bob.Hand(), cardsCount)
	require.Len(t, carol.Hand(), cardsCount)

	var jokes []string
	for r := 0; r < rounds; r++ {
		waitCount(t, ownerConn, EventStartRound, r+1)
		roundEv, _ := ownerConn.lastOfType(EventStartRound)
		jokes = append(jokes, roundEv.Data.(StartRoundData).Joke)

		handBefore := owner.Hand()
		chosen := handBefore[0]
		require.NoError(t, owner.HandleMessage(chooseMsg(chosen.ID)))
		require.NoError(t, bob.HandleMessage(voteMsg(chosen.ID)))
		require.NoError(t, carol.HandleMessage(voteMsg(chosen.ID)))

		waitCount(t, ownerConn, EventVoteResults, r+1)
		resultsEv, _ := ownerConn.lastOfType(EventVoteResults)
		results := resultsEv.Data.(VoteResultsData)

		require.Len(t, results.Cards, 1)
		assert.Equal(t, chosen.ID, results.Cards[0].CardID)
		assert.Equal(t, 2, results.Cards[0].Votes)
		assert.Equal(t, []uuid.UUID{bob.UserID, carol.UserID}, results.Cards[0].Voters)

		require.Len(t, results.Players, 3)
		assert.Equal(t, PlayerScore{UserID: owner.UserID, MemePoints: 2 * (r + 1)}, results.Players[0])
		assert.Equal(t, 0, results.Players[1].MemePoints)
		assert.Equal(t, 0, results.Players[2].MemePoints)

		// Replenish swaps exactly the played card for one fresh one.
		require.Eventually(t, func() bool {
			hand := owner.Hand()
			for _, c := range hand {
				if c.ID == chosen.ID {
					return false
				}
			}
			return len(hand) == cardsCount
		}, 2*time.Second, time.Millisecond)

		handAfter := owner.Hand()
		changed := 0
		before := make(map[int64]bool, len(handBefore))
		for _, c := range handBefore {
			before[c.ID] = true
		}
		for _, c := range handAfter {
			if !before[c.ID] {
				changed++
			}
		}
		assert.Equal(t, 1, changed)

		// Players who sat the round out keep their hands untouched.
		assert.Equal(t, cardsCount, len(bob.Hand()))

		// No card is ever held by two players at once.
		seen := make(map[int64]bool)
		for _, p := range []*Player{owner, bob, carol} {
			for _, c := range p.Hand() {
				assert.False(t, seen[c.ID], "card %d dealt twice", c.ID)
				seen[c.ID] = true
			}
		}
	}

	// Prompts never repeat within a session.
	uniqueJokes := make(map[string]bool)
	for _, j := range jokes {
		uniqueJokes[j] = true
	}
	assert.Len(t, uniqueJokes, rounds)

	require.Eventually(t, func() bool {
		return l.Phase() == PhaseEnded
	}, 2*time.Second, time.Millisecond)

	waitCount(t, ownerConn, EventEndGame, 1)

	bestEv, ok := ownerConn.lastOfType(EventBestMeme)
	require.True(t, ok)
	best := bestEv.Data.(BestMeme)
	assert.Equal(t, 2, best.Votes)
	assert.Equal(t, owner.Info(), best.Author)
	// Ties never replace the first record, so the best meme is round one's.
	assert.Equal(t, jokes[0], best.Joke)

	endEv, _ := ownerConn.lastOfType(EventEndGame)
	scores := endEv.Data.([]PlayerScore)
	require.Len(t, scores, 3)
	assert.Equal(t, PlayerScore{UserID: owner.UserID, MemePoints: 2 * rounds}, scores[0])
	assert.Equal(t, PlayerScore{UserID: bob.UserID, MemePoints: 0}, scores[1])
	assert.Equal(t, PlayerScore{UserID: carol.UserID, MemePoints: 0}, scores[2])

	records := history.all()
	require.Len(t, records, 1)
	assert.Equal(t, l.InviteCode, records[0].InviteCode)
	assert.Equal(t, scores, records[0].Scores)
	require.NotNil(t, records[0].BestMeme)
	assert.Equal(t, best, *records[0].BestMeme)

	assert.Equal(t, 1, endCalls)
}

func TestReplenishSwapsEachPlayedCard(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, _ := seatPlayer(t, l, uuid.New(), "bob")
	carol, _ := seatPlayer(t, l, uuid.New(), "carol")
	roster := []*Player{owner, bob, carol}

	l.SetSettings(SettingsPatch{
		RoundsCount:        intPtr(1),
		ChooseCardDuration: intPtr(25),
		VoteDuration:       intPtr(25),
	})
	require.NoError(t, l.Start())

	waitCount(t, ownerConn, EventStartRound, 1)
	cardsCount := l.Settings().CardsCount

	handsBefore := make(map[uuid.UUID][]models.Card)
	played := make(map[uuid.UUID]int64)
	for _, p := range roster {
		hand := p.Hand()
		require.Len(t, hand, cardsCount)
		handsBefore[p.UserID] = hand
		played[p.UserID] = hand[0].ID
		require.NoError(t, p.HandleMessage(chooseMsg(hand[0].ID)))
	}

	waitCount(t, ownerConn, EventVoteResults, 1)
	require.Eventually(t, func() bool {
		return l.Phase() == PhaseEnded
	}, 2*time.Second, time.Millisecond)

	seen := make(map[int64]bool)
	for _, p := range roster {
		hand := p.Hand()
		require.Len(t, hand, cardsCount)

		before := make(map[int64]bool, cardsCount)
		for _, c := range handsBefore[p.UserID] {
			before[c.ID] = true
		}
		fresh := 0
		for _, c := range hand {
			assert.NotEqual(t, played[p.UserID], c.ID, "played card must be gone")
			assert.False(t, seen[c.ID], "card %d held twice", c.ID)
			seen[c.ID] = true
			if !before[c.ID] {
				fresh++
			}
		}
		assert.Equal(t, 1, fresh, "exactly one card changes per selecting player")
	}
}

func TestMidVoteDisconnectExcludesVote(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, _ := seatPlayer(t, l, uuid.New(), "bob")
	carol, _ := seatPlayer(t, l, uuid.New(), "carol")

	l.SetSettings(SettingsPatch{
		RoundsCount:        intPtr(1),
		ChooseCardDuration: intPtr(25),
		VoteDuration:       intPtr(25),
	})
	require.NoError(t, l.Start())

	waitCount(t, ownerConn, EventStartRound, 1)
	chosen := owner.Hand()[0]
	require.NoError(t, owner.HandleMessage(chooseMsg(chosen.ID)))

	waitCount(t, ownerConn, EventStartVoting, 1)
	require.NoError(t, bob.HandleMessage(voteMsg(chosen.ID)))
	bob.Leave()
	require.NoError(t, carol.HandleMessage(voteMsg(chosen.ID)))

	waitCount(t, ownerConn, EventVoteResults, 1)
	resultsEv, _ := ownerConn.lastOfType(EventVoteResults)
	results := resultsEv.Data.(VoteResultsData)

	require.Len(t, results.Cards, 1)
	assert.Equal(t, 1, results.Cards[0].Votes)
	assert.Equal(t, []uuid.UUID{carol.UserID}, results.Cards[0].Voters)

	// The departure never stalls the timeline.
	require.Eventually(t, func() bool {
		return l.Phase() == PhaseEnded
	}, 2*time.Second, time.Millisecond)
}

func TestAnonymousVotesHideVoters(t *testing.T) {
	l, _ := newTestLobby(t)
	owner, ownerConn := seatPlayer(t, l, l.OwnerID, "alice")
	bob, _ := seatPlayer(t, l, uuid.New(), "bob")

	l.SetSettings(SettingsPatch{
		RoundsCount:        intPtr(1),
		ChooseCardDuration: intPtr(25),
		VoteDuration:       intPtr(25),
		IsAnonymousVotes:   boolPtr(true),
	})
	require.NoError(t, l.Start())

	waitCount(t, ownerConn, EventStartRound, 1)
	chosen := owner.Hand()[0]
	require.NoError(t, owner.HandleMessage(chooseMsg(chosen.ID)))
	require.NoError(t, bob.HandleMessage(voteMsg(chosen.ID)))

	waitCount(t, ownerConn, EventVoteResults, 1)
	resultsEv, _ := ownerConn.lastOfType(EventVoteResults)
	results := resultsEv.Data.(VoteResultsData)

	require.Len(t, results.Cards, 1)
	assert.Equal(t, 1, results.Cards[0].Votes)
	assert.Nil(t, results.Cards[0].Voters)

	require.Eventually(t, func() bool {
		return l.Phase() == PhaseEnded
	}, 2*time.Second, time.Millisecond)
}

func TestOwnerLeaveCancelsRunningGame(t *testing.T) {
	l, _ := newTestLobby(t)
	l.Tick = time.Minute

	owner, _ := seatPlayer(t, l, l.OwnerID, "alice")
	_, bobConn := seatPlayer(t, l, uuid.New(), "bob")
	require.NoError(t, l.Start())

	owner.Leave()

	assert.Equal(t, PhaseEnded, l.Phase())
	assert.True(t, bobConn.isClosed())
}
