// internal/game/lobby.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/n1kozver/memelords/internal/models"
)

// Phase is the advisory state of a lobby's session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseChoosing Phase = "choose_cards"
	PhaseVoting   Phase = "vote_cards"
	PhaseEnded    Phase = "end"
)

// Fixed timeline pauses, in time units (one Tick each).
const (
	settleDelay      = 3
	postResultsDelay = 5
)

var (
	// ErrLobbyFull rejects a join past Settings.MaximumUsers.
	ErrLobbyFull = errors.New("lobby is full")
	// ErrAlreadyStarted rejects Start on a lobby that is not idle.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrGameInProgress rejects a join after the round timeline began.
	ErrGameInProgress = errors.New("game is in progress")
)

// Lobby is one game session: the player roster, the settings, and the
// round timeline that drives it. All shared state is guarded by mu; the
// timeline goroutine takes the lock per step and sleeps outside it, so
// joins, leaves, kicks and settings changes never race a round step.
type Lobby struct {
	InviteCode string
	OwnerID    uuid.UUID

	Cards      CardSupply
	Situations SituationSupply
	History    History

	// Tick is the length of one timing unit of the round timeline.
	// Tests shrink it to run a full session in milliseconds.
	Tick time.Duration

	// OnEnd is called exactly once when the session is torn down, whether
	// by finishing all rounds, by the owner leaving, or by the roster
	// emptying. The registry uses it to drop the invite code.
	OnEnd func(*Lobby)

	log logrus.FieldLogger

	mu        sync.Mutex
	players   []*Player
	settings  Settings
	phase     Phase
	round     int
	best      *BestMeme
	cancelRun context.CancelFunc

	endOnce sync.Once
}

// NewLobby builds an idle lobby with default settings.
func NewLobby(ownerID uuid.UUID, inviteCode string, cards CardSupply, situations SituationSupply, logger *logrus.Logger) *Lobby {
	return &Lobby{
		InviteCode: inviteCode,
		OwnerID:    ownerID,
		Cards:      cards,
		Situations: situations,
		Tick:       time.Second,
		log:        logger.WithField("lobby", inviteCode),
		settings:   DefaultSettings(),
		phase:      PhaseIdle,
	}
}

// LobbySummary is the public, phase-independent view of a lobby.
type LobbySummary struct {
	Owner      *PlayerInfo `json:"owner,omitempty"`
	Players    int         `json:"players"`
	MaxPlayers int         `json:"maxPlayers"`
}

// Summary is side-effect-free and available in every phase. Owner is nil
// until the owner has connected.
func (l *Lobby) Summary() LobbySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := LobbySummary{
		Players:    len(l.players),
		MaxPlayers: l.settings.MaximumUsers,
	}
	for _, p := range l.players {
		if p.UserID == l.OwnerID {
			info := p.Info()
			s.Owner = &info
			break
		}
	}
	return s
}

// Phase returns the current advisory phase.
func (l *Lobby) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// Settings returns the current settings value.
func (l *Lobby) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// BestMeme returns a copy of the session's best meme record, if any.
func (l *Lobby) BestMeme() *BestMeme {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.best == nil {
		return nil
	}
	best := *l.best
	return &best
}

// AddPlayer seats a new player. Everyone already seated gets player_join
// before the roster grows, then the new player alone gets the lobby_info
// snapshot that already includes them.
func (l *Lobby) AddPlayer(p *Player) error {
	l.mu.Lock()
	if l.phase != PhaseIdle {
		l.mu.Unlock()
		return ErrGameInProgress
	}
	if len(l.players) >= l.settings.MaximumUsers {
		l.mu.Unlock()
		return ErrLobbyFull
	}

	l.sendAll(l.players, ServerEvent{Type: EventPlayerJoin, Data: p.Info()})
	l.players = append(l.players, p)

	info := LobbyInfoData{
		Settings: l.settings,
		Players:  l.rosterInfoLocked(),
		OwnerID:  l.OwnerID,
	}
	l.mu.Unlock()

	p.SendEvent(ServerEvent{Type: EventLobbyInfo, Data: info})
	l.log.WithField("user", p.UserID).Info("player joined")
	return nil
}

// RemovePlayer takes a player off the roster. The owner leaving tears the
// whole lobby down: every connection is force-closed and no leave event is
// broadcast, the disconnect itself is the terminal signal.
func (l *Lobby) RemovePlayer(p *Player) {
	l.mu.Lock()
	idx := -1
	for i, q := range l.players {
		if q == p {
			idx = i
			break
		}
	}
	if idx == -1 {
		l.mu.Unlock()
		return
	}

	if p.UserID == l.OwnerID {
		others := make([]*Player, 0, len(l.players))
		for _, q := range l.players {
			if q != p {
				others = append(others, q)
			}
		}
		l.players = nil
		l.phase = PhaseEnded
		cancel := l.cancelRun
		l.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		for _, q := range others {
			q.conn.Close("lobby closed by owner")
		}
		l.log.Info("owner left, lobby torn down")
		l.end()
		return
	}

	l.players = append(l.players[:idx], l.players[idx+1:]...)
	empty := len(l.players) == 0
	l.mu.Unlock()

	l.broadcast(ServerEvent{Type: EventPlayerLeave, Data: PlayerLeaveData{UserID: p.UserID}})
	l.log.WithField("user", p.UserID).Info("player left")
	if empty {
		l.end()
	}
}

// Kick resolves the user id against the roster and, when found, removes
// the player and force-closes their connection. Unknown ids are a no-op.
func (l *Lobby) Kick(userID uuid.UUID) {
	l.mu.Lock()
	var target *Player
	for _, q := range l.players {
		if q.UserID == userID {
			target = q
			break
		}
	}
	l.mu.Unlock()

	if target == nil {
		return
	}
	l.log.WithField("user", userID).Info("player kicked")
	target.Leave()
}

// SetSettings merges the patch into the current settings and echoes the
// resulting full settings object to every player. Ranges are not
// validated at this layer.
func (l *Lobby) SetSettings(patch SettingsPatch) {
	l.mu.Lock()
	l.settings.Apply(patch)
	settings := l.settings
	l.mu.Unlock()

	l.broadcast(ServerEvent{Type: EventSetSettings, Data: settings})
}

// UpdateCards broadcasts the public selection state: the subset of players
// who have selected, in roster order. The view is derived, so repeated
// calls with unchanged selections rebroadcast the same payload.
func (l *Lobby) UpdateCards() {
	l.mu.Lock()
	view := make([]SelectedCard, 0, len(l.players))
	for _, p := range l.players {
		if sel := p.selection(); sel != nil {
			view = append(view, SelectedCard{
				UserID:     p.UserID,
				CardID:     sel.ID,
				PictureURL: sel.PictureURL,
			})
		}
	}
	l.mu.Unlock()

	l.broadcast(ServerEvent{Type: EventCardsUpdate, Data: view})
}

// Start launches the round timeline. Only an idle lobby may start; the
// timeline itself runs on its own goroutine and this returns immediately.
func (l *Lobby) Start() error {
	l.mu.Lock()
	if l.phase != PhaseIdle {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(l.players) == 0 {
		l.mu.Unlock()
		return errors.New("cannot start an empty lobby")
	}
	l.phase = PhaseChoosing
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelRun = cancel
	l.mu.Unlock()

	go l.run(ctx)
	return nil
}

// run executes the round timeline sequentially: deal, then for each round
// prompt -> choose window -> vote window -> tally -> replenish, and a
// final best_meme / end_game broadcast.
func (l *Lobby) run(ctx context.Context) {
	l.broadcast(ServerEvent{Type: EventStartGame})
	if !l.wait(ctx, settleDelay) {
		return
	}

	players := l.roster()
	settings := l.Settings()

	deal, err := l.Cards.DrawCards(ctx, len(players)*settings.CardsCount, nil, settings.IsNSFW)
	if err == nil && len(deal) < len(players)*settings.CardsCount {
		err = fmt.Errorf("card supply exhausted: got %d of %d cards", len(deal), len(players)*settings.CardsCount)
	}
	if err != nil {
		l.abortStart(err)
		return
	}
	for i, p := range players {
		p.addCards(deal[i*settings.CardsCount : (i+1)*settings.CardsCount])
	}

	pool, err := l.Situations.DrawSituations(ctx, settings.RoundsCount, settings.Language, settings.IsNSFW)
	if err == nil && len(pool) < settings.RoundsCount {
		err = fmt.Errorf("situation supply exhausted: got %d of %d prompts", len(pool), settings.RoundsCount)
	}
	if err != nil {
		l.abortStart(err)
		return
	}
	shuffleSituations(pool)

	for round := 0; round < settings.RoundsCount; round++ {
		if !l.beginRound(round) {
			return
		}
		l.broadcast(ServerEvent{Type: EventStartRound, Data: StartRoundData{Joke: pool[round].Joke}})
		if !l.wait(ctx, settings.ChooseCardDuration) {
			return
		}

		l.setPhase(PhaseVoting)
		l.broadcast(ServerEvent{Type: EventStartVoting})
		if !l.wait(ctx, settings.VoteDuration) {
			return
		}

		results := l.tally(pool[round])
		l.broadcast(ServerEvent{Type: EventVoteResults, Data: results})
		if !l.wait(ctx, postResultsDelay) {
			return
		}

		if err := l.replenish(ctx, settings); err != nil {
			l.log.WithError(err).Warn("replenish came up short, players keep short hands")
		}
	}

	l.finish(ctx)
}

// wait sleeps for the given number of time units and reports whether the
// timeline should keep going.
func (l *Lobby) wait(ctx context.Context, units int) bool {
	t := time.NewTimer(time.Duration(units) * l.Tick)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase != PhaseEnded && len(l.players) > 0
}

func (l *Lobby) beginRound(round int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseEnded || len(l.players) == 0 {
		return false
	}
	l.phase = PhaseChoosing
	l.round = round
	return true
}

func (l *Lobby) setPhase(phase Phase) {
	l.mu.Lock()
	if l.phase != PhaseEnded {
		l.phase = phase
	}
	l.mu.Unlock()
}

// tally scores the closed round: every selection earns one point per
// matching vote (self-votes included), and the session best meme is
// replaced only on a strictly higher vote count.
func (l *Lobby) tally(sit models.Situation) VoteResultsData {
	l.mu.Lock()
	players := make([]*Player, len(l.players))
	copy(players, l.players)
	anonymous := l.settings.IsAnonymousVotes

	votes := make(map[uuid.UUID]int64, len(players))
	for _, p := range players {
		votes[p.UserID] = p.vote()
	}

	var (
		cards     []CardVotes
		topVotes  = -1
		topPlayer *Player
	)
	for _, p := range players {
		sel := p.selection()
		if sel == nil {
			continue
		}
		var voters []uuid.UUID
		for _, q := range players {
			if votes[q.UserID] == sel.ID {
				voters = append(voters, q.UserID)
			}
		}
		p.addScore(len(voters))

		cv := CardVotes{CardID: sel.ID, Votes: len(voters)}
		if !anonymous {
			cv.Voters = voters
		}
		cards = append(cards, cv)

		// First-seen wins ties within the round, roster order.
		if len(voters) > topVotes {
			topVotes = len(voters)
			topPlayer = p
		}
	}

	if topPlayer != nil && topVotes > 0 && (l.best == nil || topVotes > l.best.Votes) {
		sel := topPlayer.selection()
		l.best = &BestMeme{
			Joke:       sit.Joke,
			PictureURL: sel.PictureURL,
			Votes:      topVotes,
			Author:     topPlayer.Info(),
		}
	}

	scores := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, PlayerScore{UserID: p.UserID, MemePoints: p.Score()})
	}
	l.mu.Unlock()

	return VoteResultsData{Players: scores, Cards: cards}
}

// replenish draws one fresh card per selecting player, excluding every
// card currently held anywhere in the lobby, then swaps each selection
// out of its owner's hand and clears per-round state for everyone.
func (l *Lobby) replenish(ctx context.Context, settings Settings) error {
	players := l.roster()

	var exclude []int64
	var selectors int
	for _, p := range players {
		exclude = p.heldCardIDs(exclude)
		if p.selection() != nil {
			selectors++
		}
	}

	var fresh []models.Card
	var err error
	if selectors > 0 {
		fresh, err = l.Cards.DrawCards(ctx, selectors, exclude, settings.IsNSFW)
	}

	i := 0
	for _, p := range players {
		var replacement *models.Card
		if p.selection() != nil && i < len(fresh) {
			replacement = &fresh[i]
			i++
		}
		p.finishRound(replacement)
	}

	if err != nil {
		return err
	}
	if len(fresh) < selectors {
		return fmt.Errorf("card supply exhausted: got %d of %d replacements", len(fresh), selectors)
	}
	return nil
}

// finish closes out the session: best_meme (if any), final scores, a
// history record, and the registry teardown callback.
func (l *Lobby) finish(ctx context.Context) {
	l.mu.Lock()
	l.phase = PhaseEnded
	best := l.best
	players := make([]*Player, len(l.players))
	copy(players, l.players)
	l.mu.Unlock()

	if best != nil {
		l.broadcast(ServerEvent{Type: EventBestMeme, Data: *best})
	}

	scores := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, PlayerScore{UserID: p.UserID, MemePoints: p.Score()})
	}
	l.broadcast(ServerEvent{Type: EventEndGame, Data: scores})

	if l.History != nil {
		rec := GameRecord{
			InviteCode: l.InviteCode,
			Scores:     scores,
			BestMeme:   best,
			FinishedAt: time.Now().Unix(),
		}
		if err := l.History.RecordGame(ctx, rec); err != nil {
			l.log.WithError(err).Warn("failed to record finished game")
		}
	}

	l.log.Info("game finished")
	l.end()
}

// abortStart rolls a failed start back to idle so the owner can retry.
func (l *Lobby) abortStart(err error) {
	l.log.WithError(err).Error("game start aborted")

	l.mu.Lock()
	if l.phase != PhaseEnded {
		l.phase = PhaseIdle
	}
	l.cancelRun = nil
	l.mu.Unlock()

	l.broadcast(errorEvent("failed to start game: " + err.Error()))
}

// end fires the teardown callback exactly once.
func (l *Lobby) end() {
	l.endOnce.Do(func() {
		if l.OnEnd != nil {
			l.OnEnd(l)
		}
	})
}

// roster returns a snapshot of the players in join order.
func (l *Lobby) roster() []*Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Player, len(l.players))
	copy(out, l.players)
	return out
}

func (l *Lobby) rosterInfoLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(l.players))
	for _, p := range l.players {
		infos = append(infos, p.Info())
	}
	return infos
}

// broadcast sends ev to every seated player in roster order.
func (l *Lobby) broadcast(ev ServerEvent) {
	l.sendAll(l.roster(), ev)
}

// sendAll delivers ev to the given players in order. A failing recipient
// does not abort delivery to the rest; they are detached as disconnected.
func (l *Lobby) sendAll(players []*Player, ev ServerEvent) {
	for _, p := range players {
		if err := p.SendEvent(ev); err != nil {
			l.log.WithError(err).WithField("user", p.UserID).Warn("send failed, detaching player")
			go p.Leave()
		}
	}
}
