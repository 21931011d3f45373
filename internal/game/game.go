// internal/game/game.go
package game

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/models"
	"github.com/bstee615/go-sushi/internal/scoring"
)

// GameEventType is an enum-like type for events pushed to clients.
type GameEventType string

const (
	EventGameState     GameEventType = "game_state"     // private snapshot
	EventCardsRevealed GameEventType = "cards_revealed" // broadcast after every resolution
	EventRoundEnd      GameEventType = "round_end"      // broadcast with the round breakdown
	EventGameEnd       GameEventType = "game_end"       // broadcast with final scores and rankings
	EventPlayerKicked  GameEventType = "player_kicked"  // private to the removed player
	EventGameDeleted   GameEventType = "game_deleted"   // broadcast before the registry forgets the game
)

// GameEvent is the envelope every outbound message uses.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Payload interface{}   `json:"payload,omitempty"`
}

// Phase is the observable state of a session.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseSelecting Phase = "selecting"
	PhaseRevealing Phase = "revealing"
	PhaseRoundEnd  Phase = "round_end"
	PhaseGameEnd   Phase = "game_end"
)

// Reveal is what one seat took on a turn.
type Reveal struct {
	PlayerID       string        `json:"playerId"`
	Cards          []models.Card `json:"cards"`
	UsedChopsticks bool          `json:"usedChopsticks"`
}

type CardsRevealedPayload struct {
	Round   int      `json:"round"`
	Turn    int      `json:"turn"`
	Reveals []Reveal `json:"reveals"`
}

// RoundScore is one seat's line in a round_end event.
type RoundScore struct {
	PlayerID   string            `json:"playerId"`
	Name       string            `json:"name"`
	Breakdown  scoring.Breakdown `json:"breakdown"`
	RoundTotal int               `json:"roundTotal"`
	TotalScore int               `json:"totalScore"`
}

type RoundEndPayload struct {
	Round  int          `json:"round"`
	Scores []RoundScore `json:"scores"`
}

// FinalScore is one seat's line in the final ranking.
type FinalScore struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Seat         int    `json:"seat"`
	Rank         int    `json:"rank"`
	RoundScores  []int  `json:"roundScores"`
	PuddingCount int    `json:"puddingCount"`
	PuddingScore int    `json:"puddingScore"`
	TotalScore   int    `json:"totalScore"`
}

// GameResult is the payload of game_end and what OnGameEnd receives.
type GameResult struct {
	GameID      string         `json:"gameId"`
	FinalScores map[string]int `json:"finalScores"`
	Rankings    []FinalScore   `json:"rankings"`
	Winner      string         `json:"winner"`
}

type PlayerKickedPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	KickedBy string `json:"kickedBy"`
}

type GameDeletedPayload struct {
	GameID string `json:"gameId"`
}

// SelectCardRequest is a select_card action after the transport decoded it.
type SelectCardRequest struct {
	CardIndex       int  `json:"cardIndex"`
	UseChopsticks   bool `json:"useChopsticks"`
	SecondCardIndex *int `json:"secondCardIndex,omitempty"`
}

// GameSession holds the entire state of one table in memory. All fields are
// guarded by mu; outbound events leave through the hooks only after mu is
// released.
type GameSession struct {
	ID        string
	Rules     Rules
	CreatedAt time.Time

	Players        []*models.Player // seating order is pass order
	Phase          Phase
	CurrentRound   int // 0 until started
	Turn           int
	TurnsRemaining int

	deck        []models.Card
	handSize    int
	rng         *rand.Rand
	version     int
	actionIndex int
	actions     *actionPublisher
	result      *GameResult
	deleted     bool

	mu     sync.Mutex
	sendMu sync.Mutex // keeps dispatch order equal to mutation order

	// BroadcastFn sends an event to everyone at the table. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn func(playerID string, ev GameEvent)

	// OnGameEnd is called once, after the game_end event went out.
	OnGameEnd func(result GameResult)

	// OnEmpty is called when the last seat leaves a waiting table.
	OnEmpty func(gameID string)

	// DeckFn produces the shuffled deck at start. Defaults to ShuffledDeck.
	DeckFn func(r *rand.Rand) []models.Card
}

// NewGameSession creates a waiting table.
func NewGameSession(id string, rules Rules) *GameSession {
	return &GameSession{
		ID:        id,
		Rules:     rules,
		CreatedAt: time.Now(),
		Phase:     PhaseWaiting,
		rng:       rand.New(rand.NewSource(sessionSeed(id, rules.Seed))),
		actions:   newActionPublisher(),
		DeckFn:    ShuffledDeck,
	}
}

// sessionSeed mixes the game id into a configured seed so tables sharing a
// config still get different decks. A zero seed draws from the clock.
func sessionSeed(gameID string, seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	h := fnv.New64a()
	h.Write([]byte(gameID))
	return seed ^ int64(h.Sum64())
}

// Join seats a new player while the table is waiting. A player who already
// holds a seat is reconnected instead, in any phase.
func (g *GameSession) Join(playerID, name string) error {
	return g.mutate(func(out *outbox) error {
		if p := g.getPlayerByID(playerID); p != nil {
			g.reconnect(p, out)
			return nil
		}
		if g.Phase != PhaseWaiting {
			return newError(KindInvalidPhase, "game %s has already started", g.ID)
		}
		if len(g.Players) >= g.Rules.MaxPlayers {
			return newError(KindCapacityExceeded, "game %s is full (%d players)", g.ID, g.Rules.MaxPlayers)
		}
		if name == "" {
			name = GeneratePlayerName()
		}
		g.Players = append(g.Players, &models.Player{
			ID:        playerID,
			Name:      name,
			Connected: true,
			JoinedAt:  time.Now(),
		})
		log.WithFields(log.Fields{"game": g.ID, "player": playerID}).Infof("%s joined (%d/%d)", name, len(g.Players), g.Rules.MaxPlayers)
		g.logAction(playerID, "player_join", map[string]interface{}{"name": name, "seat": len(g.Players) - 1})
		g.pushState(out)
		return nil
	})
}

// Reconnect rebinds an existing seat.
func (g *GameSession) Reconnect(playerID string) error {
	return g.mutate(func(out *outbox) error {
		p := g.getPlayerByID(playerID)
		if p == nil {
			return newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
		}
		g.reconnect(p, out)
		return nil
	})
}

// Assumes lock is held.
func (g *GameSession) reconnect(p *models.Player, out *outbox) {
	if !p.Connected {
		log.WithFields(log.Fields{"game": g.ID, "player": p.ID}).Info("player reconnected")
		g.logAction(p.ID, "player_reconnect", nil)
	}
	p.Connected = true
	g.pushState(out)
}

// Start deals the first round. Any seated player may start a waiting table
// once it has between MinPlayers and MaxPlayers seats.
func (g *GameSession) Start(requesterID string) error {
	return g.mutate(func(out *outbox) error {
		if g.getPlayerByID(requesterID) == nil {
			return newError(KindNotFound, "player %s is not in game %s", requesterID, g.ID)
		}
		if g.Phase != PhaseWaiting {
			return newError(KindInvalidPhase, "game %s has already started", g.ID)
		}
		n := len(g.Players)
		if n < g.Rules.MinPlayers || n > g.Rules.MaxPlayers {
			return newError(KindCapacityExceeded, "need %d-%d players to start, have %d", g.Rules.MinPlayers, g.Rules.MaxPlayers, n)
		}
		handSize, err := g.Rules.handSize(n)
		if err != nil {
			return newError(KindCapacityExceeded, "%v", err)
		}
		deck := g.DeckFn(g.rng)
		if need := n * handSize * g.Rules.Rounds; len(deck) < need {
			return newError(KindCapacityExceeded, "deck has %d cards, %d players need %d", len(deck), n, need)
		}

		g.deck = deck
		g.handSize = handSize
		log.WithFields(log.Fields{"game": g.ID, "player": requesterID}).Infof("starting with %d players, hand size %d", n, handSize)
		g.logAction(requesterID, "game_start", map[string]interface{}{"players": n, "handSize": handSize, "rounds": g.Rules.Rounds})
		g.beginRound(out)
		return nil
	})
}

// SelectCard records a player's secret pick for the current turn. The turn
// resolves as soon as every seat has picked.
func (g *GameSession) SelectCard(playerID string, req SelectCardRequest) error {
	return g.mutate(func(out *outbox) error {
		p := g.getPlayerByID(playerID)
		if p == nil {
			return newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
		}
		if g.Phase != PhaseSelecting {
			return newError(KindInvalidPhase, "cannot select a card while %s", g.Phase)
		}
		if p.Pending != nil {
			return newError(KindAlreadySelected, "already selected a card this turn")
		}
		if req.CardIndex < 0 || req.CardIndex >= len(p.Hand) {
			return newError(KindInvalidSelection, "card index %d out of range (hand has %d)", req.CardIndex, len(p.Hand))
		}

		sel := &models.Selection{Primary: req.CardIndex}
		if req.UseChopsticks {
			if !p.HasChopsticks() {
				return newError(KindInvalidSelection, "no chopsticks in collection")
			}
			if req.SecondCardIndex == nil {
				return newError(KindInvalidSelection, "chopsticks need a second card index")
			}
			second := *req.SecondCardIndex
			if second < 0 || second >= len(p.Hand) {
				return newError(KindInvalidSelection, "second card index %d out of range (hand has %d)", second, len(p.Hand))
			}
			if second == req.CardIndex {
				return newError(KindInvalidSelection, "cannot select the same card twice")
			}
			sel.Secondary = &second
		} else if req.SecondCardIndex != nil {
			return newError(KindInvalidSelection, "second card index given without chopsticks")
		}

		p.Pending = sel
		g.logAction(playerID, "select_card", map[string]interface{}{"turn": g.Turn, "cards": sel.Count()})
		if g.allSelected() {
			g.resolveTurn(out)
		} else {
			g.pushState(out)
		}
		return nil
	})
}

// WithdrawCard takes back a pick before the turn resolves.
func (g *GameSession) WithdrawCard(playerID string) error {
	return g.mutate(func(out *outbox) error {
		p := g.getPlayerByID(playerID)
		if p == nil {
			return newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
		}
		if g.Phase != PhaseSelecting || p.Pending == nil {
			return newError(KindInvalidPhase, "nothing to withdraw")
		}
		p.Pending = nil
		g.logAction(playerID, "withdraw_card", map[string]interface{}{"turn": g.Turn})
		g.pushState(out)
		return nil
	})
}

// RemovePlayer frees a seat. Seats are only removable before the game starts.
func (g *GameSession) RemovePlayer(playerID string) error {
	return g.mutate(func(out *outbox) error {
		if g.getPlayerByID(playerID) == nil {
			return newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
		}
		if g.Phase != PhaseWaiting {
			return newError(KindInvalidPhase, "players can only leave before the game starts")
		}
		g.removeSeat(playerID, "player_leave", out)
		return nil
	})
}

// Kick removes targetID on behalf of another seated player.
func (g *GameSession) Kick(requesterID, targetID string) error {
	return g.mutate(func(out *outbox) error {
		if g.getPlayerByID(requesterID) == nil {
			return newError(KindNotFound, "player %s is not in game %s", requesterID, g.ID)
		}
		if g.Phase != PhaseWaiting {
			return newError(KindInvalidPhase, "players can only be kicked before the game starts")
		}
		if g.getPlayerByID(targetID) == nil {
			return newError(KindNotFound, "player %s is not in game %s", targetID, g.ID)
		}
		out.toPlayer(targetID, GameEvent{Type: EventPlayerKicked, Payload: PlayerKickedPayload{
			GameID:   g.ID,
			PlayerID: targetID,
			KickedBy: requesterID,
		}})
		g.removeSeat(targetID, "player_kicked", out)
		return nil
	})
}

// Disconnect handles a dropped connection. While waiting the seat is freed.
// After the start the seat stays in the rotation with its pick withdrawn, and
// the table waits for the player to come back.
func (g *GameSession) Disconnect(playerID string) error {
	return g.mutate(func(out *outbox) error {
		p := g.getPlayerByID(playerID)
		if p == nil {
			return newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
		}
		if g.Phase == PhaseWaiting {
			g.removeSeat(playerID, "player_disconnect", out)
			return nil
		}
		if !p.Connected {
			return nil
		}
		p.Connected = false
		withdrawn := p.Pending != nil
		p.Pending = nil
		log.WithFields(log.Fields{"game": g.ID, "player": playerID}).Infof("player disconnected (withdrawn=%v)", withdrawn)
		g.logAction(playerID, "player_disconnect", map[string]interface{}{"withdrawn": withdrawn})
		if g.Phase == PhaseGameEnd && g.connectedCount() == 0 {
			out.empty = true
		}
		g.pushState(out)
		return nil
	})
}

// Result returns the final result once the game has ended.
func (g *GameSession) Result() (GameResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.result == nil {
		return GameResult{}, false
	}
	return *g.result, true
}

// HasPlayer reports whether playerID holds a seat.
func (g *GameSession) HasPlayer(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getPlayerByID(playerID) != nil
}

// ConnectedCount returns how many seated players are connected.
func (g *GameSession) ConnectedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectedCount()
}

// closeForDelete checks that requesterID may delete the table and closes it
// in the same critical section, so nobody can join or reconnect between the
// check and the removal. Members may always delete; anyone may delete a table
// with nobody connected.
func (g *GameSession) closeForDelete(requesterID string) error {
	return g.mutate(func(out *outbox) error {
		if g.getPlayerByID(requesterID) == nil && g.connectedCount() > 0 {
			return newError(KindInvalidPhase, "game %s has connected players", g.ID)
		}
		g.deleted = true
		g.logAction(requesterID, "game_deleted", nil)
		out.broadcast(GameEvent{Type: EventGameDeleted, Payload: GameDeletedPayload{GameID: g.ID}})
		return nil
	})
}

// removeSeat drops a player from a waiting table.
// Assumes lock is held.
func (g *GameSession) removeSeat(playerID, action string, out *outbox) {
	for i, p := range g.Players {
		if p.ID == playerID {
			g.Players = append(g.Players[:i:i], g.Players[i+1:]...)
			break
		}
	}
	log.WithFields(log.Fields{"game": g.ID, "player": playerID}).Infof("%s (%d left)", action, len(g.Players))
	g.logAction(playerID, action, nil)
	if len(g.Players) == 0 {
		out.empty = true
	}
	g.pushState(out)
}

// Assumes lock is held.
func (g *GameSession) allSelected() bool {
	for _, p := range g.Players {
		if p.Pending == nil {
			return false
		}
	}
	return len(g.Players) > 0
}

// Assumes lock is held.
func (g *GameSession) connectedCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// getPlayerByID is a helper to find a seat by player id.
// Assumes lock is held by caller.
func (g *GameSession) getPlayerByID(playerID string) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// mutate runs fn under the state lock and dispatches whatever it queued once
// the lock is released. A failing fn must not have changed anything; its
// queued events are dropped.
func (g *GameSession) mutate(fn func(out *outbox) error) error {
	out := &outbox{}
	g.mu.Lock()
	if g.deleted {
		g.mu.Unlock()
		return newError(KindNotFound, "game %s was deleted", g.ID)
	}
	if err := fn(out); err != nil {
		g.mu.Unlock()
		return err
	}
	g.sendMu.Lock()
	g.mu.Unlock()
	defer g.sendMu.Unlock()
	g.dispatch(out)
	return nil
}

// dispatch hands queued events to the transport hooks.
// Assumes sendMu is held and mu is not.
func (g *GameSession) dispatch(out *outbox) {
	for _, e := range out.events {
		if e.playerID == "" {
			if g.BroadcastFn != nil {
				g.BroadcastFn(e.ev)
			}
			continue
		}
		if g.BroadcastToPlayerFn != nil {
			g.BroadcastToPlayerFn(e.playerID, e.ev)
		}
	}
	if out.result != nil && g.OnGameEnd != nil {
		g.OnGameEnd(*out.result)
	}
	if out.empty && g.OnEmpty != nil {
		g.OnEmpty(g.ID)
	}
}
