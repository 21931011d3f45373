// internal/game/game_store.go
package game

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxIDAttempts bounds how often a memorable id is redrawn before falling
// back to a random suffix.
const maxIDAttempts = 50

// GameSummary is one row of the game list.
type GameSummary struct {
	ID           string    `json:"id"`
	Phase        Phase     `json:"phase"`
	PlayerCount  int       `json:"playerCount"`
	MaxPlayers   int       `json:"maxPlayers"`
	CurrentRound int       `json:"currentRound"`
	TotalRounds  int       `json:"totalRounds"`
	PlayerNames  []string  `json:"playerNames"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GameStore is the process-wide registry of live sessions. It never holds its
// own lock while calling into a session.
type GameStore struct {
	mu    sync.Mutex
	games map[string]*GameSession
	rules Rules

	// Hooks copied onto every session the store creates. Set them before
	// the store is shared.
	BroadcastFn         func(gameID string, ev GameEvent)
	BroadcastToPlayerFn func(gameID, playerID string, ev GameEvent)
	OnGameEnd           func(result GameResult)
	OnListChanged       func()

	newID func() string
}

// NewGameStore creates an empty registry whose sessions use rules.
func NewGameStore(rules Rules) *GameStore {
	return &GameStore{
		games: make(map[string]*GameSession),
		rules: rules,
		newID: GenerateGameID,
	}
}

// CreateOrJoin seats playerID in targetGameID, or in a new game when
// targetGameID is empty.
func (s *GameStore) CreateOrJoin(playerID, name, targetGameID string) (*GameSession, error) {
	if targetGameID != "" {
		g, ok := s.Get(targetGameID)
		if !ok {
			return nil, newError(KindNotFound, "game %s not found", targetGameID)
		}
		if err := g.Join(playerID, name); err != nil {
			return nil, err
		}
		return g, nil
	}

	g := s.create()
	if err := g.Join(playerID, name); err != nil {
		s.remove(g.ID)
		return nil, err
	}
	s.listChanged()
	return g, nil
}

// Get looks up a live session.
func (s *GameStore) Get(gameID string) (*GameSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	return g, ok
}

// List returns a summary of every live session, oldest first.
func (s *GameStore) List() []GameSummary {
	s.mu.Lock()
	sessions := make([]*GameSession, 0, len(s.games))
	for _, g := range s.games {
		sessions = append(sessions, g)
	}
	s.mu.Unlock()

	out := make([]GameSummary, 0, len(sessions))
	for _, g := range sessions {
		out = append(out, g.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DeleteGame drops a session on request. Members may always delete their
// table; anyone may delete a table with nobody connected.
func (s *GameStore) DeleteGame(requesterID, gameID string) error {
	g, ok := s.Get(gameID)
	if !ok {
		return newError(KindNotFound, "game %s not found", gameID)
	}
	if err := g.closeForDelete(requesterID); err != nil {
		return err
	}
	s.removeSession(g)
	log.WithFields(log.Fields{"game": gameID, "player": requesterID}).Info("game deleted")
	s.listChanged()
	return nil
}

// Len returns the number of live sessions.
func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

func (s *GameStore) create() *GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.uniqueID()
	g := NewGameSession(id, s.rules)
	g.BroadcastFn = func(ev GameEvent) {
		if s.BroadcastFn != nil {
			s.BroadcastFn(id, ev)
		}
	}
	g.BroadcastToPlayerFn = func(playerID string, ev GameEvent) {
		if s.BroadcastToPlayerFn != nil {
			s.BroadcastToPlayerFn(id, playerID, ev)
		}
	}
	g.OnGameEnd = func(result GameResult) {
		if s.OnGameEnd != nil {
			s.OnGameEnd(result)
		}
	}
	g.OnEmpty = func(gameID string) {
		if s.remove(gameID) {
			log.WithField("game", gameID).Info("empty game removed")
			s.listChanged()
		}
	}
	s.games[id] = g
	log.WithField("game", id).Info("game created")
	return g
}

// Assumes lock is held.
func (s *GameStore) uniqueID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if _, taken := s.games[id]; !taken {
			return id
		}
	}
	return s.newID() + "-" + uuid.NewString()[:8]
}

func (s *GameStore) remove(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return false
	}
	delete(s.games, gameID)
	return true
}

// removeSession drops g only if the registry still maps its id to it.
func (s *GameStore) removeSession(g *GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.games[g.ID] == g {
		delete(s.games, g.ID)
	}
}

func (s *GameStore) listChanged() {
	if s.OnListChanged != nil {
		s.OnListChanged()
	}
}

// Summary describes the session for the game list.
func (g *GameSession) Summary() GameSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Name)
	}
	return GameSummary{
		ID:           g.ID,
		Phase:        g.Phase,
		PlayerCount:  len(g.Players),
		MaxPlayers:   g.Rules.MaxPlayers,
		CurrentRound: g.CurrentRound,
		TotalRounds:  g.Rules.Rounds,
		PlayerNames:  names,
		CreatedAt:    g.CreatedAt,
	}
}
