// internal/game/sync_state.go
package game

import (
	"github.com/bstee615/go-sushi/internal/models"
)

// PlayerState is everything the table may know about one seat. Hand contents
// are never part of it.
type PlayerState struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Seat         int           `json:"seat"`
	Connected    bool          `json:"connected"`
	HandSize     int           `json:"handSize"`
	Collection   []models.Card `json:"collection"`
	PuddingCount int           `json:"puddingCount"`
	Score        int           `json:"score"`
	RoundScores  []int         `json:"roundScores"`
	HasSelected  bool          `json:"hasSelected"`
}

// GameState is the broadcast-safe view of a session.
type GameState struct {
	GameID         string        `json:"gameId"`
	Phase          Phase         `json:"phase"`
	CurrentRound   int           `json:"currentRound"`
	TotalRounds    int           `json:"totalRounds"`
	Turn           int           `json:"turn"`
	TurnsRemaining int           `json:"turnsRemaining"`
	Version        int           `json:"version"`
	Players        []PlayerState `json:"players"`
}

// PrivateGameState is the view sent to a single player: the broadcast view
// plus that player's own hand and selection.
type PrivateGameState struct {
	GameState
	MyPlayerID             string            `json:"myPlayerId"`
	MyHand                 []models.Card     `json:"myHand"`
	HasChopsticksAvailable bool              `json:"hasChopsticksAvailable"`
	PendingSelection       *models.Selection `json:"pendingSelection,omitempty"`
}

// BroadcastView returns the public view of the session.
func (g *GameSession) BroadcastView() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildGameState()
}

// PrivateView returns the view for one seated player.
func (g *GameSession) PrivateView(playerID string) (PrivateGameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.getPlayerByID(playerID)
	if p == nil {
		return PrivateGameState{}, newError(KindNotFound, "player %s is not in game %s", playerID, g.ID)
	}
	return g.buildPrivateState(p, g.buildGameState()), nil
}

// buildGameState deep-copies the public parts of the session so the result
// can leave the lock.
// Assumes lock is held.
func (g *GameSession) buildGameState() GameState {
	st := GameState{
		GameID:         g.ID,
		Phase:          g.Phase,
		CurrentRound:   g.CurrentRound,
		TotalRounds:    g.Rules.Rounds,
		Turn:           g.Turn,
		TurnsRemaining: g.TurnsRemaining,
		Version:        g.version,
		Players:        make([]PlayerState, 0, len(g.Players)),
	}
	for seat, p := range g.Players {
		st.Players = append(st.Players, PlayerState{
			ID:           p.ID,
			Name:         p.Name,
			Seat:         seat,
			Connected:    p.Connected,
			HandSize:     len(p.Hand),
			Collection:   cardsOrEmpty(p.Collection),
			PuddingCount: p.PuddingCount(),
			Score:        p.TotalScore,
			RoundScores:  intsOrEmpty(p.RoundScores),
			HasSelected:  p.HasSelected(),
		})
	}
	return st
}

// buildPrivateState layers one player's secrets over a broadcast snapshot.
// Assumes lock is held.
func (g *GameSession) buildPrivateState(p *models.Player, base GameState) PrivateGameState {
	ps := PrivateGameState{
		GameState:              base,
		MyPlayerID:             p.ID,
		MyHand:                 cardsOrEmpty(p.Hand),
		HasChopsticksAvailable: p.HasChopsticks(),
	}
	if p.Pending != nil {
		sel := models.Selection{Primary: p.Pending.Primary}
		if p.Pending.Secondary != nil {
			second := *p.Pending.Secondary
			sel.Secondary = &second
		}
		ps.PendingSelection = &sel
	}
	return ps
}

// pushState bumps the version and queues a private game_state for every
// connected seat.
// Assumes lock is held.
func (g *GameSession) pushState(out *outbox) {
	g.version++
	base := g.buildGameState()
	for _, p := range g.Players {
		if !p.Connected {
			continue
		}
		out.toPlayer(p.ID, GameEvent{Type: EventGameState, Payload: g.buildPrivateState(p, base)})
	}
}

func cardsOrEmpty(cards []models.Card) []models.Card {
	if len(cards) == 0 {
		return []models.Card{}
	}
	return models.CloneCards(cards)
}

func intsOrEmpty(v []int) []int {
	out := make([]int, len(v))
	copy(out, v)
	return out
}
