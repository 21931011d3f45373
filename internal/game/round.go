// internal/game/round.go
package game

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/models"
	"github.com/bstee615/go-sushi/internal/scoring"
)

// beginRound deals a fresh hand to every seat from the remaining deck and
// opens the first selection window of the round.
// Assumes lock is held.
func (g *GameSession) beginRound(out *outbox) {
	g.CurrentRound++
	g.Turn = 1
	for _, p := range g.Players {
		p.Hand = models.CloneCards(g.deck[:g.handSize])
		g.deck = g.deck[g.handSize:]
		p.Collection = nil
		p.Pending = nil
	}
	g.TurnsRemaining = g.handSize
	g.Phase = PhaseSelecting

	log.WithField("game", g.ID).Infof("round %d/%d dealt, %d cards left in deck", g.CurrentRound, g.Rules.Rounds, len(g.deck))
	g.logAction("", "round_start", map[string]interface{}{
		"round":         g.CurrentRound,
		"handSize":      g.handSize,
		"deckRemaining": len(g.deck),
	})
	g.pushState(out)
}

// resolveTurn moves every pick into its owner's collection, reveals them,
// passes the hands on and then either reopens selection or scores the round.
// Only called once every seat has a pending selection.
// Assumes lock is held.
func (g *GameSession) resolveTurn(out *outbox) {
	reveals := make([]Reveal, 0, len(g.Players))
	for _, p := range g.Players {
		sel := *p.Pending
		picked := []models.Card{p.Hand[sel.Primary]}
		high, low := sel.Primary, -1
		if sel.Secondary != nil {
			picked = append(picked, p.Hand[*sel.Secondary])
			low = *sel.Secondary
			if low > high {
				high, low = low, high
			}
		}
		p.Hand = removeIndex(p.Hand, high)
		if low >= 0 {
			p.Hand = removeIndex(p.Hand, low)
		}
		p.Collection = append(p.Collection, picked...)
		p.Pending = nil
		reveals = append(reveals, Reveal{
			PlayerID:       p.ID,
			Cards:          picked,
			UsedChopsticks: sel.Secondary != nil,
		})
	}

	g.Phase = PhaseRevealing
	out.broadcast(GameEvent{Type: EventCardsRevealed, Payload: CardsRevealedPayload{
		Round:   g.CurrentRound,
		Turn:    g.Turn,
		Reveals: reveals,
	}})
	g.logAction("", string(EventCardsRevealed), map[string]interface{}{"round": g.CurrentRound, "turn": g.Turn, "reveals": revealIDs(reveals)})
	g.pushState(out)

	g.rotateHands()
	g.TurnsRemaining = g.shortestHand()
	if g.TurnsRemaining > 0 {
		g.Turn++
		g.Phase = PhaseSelecting
		g.pushState(out)
		return
	}
	g.scoreRound(out)
}

// rotateHands passes every remaining hand one seat along: seat i receives the
// hand seat i-1 held.
// Assumes lock is held.
func (g *GameSession) rotateHands() {
	n := len(g.Players)
	hands := make([][]models.Card, n)
	for i, p := range g.Players {
		hands[(i+1)%n] = p.Hand
	}
	for i, p := range g.Players {
		p.Hand = hands[i]
	}
}

// shortestHand bounds the turns left: a seat whose owner used chopsticks
// runs dry early, and every seat must hold a card while selecting.
// Assumes lock is held.
func (g *GameSession) shortestHand() int {
	if len(g.Players) == 0 {
		return 0
	}
	shortest := len(g.Players[0].Hand)
	for _, p := range g.Players[1:] {
		if len(p.Hand) < shortest {
			shortest = len(p.Hand)
		}
	}
	return shortest
}

// scoreRound scores every collection, banks puddings and clears the table,
// then deals the next round or finishes the game.
// Assumes lock is held.
func (g *GameSession) scoreRound(out *outbox) {
	g.Phase = PhaseRoundEnd

	collections := make([][]models.Card, len(g.Players))
	for i, p := range g.Players {
		collections[i] = p.Collection
	}
	breakdowns := scoring.Round(collections)

	scores := make([]RoundScore, 0, len(g.Players))
	totals := make(map[string]int, len(g.Players))
	for i, p := range g.Players {
		points := breakdowns[i].Total()
		p.RoundScores = append(p.RoundScores, points)
		p.TotalScore += points
		for _, c := range p.Collection {
			if c.Kind == models.KindPudding {
				p.Puddings = append(p.Puddings, c)
			}
		}
		p.Collection = nil
		p.Hand = nil // leftovers from uneven chopsticks use are discarded
		scores = append(scores, RoundScore{
			PlayerID:   p.ID,
			Name:       p.Name,
			Breakdown:  breakdowns[i],
			RoundTotal: points,
			TotalScore: p.TotalScore,
		})
		totals[p.ID] = points
	}
	g.TurnsRemaining = 0

	out.broadcast(GameEvent{Type: EventRoundEnd, Payload: RoundEndPayload{Round: g.CurrentRound, Scores: scores}})
	log.WithField("game", g.ID).Infof("round %d scored: %v", g.CurrentRound, totals)
	g.logAction("", string(EventRoundEnd), map[string]interface{}{"round": g.CurrentRound, "scores": totals})

	if g.CurrentRound >= g.Rules.Rounds {
		g.scoreGame(out)
		return
	}
	g.beginRound(out)
}

// scoreGame applies the pudding awards, ranks the table and ends the game.
// Assumes lock is held.
func (g *GameSession) scoreGame(out *outbox) {
	counts := make([]int, len(g.Players))
	for i, p := range g.Players {
		counts[i] = len(p.Puddings)
	}
	awards := scoring.PuddingAwards(counts)
	for i, p := range g.Players {
		p.PuddingScore = awards[i]
		p.TotalScore += awards[i]
	}

	result := GameResult{
		GameID:      g.ID,
		FinalScores: make(map[string]int, len(g.Players)),
		Rankings:    g.rankings(),
	}
	for _, p := range g.Players {
		result.FinalScores[p.ID] = p.TotalScore
	}
	if len(result.Rankings) > 0 {
		result.Winner = result.Rankings[0].PlayerID
	}

	g.Phase = PhaseGameEnd
	g.result = &result
	out.result = &result
	out.broadcast(GameEvent{Type: EventGameEnd, Payload: result})
	log.WithField("game", g.ID).Infof("game over, winner %s: %v", result.Winner, result.FinalScores)
	g.logAction("", string(EventGameEnd), map[string]interface{}{
		"finalScores": result.FinalScores,
		"rankings":    result.Rankings,
		"winner":      result.Winner,
	})
	g.pushState(out)
}

// rankings orders seats by total score, then pudding count, then seat.
// Seats equal on both score and puddings share a rank.
// Assumes lock is held.
func (g *GameSession) rankings() []FinalScore {
	ranked := make([]FinalScore, 0, len(g.Players))
	for seat, p := range g.Players {
		ranked = append(ranked, FinalScore{
			PlayerID:     p.ID,
			Name:         p.Name,
			Seat:         seat,
			RoundScores:  intsOrEmpty(p.RoundScores),
			PuddingCount: len(p.Puddings),
			PuddingScore: p.PuddingScore,
			TotalScore:   p.TotalScore,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.PuddingCount != b.PuddingCount {
			return a.PuddingCount > b.PuddingCount
		}
		return a.Seat < b.Seat
	})
	for i := range ranked {
		if i > 0 && ranked[i].TotalScore == ranked[i-1].TotalScore && ranked[i].PuddingCount == ranked[i-1].PuddingCount {
			ranked[i].Rank = ranked[i-1].Rank
		} else {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}
