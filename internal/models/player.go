package models

import "time"

// Selection is a player's secret pick for the current turn. Secondary is only
// set when chopsticks are used.
type Selection struct {
	Primary   int  `json:"primaryIndex"`
	Secondary *int `json:"secondaryIndex,omitempty"`
}

// Count returns how many cards the selection takes from the hand.
func (s Selection) Count() int {
	if s.Secondary != nil {
		return 2
	}
	return 1
}

// Player is the per-seat record of a game session. It is owned by exactly one
// session and only mutated under that session's lock.
type Player struct {
	ID        string
	Name      string
	Connected bool
	JoinedAt  time.Time

	Hand       []Card
	Collection []Card // chronological; wasabi/nigiri pairing depends on order
	Puddings   []Card // puddings banked at the end of each round

	RoundScores  []int
	PuddingScore int
	TotalScore   int

	Pending *Selection
}

// HasChopsticks reports whether a chopsticks card sits in the collection.
// Chopsticks are a capability, not inventory: using them does not consume the card.
func (p *Player) HasChopsticks() bool {
	return CountKind(p.Collection, KindChopsticks) > 0
}

// HasSelected reports whether the player locked in a card this turn.
func (p *Player) HasSelected() bool {
	return p.Pending != nil
}

// PuddingCount counts banked puddings plus any collected this round.
func (p *Player) PuddingCount() int {
	return len(p.Puddings) + CountKind(p.Collection, KindPudding)
}
