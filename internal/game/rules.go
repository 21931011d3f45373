// internal/game/rules.go
package game

import "fmt"

// Rules are the table settings a session is created with. They are fixed once
// the session exists.
type Rules struct {
	MinPlayers int   `json:"minPlayers" yaml:"min_players"`
	MaxPlayers int   `json:"maxPlayers" yaml:"max_players"`
	Rounds     int   `json:"rounds" yaml:"rounds"`
	HandSize   int   `json:"handSize" yaml:"hand_size"` // 0 picks the size from the player count
	Seed       int64 `json:"-" yaml:"seed"`             // 0 seeds from the clock; otherwise mixed with each game id
}

// DefaultRules returns the standard three-round, two-to-five player table.
func DefaultRules() Rules {
	return Rules{
		MinPlayers: 2,
		MaxPlayers: 5,
		Rounds:     3,
	}
}

// Validate rejects settings the engine cannot run with.
func (r Rules) Validate() error {
	if r.MinPlayers < 2 {
		return fmt.Errorf("min_players must be at least 2, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("max_players (%d) must not be below min_players (%d)", r.MaxPlayers, r.MinPlayers)
	}
	if r.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", r.Rounds)
	}
	if r.HandSize < 0 {
		return fmt.Errorf("hand_size must be non-negative, got %d", r.HandSize)
	}
	if r.HandSize == 0 {
		for n := r.MinPlayers; n <= r.MaxPlayers; n++ {
			if _, err := HandSizeFor(n); err != nil {
				return fmt.Errorf("hand_size must be set for tables of %d: %w", n, err)
			}
		}
	}
	return nil
}

// handSize is the number of cards each seat is dealt per round.
func (r Rules) handSize(players int) (int, error) {
	if r.HandSize > 0 {
		return r.HandSize, nil
	}
	return HandSizeFor(players)
}
