// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/bstee615/go-sushi/internal/models"
)

// deckEntry is one row of the deck composition table.
type deckEntry struct {
	kind    models.CardKind
	variant string
	value   int
	count   int
}

var deckComposition = []deckEntry{
	{kind: models.KindMakiRoll, value: 1, count: 6},
	{kind: models.KindMakiRoll, value: 2, count: 12},
	{kind: models.KindMakiRoll, value: 3, count: 8},
	{kind: models.KindTempura, count: 14},
	{kind: models.KindSashimi, count: 14},
	{kind: models.KindDumpling, count: 14},
	{kind: models.KindNigiri, variant: models.VariantSquid, value: 3, count: 5},
	{kind: models.KindNigiri, variant: models.VariantSalmon, value: 2, count: 10},
	{kind: models.KindNigiri, variant: models.VariantEgg, value: 1, count: 5},
	{kind: models.KindWasabi, count: 6},
	{kind: models.KindChopsticks, count: 4},
	{kind: models.KindPudding, count: 10},
}

// handSizes maps player count to cards dealt per round.
var handSizes = map[int]int{2: 10, 3: 9, 4: 8, 5: 7}

// DeckSize is the number of cards in a full deck.
func DeckSize() int {
	n := 0
	for _, e := range deckComposition {
		n += e.count
	}
	return n
}

// NewDeck builds an unshuffled deck in composition-table order. Card ids are
// stable within a deck, e.g. "maki_0" or "nigiri_squid_2".
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize())
	seen := make(map[string]int)
	for _, e := range deckComposition {
		prefix := string(e.kind)
		if e.kind == models.KindMakiRoll {
			prefix = "maki"
		}
		if e.variant != "" {
			prefix += "_" + strings.ToLower(e.variant)
		}
		for i := 0; i < e.count; i++ {
			deck = append(deck, models.Card{
				ID:      fmt.Sprintf("%s_%d", prefix, seen[prefix]),
				Kind:    e.kind,
				Variant: e.variant,
				Value:   e.value,
			})
			seen[prefix]++
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of deck drawn from r.
func ShuffleDeck(deck []models.Card, r *rand.Rand) []models.Card {
	shuffled := models.CloneCards(deck)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// ShuffledDeck is the default deck source for a session: a full deck shuffled once.
func ShuffledDeck(r *rand.Rand) []models.Card {
	return ShuffleDeck(NewDeck(), r)
}

// HandSizeFor returns the standard hand size for a table of the given size.
func HandSizeFor(players int) (int, error) {
	size, ok := handSizes[players]
	if !ok {
		return 0, fmt.Errorf("no standard hand size for %d players", players)
	}
	return size, nil
}
