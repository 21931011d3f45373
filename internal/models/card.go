// internal/models/card.go
package models

import "fmt"

// CardKind identifies what a card is for scoring purposes.
type CardKind string

const (
	KindMakiRoll   CardKind = "maki_roll"
	KindTempura    CardKind = "tempura"
	KindSashimi    CardKind = "sashimi"
	KindDumpling   CardKind = "dumpling"
	KindNigiri     CardKind = "nigiri"
	KindWasabi     CardKind = "wasabi"
	KindChopsticks CardKind = "chopsticks"
	KindPudding    CardKind = "pudding"
)

// Nigiri variants.
const (
	VariantSquid  = "Squid"
	VariantSalmon = "Salmon"
	VariantEgg    = "Egg"
)

// Card is a single dealt card. Cards are values and never change once dealt.
// Value carries maki icons for maki rolls and base points for nigiri.
type Card struct {
	ID      string   `json:"id"`
	Kind    CardKind `json:"kind"`
	Variant string   `json:"variant,omitempty"`
	Value   int      `json:"value,omitempty"`
}

func (c Card) String() string {
	switch {
	case c.Variant != "":
		return fmt.Sprintf("%s(%s)", c.Kind, c.Variant)
	case c.Value != 0:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Value)
	default:
		return string(c.Kind)
	}
}

// CountKind returns how many cards of the given kind are in cards.
func CountKind(cards []Card, kind CardKind) int {
	n := 0
	for _, c := range cards {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// CloneCards returns an independent copy of cards; nil stays nil.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
