package scoring

import (
	"testing"

	"github.com/bstee615/go-sushi/internal/models"
	"github.com/stretchr/testify/assert"
)

func repeat(kind models.CardKind, n int) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{Kind: kind}
	}
	return cards
}

func nigiri(value int) models.Card {
	return models.Card{Kind: models.KindNigiri, Value: value}
}

func maki(icons int) models.Card {
	return models.Card{Kind: models.KindMakiRoll, Value: icons}
}

var wasabi = models.Card{Kind: models.KindWasabi}

func TestTempura(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 5, 3: 5, 4: 10, 5: 10}
	for count, want := range cases {
		assert.Equal(t, want, Tempura(repeat(models.KindTempura, count)), "tempura x%d", count)
	}
}

func TestSashimi(t *testing.T) {
	cases := map[int]int{0: 0, 2: 0, 3: 10, 5: 10, 6: 20}
	for count, want := range cases {
		assert.Equal(t, want, Sashimi(repeat(models.KindSashimi, count)), "sashimi x%d", count)
	}
}

func TestDumplings(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 3, 3: 6, 4: 10, 5: 15, 7: 15}
	for count, want := range cases {
		assert.Equal(t, want, Dumplings(repeat(models.KindDumpling, count)), "dumpling x%d", count)
	}
}

func TestNigiriWasabiOrder(t *testing.T) {
	tests := []struct {
		name  string
		cards []models.Card
		want  int
	}{
		{"wasabi triples first nigiri only", []models.Card{wasabi, nigiri(2), nigiri(1)}, 7},
		{"nigiri before wasabi is not tripled", []models.Card{nigiri(3), wasabi}, 3},
		{"two wasabi two nigiri", []models.Card{wasabi, wasabi, nigiri(3), nigiri(2)}, 15},
		{"interleaved", []models.Card{nigiri(1), wasabi, nigiri(3), nigiri(2), wasabi}, 1 + 9 + 2},
		{"wasabi alone scores nothing", []models.Card{wasabi, wasabi}, 0},
		{"ignores other kinds", []models.Card{wasabi, {Kind: models.KindTempura}, nigiri(1)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Nigiri(tt.cards))
		})
	}
}

func TestMakiAwards(t *testing.T) {
	tests := []struct {
		name   string
		totals []int
		want   []int
	}{
		{"clear first and second", []int{5, 2, 1}, []int{6, 3, 0}},
		{"tie for first splits six, no second", []int{6, 6, 3}, []int{3, 3, 0}},
		{"three-way tie for first discards remainder", []int{4, 4, 4, 1}, []int{2, 2, 2, 0}},
		{"tie for second splits three, remainder discarded", []int{3, 2, 2}, []int{6, 1, 1}},
		{"nobody has maki", []int{0, 0}, []int{0, 0}},
		{"zero never takes second", []int{2, 0, 0}, []int{6, 0, 0}},
		{"five-way first tie", []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakiAwards(tt.totals))
		})
	}
}

func TestPuddingAwards(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   []int
	}{
		{"most and fewest", []int{3, 1, 0}, []int{6, 0, -6}},
		{"two players no penalty", []int{0, 2}, []int{0, 6}},
		{"everyone equal", []int{2, 2, 2}, []int{0, 0, 0}},
		{"tied most", []int{3, 3, 1}, []int{3, 3, -6}},
		{"tied fewest rounds toward zero", []int{4, 0, 0, 0, 0}, []int{6, -1, -1, -1, -1}},
		{"two players tied", []int{1, 1}, []int{3, 3}},
		{"two players tied high", []int{2, 2}, []int{3, 3}},
		{"nobody has pudding", []int{0, 0, 0}, []int{0, 0, 0}},
		{"two players without pudding", []int{0, 0}, []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PuddingAwards(tt.counts))
		})
	}
}

func TestRoundBreakdown(t *testing.T) {
	alice := []models.Card{
		{Kind: models.KindTempura}, {Kind: models.KindTempura},
		{Kind: models.KindSashimi}, {Kind: models.KindSashimi}, {Kind: models.KindSashimi},
		{Kind: models.KindDumpling}, {Kind: models.KindDumpling},
		wasabi, nigiri(1),
		maki(3),
		{Kind: models.KindChopsticks}, {Kind: models.KindPudding},
	}
	bob := []models.Card{maki(1), maki(1)}

	got := Round([][]models.Card{alice, bob})

	assert.Equal(t, Breakdown{Tempura: 5, Sashimi: 10, Dumpling: 3, Nigiri: 3, Maki: 6}, got[0])
	assert.Equal(t, 27, got[0].Total())
	assert.Equal(t, Breakdown{Maki: 3}, got[1])
}

func TestRoundIsIdempotent(t *testing.T) {
	cards := [][]models.Card{
		{wasabi, nigiri(3), maki(2), {Kind: models.KindTempura}},
		{maki(2), nigiri(2), {Kind: models.KindDumpling}},
	}
	first := Round(cards)
	second := Round(cards)
	assert.Equal(t, first, second)
	assert.Equal(t, models.KindWasabi, cards[0][0].Kind, "scoring must not reorder the collection")
}

func TestEmptyCollectionScoresZero(t *testing.T) {
	got := Round([][]models.Card{nil, {}})
	assert.Equal(t, 0, got[0].Total())
	assert.Equal(t, 0, got[1].Total())
}
