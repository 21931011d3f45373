// Package scoring holds the pure scoring rules. Nothing here touches session
// state; callers pass collections in and get points back.
package scoring

import "github.com/bstee615/go-sushi/internal/models"

const (
	TempuraSetSize   = 2
	TempuraSetPoints = 5
	SashimiSetSize   = 3
	SashimiSetPoints = 10
	WasabiMultiplier = 3

	MakiFirstPlace  = 6
	MakiSecondPlace = 3
	PuddingAward    = 6
)

// dumplingPoints is indexed by dumpling count; anything past the end scores the last entry.
var dumplingPoints = []int{0, 1, 3, 6, 10, 15}

// Breakdown is one player's points for a round, per category.
type Breakdown struct {
	Tempura  int `json:"tempura"`
	Sashimi  int `json:"sashimi"`
	Dumpling int `json:"dumpling"`
	Nigiri   int `json:"nigiri"`
	Maki     int `json:"maki"`
}

// Total sums all categories.
func (b Breakdown) Total() int {
	return b.Tempura + b.Sashimi + b.Dumpling + b.Nigiri + b.Maki
}

// Tempura scores 5 points per complete pair.
func Tempura(cards []models.Card) int {
	return models.CountKind(cards, models.KindTempura) / TempuraSetSize * TempuraSetPoints
}

// Sashimi scores 10 points per complete triple.
func Sashimi(cards []models.Card) int {
	return models.CountKind(cards, models.KindSashimi) / SashimiSetSize * SashimiSetPoints
}

// Dumplings scores the dumpling count on the 1/3/6/10/15 ladder, capped at 15.
func Dumplings(cards []models.Card) int {
	n := models.CountKind(cards, models.KindDumpling)
	if n >= len(dumplingPoints) {
		return dumplingPoints[len(dumplingPoints)-1]
	}
	return dumplingPoints[n]
}

// Nigiri walks the collection in the order it was collected. Each nigiri is
// tripled by the oldest unused wasabi before it, if any.
func Nigiri(cards []models.Card) int {
	wasabi := 0
	total := 0
	for _, c := range cards {
		switch c.Kind {
		case models.KindWasabi:
			wasabi++
		case models.KindNigiri:
			if wasabi > 0 {
				wasabi--
				total += c.Value * WasabiMultiplier
			} else {
				total += c.Value
			}
		}
	}
	return total
}

// MakiIcons sums the maki icons in a collection.
func MakiIcons(cards []models.Card) int {
	icons := 0
	for _, c := range cards {
		if c.Kind == models.KindMakiRoll {
			icons += c.Value
		}
	}
	return icons
}

// MakiAwards ranks icon totals across the table. The most icons earn 6, the
// next strictly lower total earns 3. Tied players split a rank evenly with the
// remainder discarded, and a tie for first awards no second place. Zero icons
// never score.
func MakiAwards(totals []int) []int {
	awards := make([]int, len(totals))

	first := 0
	for _, t := range totals {
		if t > first {
			first = t
		}
	}
	if first == 0 {
		return awards
	}
	leaders := indicesOf(totals, first)
	split(awards, leaders, MakiFirstPlace)
	if len(leaders) > 1 {
		return awards
	}

	second := 0
	for _, t := range totals {
		if t < first && t > second {
			second = t
		}
	}
	if second == 0 {
		return awards
	}
	split(awards, indicesOf(totals, second), MakiSecondPlace)
	return awards
}

// PuddingAwards applies the end-of-game pudding rule to per-player counts.
// Most puddings earn +6 and fewest -6, split among ties and truncated toward
// zero. Two-player games skip the penalty. With no puddings at all nobody
// scores; with three or more equal counts the bonus and penalty cancel out.
func PuddingAwards(counts []int) []int {
	awards := make([]int, len(counts))
	if len(counts) == 0 {
		return awards
	}

	most, fewest := counts[0], counts[0]
	for _, c := range counts[1:] {
		if c > most {
			most = c
		}
		if c < fewest {
			fewest = c
		}
	}
	if most == 0 {
		return awards
	}

	split(awards, indicesOf(counts, most), PuddingAward)
	if len(counts) > 2 {
		split(awards, indicesOf(counts, fewest), -PuddingAward)
	}
	return awards
}

// Round scores every collection for one round. Maki is relative, so all
// collections are scored together; the result is indexed like collections.
func Round(collections [][]models.Card) []Breakdown {
	out := make([]Breakdown, len(collections))
	icons := make([]int, len(collections))
	for i, cards := range collections {
		out[i] = Breakdown{
			Tempura:  Tempura(cards),
			Sashimi:  Sashimi(cards),
			Dumpling: Dumplings(cards),
			Nigiri:   Nigiri(cards),
		}
		icons[i] = MakiIcons(cards)
	}
	for i, pts := range MakiAwards(icons) {
		out[i].Maki = pts
	}
	return out
}

func indicesOf(values []int, want int) []int {
	var idx []int
	for i, v := range values {
		if v == want {
			idx = append(idx, i)
		}
	}
	return idx
}

// split adds points/len(who) to each listed index. Go division truncates
// toward zero, which is the rounding both maki and pudding use.
func split(awards []int, who []int, points int) {
	if len(who) == 0 {
		return
	}
	share := points / len(who)
	for _, i := range who {
		awards[i] += share
	}
}
