// internal/game/idgen.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var regions = []string{
	"tokyo", "kyoto", "osaka", "hokkaido", "okinawa",
	"nara", "hiroshima", "fukuoka", "nagoya", "sapporo",
}

var flowers = []string{
	"sakura", "ume", "tsubaki", "ajisai", "kiku",
	"fuji", "botan", "ayame", "momiji", "hasu",
}

var playerNames = []string{
	"Jiro Ono",
	"Naruto", "Totoro", "Goku", "Pikachu", "Luffy",
	"Gon Freecss", "Jotaro Kujo",
	"Miyamoto Musashi", "Oda Nobunaga",
}

var (
	idRandMu sync.Mutex
	idRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateGameID returns a memorable id such as "kyoto-sakura-42". Uniqueness
// is the registry's job.
func GenerateGameID() string {
	idRandMu.Lock()
	defer idRandMu.Unlock()
	return fmt.Sprintf("%s-%s-%d",
		regions[idRand.Intn(len(regions))],
		flowers[idRand.Intn(len(flowers))],
		idRand.Intn(90)+10,
	)
}

// GeneratePlayerName picks a display name for players who did not supply one.
func GeneratePlayerName() string {
	idRandMu.Lock()
	defer idRandMu.Unlock()
	return playerNames[idRand.Intn(len(playerNames))]
}
