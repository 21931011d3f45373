package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstee615/go-sushi/internal/cache"
)

func TestActionPublisherKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	p := &actionPublisher{publish: func(ctx context.Context, rec cache.GameActionRecord) error {
		// Stall some records so a racing publisher would reorder them.
		if rec.ActionIndex%7 == 0 {
			time.Sleep(time.Millisecond)
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, rec.ActionIndex)
		return nil
	}}

	for i := 1; i <= 100; i++ {
		p.enqueue(cache.GameActionRecord{GameID: "g", ActionIndex: i})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 100
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, idx := range got {
		assert.Equal(t, i+1, idx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Empty(t, p.queue)
}

func TestActionLogReachesRedisInOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, cache.ConnectRedis(mr.Addr(), 0))
	t.Cleanup(func() {
		cache.Rdb.Close()
		cache.Rdb = nil
	})

	g, _ := setupTestGame(t, DefaultRules(), "alice", "bob")
	require.NoError(t, g.Start("alice"))
	require.NoError(t, g.SelectCard("alice", pick(0)))
	require.NoError(t, g.WithdrawCard("alice"))
	require.NoError(t, g.SelectCard("alice", pick(1)))
	require.NoError(t, g.SelectCard("bob", pick(0)))

	g.mu.Lock()
	want := g.actionIndex
	g.mu.Unlock()

	require.Eventually(t, func() bool {
		items, err := mr.List(cache.QueueName)
		return err == nil && len(items) == want
	}, 5*time.Second, 10*time.Millisecond)

	items, err := mr.List(cache.QueueName)
	require.NoError(t, err)
	for i, raw := range items {
		rec, err := cache.DecodeGameAction(raw)
		require.NoError(t, err)
		assert.Equal(t, i+1, rec.ActionIndex)
		assert.Equal(t, "test-game", rec.GameID)
	}
}

func TestSessionSeedMixesGameID(t *testing.T) {
	rules := DefaultRules()
	rules.Seed = 42

	a := NewGameSession("kyoto-sakura-1", rules)
	b := NewGameSession("osaka-ume-2", rules)
	again := NewGameSession("kyoto-sakura-1", rules)

	deckA := cardIDs(ShuffledDeck(a.rng))
	assert.NotEqual(t, deckA, cardIDs(ShuffledDeck(b.rng)), "tables sharing a seed get different decks")
	assert.Equal(t, deckA, cardIDs(ShuffledDeck(again.rng)), "same seed and id replay the same deck")
}
