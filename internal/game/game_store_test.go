package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeRecorder struct {
	mu          sync.Mutex
	broadcasts  map[string][]GameEvent
	listChanges int
}

func newTestStore() (*GameStore, *storeRecorder) {
	rec := &storeRecorder{broadcasts: make(map[string][]GameEvent)}
	s := NewGameStore(DefaultRules())
	s.BroadcastFn = func(gameID string, ev GameEvent) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.broadcasts[gameID] = append(rec.broadcasts[gameID], ev)
	}
	s.OnListChanged = func() {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.listChanges++
	}
	return s, rec
}

func TestCreateOrJoin(t *testing.T) {
	s, rec := newTestStore()

	g, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, 1, rec.listChanges)

	joined, err := s.CreateOrJoin("bob", "", g.ID)
	require.NoError(t, err)
	assert.Same(t, g, joined)

	view := g.BroadcastView()
	require.Len(t, view.Players, 2)
	assert.Equal(t, "Alice", view.Players[0].Name)
	assert.NotEmpty(t, view.Players[1].Name, "a name is generated")

	_, err = s.CreateOrJoin("carol", "Carol", "no-such-game")
	assert.ErrorIs(t, err, ErrNotFound)

	other, err := s.CreateOrJoin("dave", "Dave", "")
	require.NoError(t, err)
	assert.NotEqual(t, g.ID, other.ID)
	assert.Equal(t, 2, s.Len())
}

func TestListGames(t *testing.T) {
	s, _ := newTestStore()
	first, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	second, err := s.CreateOrJoin("bob", "Bob", "")
	require.NoError(t, err)
	_, err = s.CreateOrJoin("carol", "Carol", second.ID)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, 2, list[1].PlayerCount)
	assert.Equal(t, []string{"Bob", "Carol"}, list[1].PlayerNames)
	assert.Equal(t, PhaseWaiting, list[1].Phase)
	assert.Equal(t, 5, list[1].MaxPlayers)
}

func TestDeleteGame(t *testing.T) {
	s, rec := newTestStore()
	g, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteGame("mallory", g.ID), ErrInvalidPhase)
	assert.ErrorIs(t, s.DeleteGame("alice", "missing"), ErrNotFound)

	require.NoError(t, s.DeleteGame("alice", g.ID))
	_, ok := s.Get(g.ID)
	assert.False(t, ok)

	rec.mu.Lock()
	events := rec.broadcasts[g.ID]
	rec.mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, EventGameDeleted, events[len(events)-1].Type)
	assert.Equal(t, 2, rec.listChanges)
}

func TestDeleteAbandonedGame(t *testing.T) {
	s, _ := newTestStore()
	g, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	_, err = s.CreateOrJoin("bob", "Bob", g.ID)
	require.NoError(t, err)
	require.NoError(t, g.Start("alice"))
	require.NoError(t, g.Disconnect("alice"))
	require.NoError(t, g.Disconnect("bob"))

	_, ok := s.Get(g.ID)
	require.True(t, ok, "started games survive disconnects")
	require.NoError(t, s.DeleteGame("stranger", g.ID))
	assert.Equal(t, 0, s.Len())
}

func TestEmptyWaitingGameIsRemoved(t *testing.T) {
	s, rec := newTestStore()
	g, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)

	require.NoError(t, g.Disconnect("alice"))
	_, ok := s.Get(g.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, rec.listChanges)
}

func TestUniqueIDs(t *testing.T) {
	s, _ := newTestStore()
	s.newID = func() string { return "tokyo-sakura-11" }

	a, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	b, err := s.CreateOrJoin("bob", "Bob", "")
	require.NoError(t, err)

	assert.Equal(t, "tokyo-sakura-11", a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Contains(t, b.ID, "tokyo-sakura-11-")
}

func TestDeletedSessionRejectsLateJoins(t *testing.T) {
	s, _ := newTestStore()
	g, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	require.NoError(t, s.DeleteGame("alice", g.ID))

	// Callers still holding the session cannot sit down after the delete.
	assert.ErrorIs(t, g.Join("bob", "Bob"), ErrNotFound)
	assert.ErrorIs(t, g.Reconnect("alice"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteGame("alice", g.ID), ErrNotFound)
	assert.False(t, g.HasPlayer("bob"))
}

func TestDeleteDoesNotDropReusedID(t *testing.T) {
	s, _ := newTestStore()
	old, err := s.CreateOrJoin("alice", "Alice", "")
	require.NoError(t, err)
	require.NoError(t, s.DeleteGame("alice", old.ID))

	replacement := NewGameSession(old.ID, DefaultRules())
	s.mu.Lock()
	s.games[old.ID] = replacement
	s.mu.Unlock()

	s.removeSession(old)
	got, ok := s.Get(old.ID)
	require.True(t, ok)
	assert.Same(t, replacement, got)
}
