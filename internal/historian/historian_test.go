// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstee615/go-sushi/internal/cache"
)

type fakeSink struct {
	mu        sync.Mutex
	batches   [][]cache.GameActionRecord
	abandoned []string
	failNext  bool
}

func (f *fakeSink) WriteActions(_ context.Context, records []cache.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	cp := make([]cache.GameActionRecord, len(records))
	copy(cp, records)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeSink) MarkAbandoned(_ context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, gameID)
	return nil
}

func (f *fakeSink) written() []cache.GameActionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []cache.GameActionRecord
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

func TestHistorianFlushesBatches(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sink := &fakeSink{}
	svc := NewService(rdb, sink, Options{Queue: "q", BatchSize: 2, FlushInterval: time.Hour}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cache.Rdb = rdb
	cache.QueueName = "q"
	defer func() {
		cache.Rdb = nil
		cache.QueueName = cache.DefaultQueueName
	}()
	for i := 1; i <= 3; i++ {
		require.NoError(t, cache.PublishGameAction(context.Background(), cache.GameActionRecord{
			GameID: "g1", ActionIndex: i, ActionType: "select_card", Timestamp: time.Now().UnixMilli(),
		}))
	}

	assert.Eventually(t, func() bool { return len(sink.written()) == 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("historian did not stop")
	}

	// the third record is flushed on shutdown
	written := sink.written()
	require.Len(t, written, 3)
	for i, rec := range written {
		assert.Equal(t, i+1, rec.ActionIndex)
	}
}

func TestFlushRetriesFailedBatch(t *testing.T) {
	sink := &fakeSink{failNext: true}
	svc := NewService(nil, sink, Options{}, quietLogger())

	svc.accept(`{"game_id":"g1","action_index":1,"action_type":"player_join"}`)
	svc.accept(`garbage`)
	svc.flush(context.Background())
	assert.Empty(t, sink.written())
	assert.Len(t, svc.batch, 1)

	svc.flush(context.Background())
	assert.Len(t, sink.written(), 1)
	assert.Empty(t, svc.batch)
}

func TestSweepInactive(t *testing.T) {
	sink := &fakeSink{}
	svc := NewService(nil, sink, Options{Inactivity: time.Minute}, quietLogger())
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	svc.accept(`{"game_id":"stale","action_index":1,"action_type":"player_join"}`)
	svc.accept(`{"game_id":"done","action_index":1,"action_type":"player_join"}`)
	svc.accept(`{"game_id":"done","action_index":2,"action_type":"game_end"}`)

	clock = clock.Add(30 * time.Second)
	svc.accept(`{"game_id":"fresh","action_index":1,"action_type":"player_join"}`)

	clock = clock.Add(45 * time.Second)
	svc.sweepInactive(context.Background())

	assert.Equal(t, []string{"stale"}, sink.abandoned)
	_, tracked := svc.lastActivity["fresh"]
	assert.True(t, tracked)
}
