// Package historian drains the action log from Redis and archives it in
// batches. It runs as its own process so the game server never waits on the
// database.
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/cache"
)

// ActionSink is where flushed batches end up.
type ActionSink interface {
	WriteActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID string) error
}

// Options tune batching. Zero values fall back to the defaults below.
type Options struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	PopTimeout    time.Duration // BLPOP timeout; Redis resolves it in whole seconds
	Inactivity    time.Duration // quiet games older than this are marked abandoned
}

const (
	defaultBatchSize     = 20
	defaultFlushInterval = 500 * time.Millisecond
	defaultPopTimeout    = time.Second
	defaultInactivity    = 10 * time.Minute
)

// Service pops action records, accumulates them and flushes to the sink when
// the batch is full or the flush interval has elapsed.
type Service struct {
	rdb    *redis.Client
	sink   ActionSink
	opts   Options
	logger *logrus.Logger

	batch        []cache.GameActionRecord
	lastFlush    time.Time
	lastActivity map[string]time.Time
	now          func() time.Time
}

// NewService wires a historian to a Redis client and a sink.
func NewService(rdb *redis.Client, sink ActionSink, opts Options, logger *logrus.Logger) *Service {
	if opts.Queue == "" {
		opts.Queue = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = defaultPopTimeout
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = defaultInactivity
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		rdb:          rdb,
		sink:         sink,
		opts:         opts,
		logger:       logger,
		batch:        make([]cache.GameActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[string]time.Time),
		now:          time.Now,
	}
}

// Run blocks until ctx is cancelled. Whatever is still batched is flushed on
// the way out.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithField("queue", s.opts.Queue).Info("historian started")
	s.lastFlush = s.now()
	lastSweep := s.now()

	for {
		if ctx.Err() != nil {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx)
			cancel()
			s.logger.Info("historian stopped")
			return nil
		}

		res, err := s.rdb.BLPop(ctx, s.opts.PopTimeout, s.opts.Queue).Result()
		switch {
		case err == nil && len(res) == 2:
			s.accept(res[1])
		case err == nil, errors.Is(err, redis.Nil):
		case ctx.Err() != nil:
			continue
		default:
			s.logger.WithError(err).Error("BLPOP failed")
			time.Sleep(s.opts.PopTimeout)
		}

		if len(s.batch) >= s.opts.BatchSize || s.now().Sub(s.lastFlush) >= s.opts.FlushInterval {
			s.flush(ctx)
		}
		if s.now().Sub(lastSweep) >= s.opts.Inactivity/2 {
			s.sweepInactive(ctx)
			lastSweep = s.now()
		}
	}
}

// accept decodes one queue entry into the batch.
func (s *Service) accept(raw string) {
	rec, err := cache.DecodeGameAction(raw)
	if err != nil {
		s.logger.WithError(err).Warn("dropping invalid action record")
		return
	}
	switch rec.ActionType {
	case "game_end", "game_deleted":
		delete(s.lastActivity, rec.GameID)
	default:
		s.lastActivity[rec.GameID] = s.now()
	}
	s.batch = append(s.batch, rec)
}

// flush writes the batch. A failed batch is kept and retried on the next flush.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.now()
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.WriteActions(ctx, s.batch); err != nil {
		s.logger.WithError(err).Errorf("flush of %d actions failed", len(s.batch))
		return
	}
	s.logger.Debugf("flushed %d actions", len(s.batch))
	s.batch = make([]cache.GameActionRecord, 0, s.opts.BatchSize)
}

// sweepInactive marks games abandoned when nothing was logged for them within
// the inactivity window.
func (s *Service) sweepInactive(ctx context.Context) {
	now := s.now()
	for gameID, last := range s.lastActivity {
		if now.Sub(last) <= s.opts.Inactivity {
			continue
		}
		if err := s.sink.MarkAbandoned(ctx, gameID); err != nil {
			s.logger.WithError(err).WithField("game", gameID).Error("mark abandoned failed")
			continue
		}
		s.logger.WithField("game", gameID).Info("marked abandoned after inactivity")
		delete(s.lastActivity, gameID)
	}
}
