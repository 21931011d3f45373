// internal/game/utils.go
package game

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/cache"
	"github.com/bstee615/go-sushi/internal/models"
)

// outbox collects what a mutation wants to send so it can go out after the
// state lock is released.
type outbox struct {
	events []queuedEvent
	result *GameResult
	empty  bool
}

type queuedEvent struct {
	playerID string // empty for broadcasts
	ev       GameEvent
}

func (o *outbox) broadcast(ev GameEvent) {
	o.events = append(o.events, queuedEvent{ev: ev})
}

func (o *outbox) toPlayer(playerID string, ev GameEvent) {
	o.events = append(o.events, queuedEvent{playerID: playerID, ev: ev})
}

// removeIndex returns cards without the card at i. The input is not modified.
func removeIndex(cards []models.Card, i int) []models.Card {
	return append(cards[:i:i], cards[i+1:]...)
}

func revealIDs(reveals []Reveal) map[string][]string {
	ids := make(map[string][]string, len(reveals))
	for _, r := range reveals {
		for _, c := range r.Cards {
			ids[r.PlayerID] = append(ids[r.PlayerID], c.ID)
		}
	}
	return ids
}

// logAction sends the action details to the historian via Redis. An empty
// actorID marks actions taken by the table itself.
// Assumes lock is held by caller.
func (g *GameSession) logAction(actorID string, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if cache.Rdb == nil {
		return
	}
	g.actions.enqueue(record)
}

// actionPublisher pushes one session's records in ActionIndex order. At most
// one drain goroutine runs per session and it exits once the queue is empty.
type actionPublisher struct {
	mu      sync.Mutex
	queue   []cache.GameActionRecord
	running bool

	publish func(ctx context.Context, rec cache.GameActionRecord) error
}

func newActionPublisher() *actionPublisher {
	return &actionPublisher{publish: cache.PublishGameAction}
}

func (p *actionPublisher) enqueue(rec cache.GameActionRecord) {
	p.mu.Lock()
	p.queue = append(p.queue, rec)
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()
	go p.drain()
}

func (p *actionPublisher) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.running = false
			p.mu.Unlock()
			return
		}
		rec := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.publish(ctx, rec); err != nil {
			log.WithField("game", rec.GameID).Errorf("publishing action %d: %v", rec.ActionIndex, err)
		}
		cancel()
	}
}
