package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"iromo/internal/platform/logging"
)

// BodySaver persists topic bodies off the interactive path. Saves are
// serialized per topic: at most one is in flight, and a request arriving
// while one runs replaces any queued body so the latest content always wins
// and two versions can never land out of order. Failures are logged and
// handed to the error callback; the caller retries by scheduling a fresh
// save.
type BodySaver struct {
	svc    *Service
	logger *zap.Logger
	onErr  func(topicID string, err error)

	mu       sync.Mutex
	inflight map[string]*pendingSave
	wg       sync.WaitGroup
}

type pendingSave struct {
	queued bool
	next   string
}

func NewBodySaver(svc *Service, logger *zap.Logger, onErr func(topicID string, err error)) *BodySaver {
	return &BodySaver{
		svc:      svc,
		logger:   logging.OrNop(logger),
		onErr:    onErr,
		inflight: make(map[string]*pendingSave),
	}
}

// Schedule queues body for persistence. It never blocks on IO.
func (b *BodySaver) Schedule(topicID, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.inflight[topicID]; ok {
		p.queued = true
		p.next = body
		return
	}
	b.inflight[topicID] = &pendingSave{}
	b.wg.Add(1)
	go b.run(topicID, body)
}

func (b *BodySaver) run(topicID, body string) {
	defer b.wg.Done()
	for {
		if err := b.svc.SaveBody(context.Background(), topicID, body); err != nil {
			b.logger.Error("background body save failed",
				zap.String("topic_id", topicID), zap.Error(err))
			if b.onErr != nil {
				b.onErr(topicID, err)
			}
		}

		b.mu.Lock()
		p := b.inflight[topicID]
		if !p.queued {
			delete(b.inflight, topicID)
			b.mu.Unlock()
			return
		}
		body = p.next
		p.queued = false
		p.next = ""
		b.mu.Unlock()
	}
}

// Flush blocks until every scheduled save has completed.
func (b *BodySaver) Flush() {
	b.wg.Wait()
}
