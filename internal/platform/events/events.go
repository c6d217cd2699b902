// Package events carries change notifications from the core to whatever
// outer layer is listening (CLI, TUI, a future GUI). Listeners run
// synchronously after the mutation has committed; nothing is published for
// failed or rolled-back operations.
package events

import "sync"

type Type int

const (
	TopicCreated Type = iota
	TopicRenamed
	TopicBodySaved
	TopicMoved
	TopicDeleted
	ExtractionCreated
	ExtractionDeleted
	BulkChange
)

// Event is the published notification. Payload fields are set according to
// the type; unused fields stay zero.
type Event struct {
	Type         Type
	TopicID      string
	ParentID     string
	Title        string
	ExtractionID string
	StartChar    int
	EndChar      int
}

type Handler func(Event)

// Bus is a synchronous listener registry. Subscribe order is dispatch order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}
