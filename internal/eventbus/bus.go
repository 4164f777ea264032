package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

// Event announces something that happened to a session.
type Event struct {
	Type    schema.EventType
	Session *core.Session
}

// Handler receives bus events.
type Handler func(Event)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus delivers session events synchronously to every registered handler in
// subscription order. Events are not buffered or replayed.
type Bus struct {
	mu     sync.Mutex
	subs   []subscriber
	nextID uint64
	log    pslog.Logger
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{log: logger}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn Handler) func() {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// Share announces that session is available to other consumers.
func (b *Bus) Share(session *core.Session) {
	b.publish(Event{Type: schema.EventShared, Session: session})
}

// AnnounceCommit announces that session was committed to a new file.
func (b *Bus) AnnounceCommit(session *core.Session) {
	b.publish(Event{Type: schema.EventCommitted, Session: session})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	fields := []any{"type", event.Type, "subs", len(subs)}
	if event.Session != nil {
		fields = append(fields, "session", event.Session.Path())
	}
	b.log.Trace("eventbus publish", fields...)
	for _, sub := range subs {
		sub.fn(event)
	}
}
