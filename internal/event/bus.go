package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rosterhub/internal/platform/metrics"
)

// DefaultQueueSize bounds a subscriber queue when no explicit size is given.
const DefaultQueueSize = 64

// Subscription is one subscriber's delivery queue. Events arrive in publish
// order; the channel is closed when the subscription ends, either through
// Unsubscribe or because the subscriber overflowed.
type Subscription struct {
	id     uuid.UUID
	events chan Event
	once   sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Events is the subscriber's receive side. A closed channel means the
// subscription is over and no further deliveries will happen.
func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.events) })
}

// Bus fans committed events out to all current subscribers. Publication never
// blocks on a slow subscriber: each subscription has its own bounded queue,
// and a subscriber whose queue is full is disconnected (disconnect-on-overflow)
// rather than delaying or losing events for others. There is no history:
// a subscriber only sees events published after it subscribed.
type Bus struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]*Subscription
	queueSize int
	closed    bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewBus(queueSize int, logger *slog.Logger, m *metrics.Metrics) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		subs:      make(map[uuid.UUID]*Subscription),
		queueSize: queueSize,
		logger:    logger,
		metrics:   m,
	}
}

// Subscribe registers a new subscriber with its own delivery queue.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.New(),
		events: make(chan Event, b.queueSize),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.metrics.AddSubscribers(1)
	return sub
}

// Unsubscribe removes the subscriber and closes its queue. Safe to call
// concurrently with in-flight Publish and safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	_, present := b.subs[sub.id]
	delete(b.subs, sub.id)
	b.mu.Unlock()

	// Closing after removal: Publish holds the read lock while sending, so a
	// send on the closed channel cannot race this close.
	sub.close()
	if present {
		b.metrics.AddSubscribers(-1)
	}
}

// Publish delivers the event to every subscriber connected right now. It never
// blocks: subscribers whose queue is full are dropped.
func (b *Bus) Publish(e Event) {
	var overflowed []*Subscription

	b.mu.RLock()
	for _, sub := range b.subs {
		select {
		case sub.events <- e:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	b.mu.RUnlock()

	b.metrics.IncrementEventsPublished(string(e.Kind))

	for _, sub := range overflowed {
		b.Unsubscribe(sub)
		b.metrics.IncrementSubscriberOverflows()
		b.logger.Warn("subscriber queue overflow, disconnecting",
			"subscription_id", sub.id.String(),
			"event_type", string(e.Kind),
		)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops all subscribers and rejects new ones. Used at shutdown.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[uuid.UUID]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
		b.metrics.AddSubscribers(-1)
	}
}
