// Package events provides the in-process pub/sub bus that carries pipeline
// progress to live subscribers. Events are ephemeral; nothing is persisted.
package events

import (
	"log/slog"
	"sync"
	"time"

	"linkarr/internal/logging"
)

// Kind identifies the event variant carried in Event.Payload.
type Kind string

const (
	KindFileAdded          Kind = "file_added"
	KindFileUpdated        Kind = "file_updated"
	KindFileDeleted        Kind = "file_deleted"
	KindScanStarted        Kind = "scan_started"
	KindScanProgress       Kind = "scan_progress"
	KindScanCompleted      Kind = "scan_completed"
	KindStatsUpdated       Kind = "stats_updated"
	KindReprocessStarted   Kind = "reprocess_started"
	KindReprocessProgress  Kind = "reprocess_progress"
	KindReprocessCompleted Kind = "reprocess_completed"
)

// Event is one bus message. Payload is JSON-encodable.
type Event struct {
	Kind    Kind `json:"kind"`
	Payload any  `json:"payload,omitempty"`
}

// Progress is the payload for scan_progress and reprocess_progress.
type Progress struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Filename string `json:"filename,omitempty"`
}

// Publisher is what pipeline components hold; the bus satisfies it, and
// NopPublisher serves callers running without live subscribers.
type Publisher interface {
	Emit(kind Kind, payload any)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Emit(Kind, any) {}

// Slow subscribers get this long before the event is dropped for them.
const deliverTimeout = 50 * time.Millisecond

const subscriberBuffer = 64

// Bus broadcasts events to every current subscriber.
type Bus struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its delivery channel.
// The caller must Unsubscribe the same channel when done.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Emit delivers the event to every subscriber. A subscriber whose buffer
// stays full past the bounded wait loses this event; the emitter never
// blocks indefinitely. The lock is held across delivery so Unsubscribe
// cannot close a channel mid-send.
func (b *Bus) Emit(kind Kind, payload any) {
	event := Event{Kind: kind, Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			timer := time.NewTimer(deliverTimeout)
			select {
			case ch <- event:
				timer.Stop()
			case <-timer.C:
				b.logger.Warn("dropping event for slow subscriber",
					logging.String("kind", string(kind)))
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
