// Package live delivers whole-collection snapshots to subscribers whenever
// the collection changes.
//
// Writers announce changes by topic through a Notifier. A subscription
// reacts to an announcement by reloading its collection and handing the
// result to its callback, so each delivery is authoritative on its own and
// subscribers simply replace what they had.
package live

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Topic names.
const EventsTopic = "events"

// AttendeesTopic is the topic for one event's attendee list.
func AttendeesTopic(eventID string) string {
	return "attendees:" + eventID
}

// Notifier announces that the records behind topic changed.
type Notifier interface {
	Notify(ctx context.Context, topic string) error
}

// Hub fans change notices out to the subscriptions of this process.
type Hub struct {
	mu      sync.Mutex
	waiters map[string]map[*waiter]struct{}
	logger  *slog.Logger
}

// waiter is a subscription's doorbell. The one-slot buffer coalesces
// notices that arrive while a reload is in progress.
type waiter struct {
	ch chan struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		waiters: make(map[string]map[*waiter]struct{}),
		logger:  logger,
	}
}

// Notify wakes every subscription on topic. It never blocks.
func (h *Hub) Notify(_ context.Context, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.waiters[topic] {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribers returns how many subscriptions listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters[topic])
}

func (h *Hub) add(topic string) *waiter {
	w := &waiter{ch: make(chan struct{}, 1)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.waiters[topic]
	if !ok {
		set = make(map[*waiter]struct{})
		h.waiters[topic] = set
	}
	set[w] = struct{}{}
	return w
}

func (h *Hub) remove(topic string, w *waiter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.waiters[topic]
	delete(set, w)
	if len(set) == 0 {
		delete(h.waiters, topic)
	}
}

// Snapshot is one delivery. Seq starts at 1 and increases by one with each
// delivery of the same subscription.
type Snapshot[T any] struct {
	Seq   uint64    `json:"seq"`
	Items []T       `json:"items"`
	At    time.Time `json:"at"`
}

// LoadFunc reads the current state of a subscribed collection.
type LoadFunc[T any] func(ctx context.Context) ([]T, error)

// Subscribe loads the collection, delivers it to fn before returning, and
// then redelivers a fresh load after every notice on topic until the
// returned function is called or ctx ends.
//
// Deliveries for one subscription never overlap and arrive in Seq order.
// Once unsubscribe returns, no further delivery starts; it waits for a
// delivery already running, so fn must not call it. A failed reload is
// logged and skipped; the next notice tries again. A reload equal to the
// last delivered items is dropped, so fn must treat Items as read-only.
func Subscribe[T any](ctx context.Context, h *Hub, topic string, load LoadFunc[T], fn func(Snapshot[T])) (unsubscribe func(), err error) {
	// Register before the first load so a change racing with it still
	// triggers a reload.
	w := h.add(topic)

	items, err := load(ctx)
	if err != nil {
		h.remove(topic, w)
		return nil, err
	}
	fn(Snapshot[T]{Seq: 1, Items: items, At: time.Now().UTC()})
	last := items

	ctx, cancel := context.WithCancel(ctx)
	var (
		deliver sync.Mutex // held while fn runs
		stopped bool
		once    sync.Once
	)
	stop := func() {
		once.Do(func() {
			cancel()
			h.remove(topic, w)
		})
	}
	unsubscribe = func() {
		stop()
		deliver.Lock()
		stopped = true
		deliver.Unlock()
	}

	go func() {
		defer stop()
		seq := uint64(1)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.ch:
			}
			items, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Warn("reload subscription", "topic", topic, "error", err)
				continue
			}
			// Topics are shared, so a notice may concern records outside
			// this subscription's view.
			if reflect.DeepEqual(items, last) {
				continue
			}
			last = items
			deliver.Lock()
			if stopped {
				deliver.Unlock()
				return
			}
			seq++
			fn(Snapshot[T]{Seq: seq, Items: items, At: time.Now().UTC()})
			deliver.Unlock()
		}
	}()

	return unsubscribe, nil
}
