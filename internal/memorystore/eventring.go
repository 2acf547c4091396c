package memorystore

import (
	"fmt"
	"sort"
	"sync"

	"tickdash/internal/ticks"
)

// DefaultRingCapacity is the number of recent events kept for display.
const DefaultRingCapacity = 8

// EventRing keeps the most recent events in a fixed number of slots.
// It appends until full, then overwrites slots cyclically starting at index 0.
// After the first overwrite, slot order is no longer time order.
type EventRing struct {
	mu       sync.Mutex
	capacity int
	slots    []ticks.Event
	cursor   int
	full     bool
}

func NewEventRing(capacity int) (*EventRing, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be positive, got %d", capacity)
	}
	return &EventRing{
		capacity: capacity,
		slots:    make([]ticks.Event, 0, capacity),
	}, nil
}

// Push stores ev, overwriting the slot at the cursor once the ring is full.
func (r *EventRing) Push(ev ticks.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		r.slots = append(r.slots, ev)
		if len(r.slots) == r.capacity {
			r.full = true
		}
		return
	}

	r.slots[r.cursor] = ev
	r.cursor = (r.cursor + 1) % r.capacity
}

// Snapshot returns a copy of the slots in array order.
func (r *EventRing) Snapshot() []ticks.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ticks.Event, len(r.slots))
	copy(out, r.slots)
	return out
}

// Reset empties the ring.
func (r *EventRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = make([]ticks.Event, 0, r.capacity)
	r.cursor = 0
	r.full = false
}

func (r *EventRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *EventRing) Cap() int {
	return r.capacity
}

func (r *EventRing) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.full
}

// Cursor is the next slot to overwrite once the ring is full.
func (r *EventRing) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Chronological returns a copy of events ordered by ReceivedAt, oldest first.
// Events with equal timestamps keep their relative order.
func Chronological(events []ticks.Event) []ticks.Event {
	out := make([]ticks.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt < out[j].ReceivedAt
	})
	return out
}

// LatestPrices folds the price ticks among events into the newest price per symbol.
func LatestPrices(events []ticks.Event) map[string]string {
	latest := make(map[string]string)
	for _, ev := range Chronological(events) {
		if ev.Kind != ticks.KindPriceTick {
			continue
		}
		for sym, p := range ev.Prices {
			latest[sym] = p
		}
	}
	return latest
}
