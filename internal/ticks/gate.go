package ticks

import "sync"

// Gate forwards events to a sink until closed.
// Close waits for any Emit in progress, so nothing is delivered after it returns.
type Gate struct {
	mu      sync.RWMutex
	closed  bool
	onEvent func(Event)
}

func NewGate(onEvent func(Event)) *Gate {
	return &Gate{onEvent: onEvent}
}

// Emit delivers ev unless the gate is closed. It reports whether ev was delivered.
func (g *Gate) Emit(ev Event) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return false
	}
	g.onEvent(ev)
	return true
}

func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
