package ticks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind tells consumers how to read an Event.
type Kind string

const (
	KindInfo      Kind = "info"
	KindPriceTick Kind = "price_tick"
	KindError     Kind = "error"
)

// Event is one entry of the dashboard event stream.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message,omitempty"`
	// Prices maps symbol to decimal price text; only set for KindPriceTick.
	Prices map[string]string `json:"prices,omitempty"`
	// ReceivedAt is the local ingestion time in milliseconds since epoch.
	ReceivedAt int64 `json:"receivedAt"`
}

// NewPriceTick builds a price_tick event stamped at receivedAt.
func NewPriceTick(prices map[string]string, receivedAt time.Time) Event {
	cp := make(map[string]string, len(prices))
	for sym, p := range prices {
		cp[sym] = p
	}
	return Event{
		ID:         uuid.New(),
		Kind:       KindPriceTick,
		Prices:     cp,
		ReceivedAt: receivedAt.UnixMilli(),
	}
}

// NewMessage builds an info or error event stamped at receivedAt.
func NewMessage(kind Kind, msg string, receivedAt time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Message:    msg,
		ReceivedAt: receivedAt.UnixMilli(),
	}
}

// Price returns the price text for symbol, if the event carries one.
func (e Event) Price(symbol string) (string, bool) {
	if e.Kind != KindPriceTick {
		return "", false
	}
	p, ok := e.Prices[symbol]
	return p, ok
}

// Source is anything that produces events until cancelled.
// The returned cancel func stops delivery: once it returns, onEvent is not called again.
type Source interface {
	Start(ctx context.Context, symbols []string, onEvent func(Event)) (cancel func())
}
