package series

import (
	"fmt"

	"tickdash/internal/ticks"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Point is one sample of a price series.
type Point struct {
	Time  int64           `json:"time"` // milliseconds since epoch
	Price decimal.Decimal `json:"price"`
}

// Window is the bounded, time-ascending series shown for one symbol.
// It is owned by a single consumer and is not safe for concurrent use.
type Window struct {
	symbol string
	size   int
	points []Point

	change    decimal.Decimal
	hasChange bool
}

// Initialize seeds a window from historical points. History longer than size
// keeps only its newest size points.
func Initialize(symbol string, history []Point, size int) (*Window, error) {
	if size < 2 {
		return nil, fmt.Errorf("window size for %s must be at least 2, got %d", symbol, size)
	}

	if len(history) > size {
		history = history[len(history)-size:]
	}

	w := &Window{
		symbol: symbol,
		size:   size,
		points: make([]Point, len(history), size+1),
	}
	copy(w.points, history)
	w.recompute()
	return w, nil
}

// ApplyEvent appends the event's price for this window's symbol, evicting the
// oldest points beyond the window size. Events of another kind, events without
// the symbol and prices that do not parse leave the window untouched.
// It reports whether the window changed. Identical ticks are not deduplicated.
func (w *Window) ApplyEvent(ev ticks.Event) bool {
	text, ok := ev.Price(w.symbol)
	if !ok {
		return false
	}

	price, err := decimal.NewFromString(text)
	if err != nil {
		return false
	}

	w.points = append(w.points, Point{Time: ev.ReceivedAt, Price: price})
	if n := len(w.points) - w.size; n > 0 {
		copy(w.points, w.points[n:])
		w.points = w.points[:w.size]
	}

	w.recompute()
	return true
}

func (w *Window) recompute() {
	w.change, w.hasChange = PercentChange(w.points)
}

// PercentChange returns (last-first)/first*100. It is undefined for fewer than
// two points or a zero first price.
func PercentChange(points []Point) (decimal.Decimal, bool) {
	if len(points) < 2 {
		return decimal.Decimal{}, false
	}
	first, last := points[0].Price, points[len(points)-1].Price
	if first.IsZero() {
		return decimal.Decimal{}, false
	}
	return last.Sub(first).Div(first).Mul(hundred), true
}

func (w *Window) Symbol() string { return w.symbol }

func (w *Window) Size() int { return w.size }

func (w *Window) Len() int { return len(w.points) }

// Points returns a copy of the current points, oldest first.
func (w *Window) Points() []Point {
	out := make([]Point, len(w.points))
	copy(out, w.points)
	return out
}

// PercentChange returns the change over the current points, if defined.
func (w *Window) PercentChange() (decimal.Decimal, bool) {
	return w.change, w.hasChange
}

// Last returns the newest point.
func (w *Window) Last() (Point, bool) {
	if len(w.points) == 0 {
		return Point{}, false
	}
	return w.points[len(w.points)-1], true
}
