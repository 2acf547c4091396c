package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tickdash/internal/memorystore"
	"tickdash/internal/series"
	"tickdash/internal/ticks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultQueueSize = 64

type Options struct {
	Source    ticks.Source
	Ring      *memorystore.EventRing
	History   HistoryLoader
	Symbols   *memorystore.SymbolSet
	QueueSize int
	Logger    *zap.Logger
}

// Dashboard wires a tick source to the event ring and the displayed charts.
// Every event goes through one queue and is consumed by a single goroutine, in
// the order it was received: first into the ring, then offered to each chart.
type Dashboard struct {
	source  ticks.Source
	ring    *memorystore.EventRing
	history HistoryLoader
	symbols *memorystore.SymbolSet
	logger  *zap.Logger
	now     func() time.Time

	events chan ticks.Event
	done   chan struct{}
	once   sync.Once

	chartsMu sync.RWMutex
	charts   map[string]*Chart
}

func New(opts Options) (*Dashboard, error) {
	if opts.Source == nil || opts.Ring == nil || opts.History == nil || opts.Symbols == nil {
		return nil, fmt.Errorf("dashboard: source, ring, history and symbols are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	return &Dashboard{
		source:  opts.Source,
		ring:    opts.Ring,
		history: opts.History,
		symbols: opts.Symbols,
		logger:  opts.Logger,
		now:     time.Now,
		events:  make(chan ticks.Event, opts.QueueSize),
		done:    make(chan struct{}),
		charts:  make(map[string]*Chart),
	}, nil
}

// Run starts the tick source and consumes events until ctx is done.
// The source is cancelled before the consumer stops, so no event it
// delivers is left half processed.
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.once.Do(func() { close(d.done) })

	cancel := d.source.Start(ctx, d.symbols.GetAll(), d.enqueue)

	sourceStopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		cancel()
		close(sourceStopped)
	}()

	d.logger.Info("dashboard started", zap.Strings("symbols", d.symbols.GetAll()), zap.Int("ring_capacity", d.ring.Cap()))

	for {
		select {
		case ev := <-d.events:
			d.consume(ev)
		case <-sourceStopped:
			d.logger.Info("dashboard stopped")
			return nil
		}
	}
}

// Publish queues an event from a producer other than the tick source.
// A missing ID or receive time is filled in.
func (d *Dashboard) Publish(ev ticks.Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.ReceivedAt == 0 {
		ev.ReceivedAt = d.now().UnixMilli()
	}
	d.enqueue(ev)
}

func (d *Dashboard) enqueue(ev ticks.Event) {
	select {
	case d.events <- ev:
	case <-d.done:
	}
}

func (d *Dashboard) consume(ev ticks.Event) {
	d.ring.Push(ev)

	d.chartsMu.RLock()
	defer d.chartsMu.RUnlock()
	for _, c := range d.charts {
		if c.Apply(ev) {
			d.logger.Debug("merged tick", zap.String("symbol", c.Symbol()), zap.Int64("received_at", ev.ReceivedAt))
		}
	}
}

// Watch starts displaying symbol at granularity g, replacing any chart already
// shown for symbol. The chart is registered even if its history fails to load,
// so the error stays visible through View.
func (d *Dashboard) Watch(ctx context.Context, symbol string, g series.Granularity) (*Chart, error) {
	symbol = memorystore.NormalizeSymbol(symbol)
	if _, err := series.Resolve(g); err != nil {
		return nil, err
	}
	if !d.symbols.Contains(symbol) {
		d.logger.Warn("watching a symbol the tick source does not track", zap.String("symbol", symbol))
	}

	c := newChart(symbol, d.history, d.logger)

	d.chartsMu.Lock()
	d.charts[symbol] = c
	d.chartsMu.Unlock()

	return c, c.SetGranularity(ctx, g)
}

// Unwatch discards the chart for symbol.
func (d *Dashboard) Unwatch(symbol string) {
	symbol = memorystore.NormalizeSymbol(symbol)
	d.chartsMu.Lock()
	defer d.chartsMu.Unlock()
	delete(d.charts, symbol)
}

func (d *Dashboard) Chart(symbol string) (*Chart, bool) {
	symbol = memorystore.NormalizeSymbol(symbol)
	d.chartsMu.RLock()
	defer d.chartsMu.RUnlock()
	c, ok := d.charts[symbol]
	return c, ok
}

// Charts returns the displayed charts ordered by symbol.
func (d *Dashboard) Charts() []*Chart {
	d.chartsMu.RLock()
	out := make([]*Chart, 0, len(d.charts))
	for _, c := range d.charts {
		out = append(out, c)
	}
	d.chartsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}

// Symbols returns the symbols the tick source follows.
func (d *Dashboard) Symbols() []string {
	return d.symbols.GetAll()
}

// Events returns the ring contents in slot order.
func (d *Dashboard) Events() []ticks.Event {
	return d.ring.Snapshot()
}

// ResetEvents clears the event ring.
func (d *Dashboard) ResetEvents() {
	d.ring.Reset()
	d.logger.Info("event ring cleared")
}
