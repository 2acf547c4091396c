package ticks

import (
	"context"
	"time"

	"tickdash/internal/scheduler"

	"go.uber.org/zap"
)

// PriceFetcher returns the current price text per symbol.
type PriceFetcher interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]string, error)
}

// Poller fetches prices on a fixed interval and emits one price_tick per successful fetch.
type Poller struct {
	fetcher  PriceFetcher
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewPoller(fetcher PriceFetcher, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start polls immediately and then every interval. Fetch failures are logged and
// skipped; only cancel stops the loop. Fetches still in flight when cancel is
// called run to completion but their results are dropped.
func (p *Poller) Start(ctx context.Context, symbols []string, onEvent func(Event)) func() {
	ctx, stop := context.WithCancel(ctx)
	gate := NewGate(onEvent)
	syms := append([]string(nil), symbols...)

	p.logger.Info("price polling started", zap.Strings("symbols", syms), zap.Duration("interval", p.interval))

	scheduler.Start(ctx, p.interval, func(runCtx context.Context) {
		p.poll(context.WithoutCancel(runCtx), syms, gate)
	})

	return func() {
		stop()
		gate.Close()
		p.logger.Info("price polling stopped")
	}
}

func (p *Poller) poll(ctx context.Context, symbols []string, gate *Gate) {
	prices, err := p.fetcher.GetPrices(ctx, symbols)
	if err != nil {
		p.logger.Warn("failed to fetch prices", zap.Strings("symbols", symbols), zap.Error(err))
		return
	}

	ev := NewPriceTick(prices, p.now())
	if !gate.Emit(ev) {
		p.logger.Debug("discarding prices fetched after cancel", zap.Int("count", len(prices)))
	}
}
