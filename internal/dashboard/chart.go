package dashboard

import (
	"context"
	"sync"

	"tickdash/internal/series"
	"tickdash/internal/ticks"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoadErrorMessage is what a chart shows when its history could not be loaded.
const LoadErrorMessage = "Failed to load price data. Please try again later."

// HistoryLoader fetches the seed series for a chart.
type HistoryLoader interface {
	Load(ctx context.Context, symbol string, g series.Granularity) ([]series.Point, error)
}

// Chart is the live view of one symbol at one granularity.
type Chart struct {
	symbol string
	loader HistoryLoader
	logger *zap.Logger

	mu          sync.Mutex
	granularity series.Granularity
	policy      series.Policy
	window      *series.Window
	err         error
	generation  uint64
}

// ChartView is a copy of a chart's state for rendering.
type ChartView struct {
	Symbol        string
	Granularity   series.Granularity
	Layout        string
	Points        []series.Point
	PercentChange decimal.Decimal
	HasChange     bool
	Error         string
}

func newChart(symbol string, loader HistoryLoader, logger *zap.Logger) *Chart {
	return &Chart{
		symbol: symbol,
		loader: loader,
		logger: logger.With(zap.String("symbol", symbol)),
	}
}

func (c *Chart) Symbol() string { return c.symbol }

// SetGranularity drops the current window and builds a new one from a fresh
// history fetch sized for g. The old window is never resized in place.
// If a newer call starts before this one finishes, this call's result is dropped.
func (c *Chart) SetGranularity(ctx context.Context, g series.Granularity) error {
	policy, err := series.Resolve(g)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.granularity = g
	c.policy = policy
	c.window = nil
	c.err = nil
	c.mu.Unlock()

	history, err := c.loader.Load(ctx, c.symbol, g)
	var window *series.Window
	if err == nil {
		window, err = series.Initialize(c.symbol, history, policy.WindowSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("dropping stale history load", zap.String("granularity", string(g)))
		return nil
	}
	if err != nil {
		c.err = err
		c.logger.Warn("chart load failed", zap.String("granularity", string(g)), zap.Error(err))
		return err
	}
	c.window = window
	return nil
}

// Apply merges ev into the window. It reports whether the window changed.
func (c *Chart) Apply(ev ticks.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.window == nil {
		return false
	}
	return c.window.ApplyEvent(ev)
}

// View returns a snapshot of the chart.
func (c *Chart) View() ChartView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := ChartView{
		Symbol:      c.symbol,
		Granularity: c.granularity,
		Layout:      c.policy.Layout,
	}
	if c.err != nil {
		v.Error = LoadErrorMessage
	}
	if c.window != nil {
		v.Points = c.window.Points()
		v.PercentChange, v.HasChange = c.window.PercentChange()
	}
	return v
}
