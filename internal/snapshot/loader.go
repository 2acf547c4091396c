package snapshot

import (
	"context"
	"fmt"
	"time"

	"tickdash/internal/series"
	"tickdash/pkg/coincap"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HistoryClient is the part of the CoinCap REST client the loader needs.
type HistoryClient interface {
	GetHistory(ctx context.Context, id string, interval coincap.Interval, start, end time.Time) ([]coincap.HistoryRow, error)
}

// HistoryLoader fetches the historical series a chart is seeded with.
type HistoryLoader struct {
	Client  HistoryClient
	Logger  *zap.Logger
	Timeout time.Duration
	Now     func() time.Time
}

// Load fetches the history of symbol sized by the granularity's policy.
// The result is time-ascending and holds at most Policy.HistoryPoints points.
func (l *HistoryLoader) Load(ctx context.Context, symbol string, g series.Granularity) ([]series.Point, error) {
	policy, err := series.Resolve(g)
	if err != nil {
		return nil, err
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	end := now()
	start := end.Add(-policy.Span())

	rows, err := l.Client.GetHistory(ctx, symbol, policy.Interval, start, end)
	if err != nil {
		l.Logger.Error("failed to fetch price history", zap.String("symbol", symbol),
			zap.String("granularity", string(g)), zap.Error(err))
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	points := ParseHistory(rows)
	if skipped := len(rows) - len(points); skipped > 0 {
		l.Logger.Warn("skipped invalid history rows", zap.String("symbol", symbol), zap.Int("skipped", skipped))
	}

	if len(points) > policy.HistoryPoints {
		points = points[len(points)-policy.HistoryPoints:]
	}

	l.Logger.Info("loaded price history", zap.String("symbol", symbol),
		zap.String("granularity", string(g)), zap.Int("points", len(points)))
	return points, nil
}

// ParseHistory converts CoinCap rows into series points.
// It skips rows with an unparsable price or a missing time.
func ParseHistory(rows []coincap.HistoryRow) []series.Point {
	out := make([]series.Point, 0, len(rows))
	for _, row := range rows {
		if row.Time <= 0 {
			continue
		}
		price, err := decimal.NewFromString(row.PriceUsd)
		if err != nil {
			continue
		}
		out = append(out, series.Point{Time: row.Time, Price: price})
	}
	return out
}
