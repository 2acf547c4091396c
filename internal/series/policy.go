package series

import (
	"errors"
	"fmt"
	"time"

	"tickdash/pkg/coincap"
)

// Granularity is the time resolution selected for a chart.
type Granularity string

const (
	Granularity1H  Granularity = "1h"
	Granularity6H  Granularity = "6h"
	Granularity12H Granularity = "12h"
	Granularity1D  Granularity = "1d"
	Granularity7D  Granularity = "7d"
	Granularity30D Granularity = "30d"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

// Policy is the sizing used both for the historical fetch and the live window.
type Policy struct {
	Granularity   Granularity
	Interval      coincap.Interval
	HistoryPoints int
	WindowSize    int
	Layout        string // time.Format layout for point labels
}

// Span is the time range the historical fetch has to cover.
func (p Policy) Span() time.Duration {
	return time.Duration(p.HistoryPoints) * p.Interval.Step()
}

// points per granularity; the same count sizes the fetch and the live window
var policies = map[Granularity]struct {
	interval coincap.Interval
	points   int
	layout   string
}{
	Granularity1H:  {coincap.Interval1H, 24, "15:04"},
	Granularity6H:  {coincap.Interval1H, 24 * 6, "15:04, 02 Jan"},
	Granularity12H: {coincap.Interval1H, 12, "15:04, 02 Jan"},
	Granularity1D:  {coincap.Interval1H, 24, "02 Jan"},
	Granularity7D:  {coincap.IntervalDaily, 7, "02 Jan 06"},
	Granularity30D: {coincap.IntervalDaily, 30, "02 Jan 06"},
}

// Resolve maps a granularity to its policy.
func Resolve(g Granularity) (Policy, error) {
	p, ok := policies[g]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	return Policy{
		Granularity:   g,
		Interval:      p.interval,
		HistoryPoints: p.points,
		WindowSize:    p.points,
		Layout:        p.layout,
	}, nil
}

// Granularities lists the supported tokens, finest first.
func Granularities() []Granularity {
	return []Granularity{
		Granularity1H, Granularity6H, Granularity12H,
		Granularity1D, Granularity7D, Granularity30D,
	}
}
