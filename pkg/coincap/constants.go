package coincap

import (
	"fmt"
	"time"
)

// Interval is the candle resolution accepted by the history endpoint.
type Interval string

// IntervalMeta holds the API value and the wall-clock length of one step.
type IntervalMeta struct {
	APIValue string
	Step     time.Duration
}

const (
	Interval1Min  Interval = "m1"
	Interval5Min  Interval = "m5"
	Interval15Min Interval = "m15"
	Interval30Min Interval = "m30"
	Interval1H    Interval = "h1"
	Interval2H    Interval = "h2"
	Interval6H    Interval = "h6"
	Interval12H   Interval = "h12"
	IntervalDaily Interval = "d1"
)

var validIntervals = map[Interval]IntervalMeta{
	Interval1Min:  {APIValue: "m1", Step: time.Minute},
	Interval5Min:  {APIValue: "m5", Step: 5 * time.Minute},
	Interval15Min: {APIValue: "m15", Step: 15 * time.Minute},
	Interval30Min: {APIValue: "m30", Step: 30 * time.Minute},
	Interval1H:    {APIValue: "h1", Step: time.Hour},
	Interval2H:    {APIValue: "h2", Step: 2 * time.Hour},
	Interval6H:    {APIValue: "h6", Step: 6 * time.Hour},
	Interval12H:   {APIValue: "h12", Step: 12 * time.Hour},
	IntervalDaily: {APIValue: "d1", Step: 24 * time.Hour},
}

// IsValid checks if the Interval is one the history endpoint accepts.
func (i Interval) IsValid() bool {
	_, ok := validIntervals[i]
	return ok
}

// Step returns the duration of one interval, or zero if unknown.
func (i Interval) Step() time.Duration {
	return validIntervals[i].Step
}

// ParseInterval parses a string into a valid IntervalMeta
func ParseInterval(s string) (IntervalMeta, error) {
	meta, ok := validIntervals[Interval(s)]
	if !ok {
		return IntervalMeta{}, fmt.Errorf("invalid interval: %s", s)
	}
	return meta, nil
}
