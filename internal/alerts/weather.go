package alerts

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tickdash/internal/scheduler"
	"tickdash/internal/ticks"
	"tickdash/pkg/openweather"

	"go.uber.org/zap"
)

// DefaultInterval is how often a weather alert is published.
const DefaultInterval = 10 * time.Second

// CannedAlerts are published when no weather client is configured.
var CannedAlerts = []string{
	"Weather Alert: Sunny with a high of 75°F",
	"Weather Alert: Rain expected at 3 PM",
	"Weather Alert: Wind gusts up to 20 mph",
}

type WeatherFetcher interface {
	Current(ctx context.Context, city string) (openweather.Weather, error)
}

// WeatherAlerter publishes one info event per interval, rotating through cities.
type WeatherAlerter struct {
	fetcher  WeatherFetcher
	cities   []string
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	pick     func(n int) int

	mu   sync.Mutex
	next int
}

// NewWeatherAlerter builds an alerter. A nil fetcher or an empty city list
// falls back to the canned alerts.
func NewWeatherAlerter(fetcher WeatherFetcher, cities []string, interval time.Duration, logger *zap.Logger) *WeatherAlerter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherAlerter{
		fetcher:  fetcher,
		cities:   append([]string(nil), cities...),
		interval: interval,
		logger:   logger.Named("alerts"),
		now:      time.Now,
		pick:     rand.Intn,
	}
}

// Start publishes alerts until the returned stop func is called or ctx is done.
func (a *WeatherAlerter) Start(ctx context.Context, publish func(ticks.Event)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	gate := ticks.NewGate(publish)

	scheduler.Start(ctx, a.interval, func(runCtx context.Context) {
		ev := a.Next(runCtx)
		if runCtx.Err() != nil {
			return
		}
		gate.Emit(ev)
	})

	return func() {
		cancel()
		gate.Close()
	}
}

// Next builds the next alert event.
func (a *WeatherAlerter) Next(ctx context.Context) ticks.Event {
	if a.fetcher == nil || len(a.cities) == 0 {
		msg := CannedAlerts[a.pick(len(CannedAlerts))]
		return ticks.NewMessage(ticks.KindInfo, msg, a.now())
	}

	a.mu.Lock()
	city := a.cities[a.next%len(a.cities)]
	a.next++
	a.mu.Unlock()

	w, err := a.fetcher.Current(ctx, city)
	if err != nil {
		a.logger.Warn("weather fetch failed", zap.String("city", city), zap.Error(err))
		return ticks.NewMessage(ticks.KindError, fmt.Sprintf("Weather unavailable for %s: %v", city, err), a.now())
	}

	name := w.Name
	if name == "" {
		name = city
	}
	msg := fmt.Sprintf("Weather Alert: %s: %s, %.1f°C, humidity %d%%", name, w.Description, w.Temp, w.Humidity)
	return ticks.NewMessage(ticks.KindInfo, msg, a.now())
}
