package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tickdash/internal/ticks"
	"tickdash/pkg/openweather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWeather struct {
	mu     sync.Mutex
	cities []string
	err    error
}

func (f *fakeWeather) Current(ctx context.Context, city string) (openweather.Weather, error) {
	f.mu.Lock()
	f.cities = append(f.cities, city)
	f.mu.Unlock()
	if f.err != nil {
		return openweather.Weather{}, f.err
	}
	return openweather.Weather{Name: city, Temp: 21.04, Humidity: 40, Description: "clear sky"}, nil
}

func TestNextRotatesCities(t *testing.T) {
	f := &fakeWeather{}
	a := NewWeatherAlerter(f, []string{"London", "Tokyo"}, time.Second, zap.NewNop())

	first := a.Next(context.Background())
	second := a.Next(context.Background())
	third := a.Next(context.Background())

	assert.Equal(t, ticks.KindInfo, first.Kind)
	assert.Equal(t, "Weather Alert: London: clear sky, 21.0°C, humidity 40%", first.Message)
	assert.Contains(t, second.Message, "Tokyo")
	assert.Contains(t, third.Message, "London")
	assert.Equal(t, []string{"London", "Tokyo", "London"}, f.cities)
}

func TestNextFetchFailureIsErrorEvent(t *testing.T) {
	a := NewWeatherAlerter(&fakeWeather{err: errors.New("city not found")}, []string{"Atlantis"}, time.Second, zap.NewNop())

	ev := a.Next(context.Background())
	assert.Equal(t, ticks.KindError, ev.Kind)
	assert.Contains(t, ev.Message, "Atlantis")
	assert.Contains(t, ev.Message, "city not found")
}

func TestNextWithoutFetcherUsesCannedAlerts(t *testing.T) {
	a := NewWeatherAlerter(nil, nil, time.Second, zap.NewNop())
	a.pick = func(n int) int { return n - 1 }

	ev := a.Next(context.Background())
	assert.Equal(t, ticks.KindInfo, ev.Kind)
	assert.Equal(t, "Weather Alert: Wind gusts up to 20 mph", ev.Message)
}

// go test -v --run TestStartPublishesUntilStopped
func TestStartPublishesUntilStopped(t *testing.T) {
	a := NewWeatherAlerter(nil, nil, 10*time.Millisecond, zap.NewNop())

	var mu sync.Mutex
	var got []ticks.Event
	stop := a.Start(context.Background(), func(ev ticks.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	stop()
	mu.Lock()
	n := len(got)
	for _, ev := range got {
		assert.Contains(t, CannedAlerts, ev.Message)
	}
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(got), "no alert after stop")
	mu.Unlock()
}
