package dashboard

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"tickdash/internal/memorystore"
	"tickdash/internal/series"
	"tickdash/internal/ticks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// manualSource hands its onEvent to the test.
type manualSource struct {
	mu        sync.Mutex
	onEvent   func(ticks.Event)
	symbols   []string
	cancelled bool
	started   chan struct{}
}

func newManualSource() *manualSource {
	return &manualSource{started: make(chan struct{})}
}

func (s *manualSource) Start(ctx context.Context, symbols []string, onEvent func(ticks.Event)) func() {
	s.mu.Lock()
	s.onEvent = onEvent
	s.symbols = symbols
	s.mu.Unlock()
	close(s.started)
	return func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
	}
}

func (s *manualSource) emit(prices map[string]string, at int64) {
	s.onEvent(ticks.NewPriceTick(prices, time.UnixMilli(at)))
}

// fakeLoader serves a fixed series per granularity and records requests.
type fakeLoader struct {
	mu     sync.Mutex
	series map[series.Granularity][]series.Point
	err    error
	calls  []series.Granularity
	block  map[series.Granularity]chan struct{}
	begun  chan series.Granularity
}

func (l *fakeLoader) Load(ctx context.Context, symbol string, g series.Granularity) ([]series.Point, error) {
	l.mu.Lock()
	l.calls = append(l.calls, g)
	wait := l.block[g]
	l.mu.Unlock()

	if l.begun != nil {
		l.begun <- g
	}
	if wait != nil {
		<-wait
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.series[g], nil
}

func history(n int, last float64, step int64) []series.Point {
	out := make([]series.Point, n)
	for i := range out {
		out[i] = series.Point{
			Time:  int64(i+1) * step,
			Price: decimal.NewFromFloat(last - float64(n-1-i)*10),
		}
	}
	return out
}

func newTestDashboard(t *testing.T, src ticks.Source, loader HistoryLoader, symbols ...string) *Dashboard {
	t.Helper()
	ring, err := memorystore.NewEventRing(memorystore.DefaultRingCapacity)
	require.NoError(t, err)

	d, err := New(Options{
		Source:  src,
		Ring:    ring,
		History: loader,
		Symbols: memorystore.NewSymbolSet(symbols...),
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	return d
}

func runDashboard(t *testing.T, d *Dashboard) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("dashboard did not stop")
		}
	}
}

// go test -v --run TestEndToEndEthereum
func TestEndToEndEthereum(t *testing.T) {
	src := newManualSource()
	loader := &fakeLoader{series: map[series.Granularity][]series.Point{
		series.Granularity7D: history(7, 2000, 86_400_000),
	}}
	d := newTestDashboard(t, src, loader, "ethereum")

	chart, err := d.Watch(context.Background(), "ethereum", series.Granularity7D)
	require.NoError(t, err)
	require.Len(t, chart.View().Points, 7)

	stop := runDashboard(t, d)
	defer stop()
	<-src.started

	src.emit(map[string]string{"ethereum": "2100.50"}, 1_700_000_000_000)

	require.Eventually(t, func() bool {
		pts := chart.View().Points
		return len(pts) == 7 && pts[6].Price.Equal(decimal.RequireFromString("2100.50"))
	}, 2*time.Second, 5*time.Millisecond)

	view := chart.View()
	assert.Equal(t, int64(1_700_000_000_000), view.Points[6].Time)
	assert.True(t, view.Points[0].Price.Equal(decimal.NewFromInt(1950)), "oldest point should be evicted")

	want, ok := series.PercentChange(view.Points)
	require.True(t, ok)
	require.True(t, view.HasChange)
	assert.True(t, view.PercentChange.Equal(want))

	require.Eventually(t, func() bool { return len(d.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ticks.KindPriceTick, d.Events()[0].Kind)
}

// go test -v --run TestTickerSymbolMergesThroughSource
func TestTickerSymbolMergesThroughSource(t *testing.T) {
	src := newManualSource()
	loader := &fakeLoader{series: map[series.Granularity][]series.Point{
		series.Granularity7D: history(7, 2000, 86_400_000),
	}}
	d := newTestDashboard(t, src, loader, "ETH")

	chart, err := d.Watch(context.Background(), " ETH ", series.Granularity7D)
	require.NoError(t, err)
	assert.Equal(t, "ETH", chart.Symbol())

	stop := runDashboard(t, d)
	defer stop()
	<-src.started
	require.Equal(t, []string{"ETH"}, src.symbols)

	// the tick is keyed by the symbol the source was asked for
	src.emit(map[string]string{src.symbols[0]: "2100.50"}, 1_700_000_000_000)

	require.Eventually(t, func() bool {
		last, ok := lastPoint(chart.View())
		return ok && last.Price.Equal(decimal.RequireFromString("2100.50"))
	}, 2*time.Second, 5*time.Millisecond)

	view := chart.View()
	assert.Len(t, view.Points, 7)
	assert.True(t, view.Points[0].Price.Equal(decimal.NewFromInt(1950)))
	assert.True(t, view.HasChange)

	registered, ok := d.Chart("ETH")
	require.True(t, ok)
	assert.Same(t, chart, registered)
}

func lastPoint(view ChartView) (series.Point, bool) {
	if len(view.Points) == 0 {
		return series.Point{}, false
	}
	return view.Points[len(view.Points)-1], true
}

// go test -v --run TestGranularitySwitchRefetches
func TestGranularitySwitchRefetches(t *testing.T) {
	hourly := history(24, 3000, 3_600_000)
	daily := history(7, 500, 86_400_000)
	loader := &fakeLoader{series: map[series.Granularity][]series.Point{
		series.Granularity1H: hourly,
		series.Granularity7D: daily,
	}}
	d := newTestDashboard(t, newManualSource(), loader, "bitcoin")

	chart, err := d.Watch(context.Background(), "bitcoin", series.Granularity1H)
	require.NoError(t, err)
	assert.Len(t, chart.View().Points, 24)

	require.NoError(t, chart.SetGranularity(context.Background(), series.Granularity7D))

	view := chart.View()
	assert.Equal(t, series.Granularity7D, view.Granularity)
	assert.Equal(t, daily, view.Points, "window must come from the fresh fetch, not a trimmed hourly window")
	assert.Equal(t, []series.Granularity{series.Granularity1H, series.Granularity7D}, loader.calls)
}

func TestStaleLoadIsDropped(t *testing.T) {
	release := make(chan struct{})
	loader := &fakeLoader{
		series: map[series.Granularity][]series.Point{
			series.Granularity1H: history(24, 3000, 3_600_000),
			series.Granularity7D: history(7, 500, 86_400_000),
		},
		block: map[series.Granularity]chan struct{}{series.Granularity1H: release},
		begun: make(chan series.Granularity, 2),
	}
	chart := newChart("bitcoin", loader, zap.NewNop())

	slow := make(chan error, 1)
	go func() { slow <- chart.SetGranularity(context.Background(), series.Granularity1H) }()
	<-loader.begun

	require.NoError(t, chart.SetGranularity(context.Background(), series.Granularity7D))
	<-loader.begun
	close(release)
	require.NoError(t, <-slow)

	view := chart.View()
	assert.Equal(t, series.Granularity7D, view.Granularity)
	assert.Len(t, view.Points, 7)
}

func TestWatchLoadFailureIsVisible(t *testing.T) {
	loader := &fakeLoader{err: errors.New("503 service unavailable")}
	d := newTestDashboard(t, newManualSource(), loader, "bitcoin")

	chart, err := d.Watch(context.Background(), "bitcoin", series.Granularity1D)
	require.Error(t, err)
	require.NotNil(t, chart)

	view := chart.View()
	assert.Equal(t, LoadErrorMessage, view.Error)
	assert.Empty(t, view.Points)

	registered, ok := d.Chart("bitcoin")
	assert.True(t, ok)
	assert.Same(t, chart, registered)

	assert.False(t, chart.Apply(ticks.NewPriceTick(map[string]string{"bitcoin": "1"}, time.Now())))
}

func TestWatchUnknownGranularity(t *testing.T) {
	d := newTestDashboard(t, newManualSource(), &fakeLoader{}, "bitcoin")

	_, err := d.Watch(context.Background(), "bitcoin", "2w")
	assert.True(t, errors.Is(err, series.ErrUnknownGranularity))
	_, ok := d.Chart("bitcoin")
	assert.False(t, ok)
}

func TestUnwatchDiscardsChart(t *testing.T) {
	loader := &fakeLoader{series: map[series.Granularity][]series.Point{
		series.Granularity1D: history(24, 100, 3_600_000),
	}}
	d := newTestDashboard(t, newManualSource(), loader, "bitcoin", "ethereum")

	_, err := d.Watch(context.Background(), "ethereum", series.Granularity1D)
	require.NoError(t, err)
	_, err = d.Watch(context.Background(), "bitcoin", series.Granularity1D)
	require.NoError(t, err)

	charts := d.Charts()
	require.Len(t, charts, 2)
	assert.Equal(t, "bitcoin", charts[0].Symbol())

	d.Unwatch("bitcoin")
	_, ok := d.Chart("bitcoin")
	assert.False(t, ok)
	assert.Len(t, d.Charts(), 1)
}

// go test -v --run TestRunFeedsRingInReceiptOrder
func TestRunFeedsRingInReceiptOrder(t *testing.T) {
	src := newManualSource()
	d := newTestDashboard(t, src, &fakeLoader{}, "bitcoin")

	stop := runDashboard(t, d)
	<-src.started
	assert.Equal(t, []string{"bitcoin"}, src.symbols)

	for i := 0; i < memorystore.DefaultRingCapacity+2; i++ {
		src.emit(map[string]string{"bitcoin": strconv.Itoa(i)}, int64(1000+i))
	}

	require.Eventually(t, func() bool {
		evs := d.Events()
		return len(evs) == memorystore.DefaultRingCapacity && evs[1].Prices["bitcoin"] == "9"
	}, 2*time.Second, 5*time.Millisecond)

	chrono := memorystore.Chronological(d.Events())
	assert.Equal(t, "2", chrono[0].Prices["bitcoin"])
	assert.Equal(t, "9", chrono[len(chrono)-1].Prices["bitcoin"])

	stop()
	src.mu.Lock()
	assert.True(t, src.cancelled)
	src.mu.Unlock()

	d.ResetEvents()
	assert.Empty(t, d.Events())
}

func TestPublishStampsEvent(t *testing.T) {
	src := newManualSource()
	d := newTestDashboard(t, src, &fakeLoader{}, "bitcoin")
	d.now = func() time.Time { return time.UnixMilli(777) }

	stop := runDashboard(t, d)
	defer stop()

	d.Publish(ticks.Event{Kind: ticks.KindInfo, Message: "Weather Alert: Rain expected at 3 PM"})

	require.Eventually(t, func() bool { return len(d.Events()) == 1 }, time.Second, 5*time.Millisecond)
	ev := d.Events()[0]
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, int64(777), ev.ReceivedAt)
	assert.Equal(t, ticks.KindInfo, ev.Kind)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	d := newTestDashboard(t, newManualSource(), &fakeLoader{}, "bitcoin")
	stop := runDashboard(t, d)
	stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultQueueSize+1; i++ {
			d.Publish(ticks.Event{Kind: ticks.KindInfo})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Run returned")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
