package stream

import (
	"context"
	"time"

	"tickdash/internal/ticks"
	"tickdash/pkg/coincap"

	"go.uber.org/zap"
)

// Source delivers price ticks pushed by the CoinCap prices websocket.
type Source struct {
	URL            string
	ReconnectDelay time.Duration
	Logger         *zap.Logger
}

// Start connects in the background and keeps reconnecting until cancelled.
// Frames read after cancel are dropped.
func (s *Source) Start(ctx context.Context, symbols []string, onEvent func(ticks.Event)) func() {
	ctx, stop := context.WithCancel(ctx)
	gate := ticks.NewGate(onEvent)

	client := coincap.NewWSClient(s.URL, symbols, s.ReconnectDelay, s.Logger)
	client.SetMessageHandler(MakeMessageHandler(s.Logger, gate.Emit, time.Now))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Connect(ctx); err != nil {
			s.Logger.Warn("initial websocket connect failed, retrying", zap.Error(err))
		}
		client.Listen(ctx)
	}()

	return func() {
		stop()
		gate.Close()
		<-done
		s.Logger.Info("price stream stopped")
	}
}
