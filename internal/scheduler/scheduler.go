package scheduler

import (
	"context"
	"time"
)

// Start runs fn once immediately and then on every tick of interval until ctx is done.
// Each run gets its own goroutine, so a slow run never delays or blocks the next tick
// and runs may overlap. No run is started once ctx is done.
func Start(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		run(ctx, ticker.C, fn)
	}()
}

func run(ctx context.Context, tick <-chan time.Time, fn func(context.Context)) {
	if ctx.Err() != nil {
		return
	}
	go fn(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			// select picks randomly when both are ready
			if ctx.Err() != nil {
				return
			}
			go fn(ctx)
		}
	}
}
