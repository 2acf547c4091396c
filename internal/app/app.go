package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"tickdash/config"
	"tickdash/internal/alerts"
	"tickdash/internal/dashboard"
	"tickdash/internal/memorystore"
	"tickdash/internal/render"
	"tickdash/internal/series"
	"tickdash/internal/snapshot"
	"tickdash/internal/stream"
	"tickdash/internal/ticks"
	"tickdash/pkg/coincap"
	"tickdash/pkg/newsdata"
	"tickdash/pkg/openweather"

	"go.uber.org/zap"
)

const defaultRenderInterval = 5 * time.Second

// Run builds the dashboard from cfg and keeps it running until ctx is done.
// Panels are redrawn to out every cfg.Render.Interval.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	restClient := coincap.NewRESTClient(cfg.CoinCap.REST.BaseURL, cfg.CoinCap.REST.APIKey, cfg.CoinCap.REST.Timeout)

	ring, err := memorystore.NewEventRing(cfg.Ring.Capacity)
	if err != nil {
		return fmt.Errorf("failed to create event ring: %w", err)
	}

	d, err := dashboard.New(dashboard.Options{
		Source:  newSource(cfg, restClient, logger),
		Ring:    ring,
		History: &snapshot.HistoryLoader{Client: restClient, Logger: logger, Timeout: cfg.CoinCap.REST.Timeout},
		Symbols: memorystore.NewSymbolSet(cfg.Tracker.Symbols...),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	// Charts load concurrently; a failed load stays visible on its panel.
	var wg sync.WaitGroup
	for _, cc := range cfg.Charts {
		cc := cc
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Watch(ctx, cc.Symbol, series.Granularity(cc.Granularity)); err != nil {
				logger.Warn("failed to load chart", zap.String("symbol", cc.Symbol), zap.String("granularity", cc.Granularity), zap.Error(err))
			}
		}()
	}

	var fetcher alerts.WeatherFetcher
	if cfg.Weather.APIKey != "" {
		fetcher = openweather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout)
	} else {
		logger.Info("no weather api key, publishing canned alerts")
	}
	stopAlerts := alerts.NewWeatherAlerter(fetcher, cfg.Weather.Cities, cfg.Weather.AlertInterval, logger).Start(ctx, d.Publish)
	defer stopAlerts()

	news := loadNews(ctx, cfg, d, logger)
	assets := loadAssets(ctx, restClient, d, logger)
	wg.Wait()

	r := render.New(time.Local)
	draw := func() {
		for _, c := range d.Charts() {
			r.Chart(out, c.View())
		}
		events := d.Events()
		r.Assets(out, assets, memorystore.LatestPrices(events))
		r.Events(out, events)
		r.News(out, news)
		fmt.Fprintln(out)
	}

	interval := cfg.Render.Interval
	if interval <= 0 {
		interval = defaultRenderInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			stopAlerts()
			return <-runErr
		case <-ticker.C:
			draw()
		}
	}
}

func newSource(cfg *config.Config, restClient *coincap.RESTClient, logger *zap.Logger) ticks.Source {
	if cfg.Tracker.Source == "stream" {
		return &stream.Source{URL: cfg.CoinCap.WS.URL, ReconnectDelay: cfg.CoinCap.WS.ReconnectDelay, Logger: logger}
	}
	return ticks.NewPoller(restClient, cfg.Tracker.PollInterval, logger)
}

// loadAssets fetches the market summary once. Failures are published as error events.
func loadAssets(ctx context.Context, client *coincap.RESTClient, d *dashboard.Dashboard, logger *zap.Logger) []coincap.Asset {
	ids := d.Symbols()
	assets, err := client.GetAssets(ctx, ids)
	if err != nil {
		logger.Warn("failed to fetch asset summary", zap.Strings("ids", ids), zap.Error(err))
		d.Publish(ticks.Event{Kind: ticks.KindError, Message: "Failed to load market data: " + err.Error()})
		return nil
	}
	return assets
}

// loadNews fetches the news panel once. Failures are published as error events.
func loadNews(ctx context.Context, cfg *config.Config, d *dashboard.Dashboard, logger *zap.Logger) []newsdata.Article {
	client := newsdata.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Query, cfg.News.Timeout)
	articles, err := client.CryptoNews(ctx)
	if err == nil {
		return articles
	}

	if errors.Is(err, newsdata.ErrMissingAPIKey) {
		logger.Info("no newsdata api key, news panel disabled")
	} else {
		logger.Warn("failed to fetch news", zap.Error(err))
	}
	d.Publish(ticks.Event{Kind: ticks.KindError, Message: "Failed to load news: " + err.Error()})
	return nil
}
