package coincap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRESTClient(baseURL, apiKey string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetAssets fetches the asset summaries for the given ids.
func (c *RESTClient) GetAssets(ctx context.Context, ids []string) ([]Asset, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no asset ids given")
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))

	var assets []Asset
	if err := c.get(ctx, "/assets?"+q.Encode(), &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetPrices returns the current USD price text per asset id.
// Assets without a price are left out of the map.
func (c *RESTClient) GetPrices(ctx context.Context, ids []string) (map[string]string, error) {
	assets, err := c.GetAssets(ctx, ids)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]string, len(assets))
	for _, a := range assets {
		if a.PriceUsd == nil || *a.PriceUsd == "" {
			continue
		}
		prices[a.ID] = *a.PriceUsd
	}
	return prices, nil
}

// GetHistory fetches the price history of one asset between start and end.
func (c *RESTClient) GetHistory(ctx context.Context, id string, interval Interval,
	start, end time.Time) ([]HistoryRow, error) {
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	endpoint := fmt.Sprintf(
		"/assets/%s/history?interval=%s&start=%d&end=%d",
		url.PathEscape(id),
		interval,
		start.UnixMilli(),
		end.UnixMilli(),
	)

	var rows []HistoryRow
	if err := c.get(ctx, endpoint, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("coincap error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw Response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if raw.Error != "" {
		return fmt.Errorf("coincap error: %s", raw.Error)
	}
	if len(raw.Data) == 0 {
		return fmt.Errorf("decode response: missing data")
	}

	if err := json.Unmarshal(raw.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
