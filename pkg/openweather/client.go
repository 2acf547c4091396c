package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrMissingAPIKey is returned when no OpenWeatherMap key is configured.
var ErrMissingAPIKey = errors.New("openweathermap api key is missing")

// Weather is the current weather of one city.
type Weather struct {
	Name        string
	Temp        float64 // Celsius
	Humidity    int
	Description string
	Time        time.Time
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Dt      int64  `json:"dt"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Current fetches the current weather for city in metric units.
func (c *Client) Current(ctx context.Context, city string) (Weather, error) {
	if c.apiKey == "" {
		return Weather{}, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Weather{}, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Weather{}, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Weather{}, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	var parsed currentResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if decodeErr == nil && parsed.Message != "" {
			msg = parsed.Message
		}
		return Weather{}, fmt.Errorf("failed to fetch weather data: %s", msg)
	}
	if decodeErr != nil {
		return Weather{}, fmt.Errorf("failed to fetch weather data: decode: %w", decodeErr)
	}

	w := Weather{
		Name:     parsed.Name,
		Temp:     parsed.Main.Temp,
		Humidity: parsed.Main.Humidity,
	}
	if len(parsed.Weather) > 0 {
		w.Description = parsed.Weather[0].Description
	}
	if parsed.Dt > 0 {
		w.Time = time.Unix(parsed.Dt, 0)
	}
	return w, nil
}
