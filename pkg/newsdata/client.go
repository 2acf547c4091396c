package newsdata

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

// MaxArticles is how many articles CryptoNews returns at most.
const MaxArticles = 5

var ErrMissingAPIKey = errors.New("newsdata api key is missing")

type Article struct {
	Title   string
	Content string
	Date    string
	Link    string
}

type newsResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		PubDate     *string `json:"pubDate"`
		Link        *string `json:"link"`
	} `json:"results"`
}

type Client struct {
	baseURL    string
	apiKey     string
	query      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, query string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		query:      query,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CryptoNews fetches the latest articles matching the configured query.
// Missing fields are replaced with placeholders.
func (c *Client) CryptoNews(ctx context.Context) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("q", c.query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("newsdata error: status %d: %s", resp.StatusCode, body)
	}

	var parsed newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := parsed.Results
	if len(results) > MaxArticles {
		results = results[:MaxArticles]
	}

	articles := make([]Article, 0, len(results))
	for _, r := range results {
		articles = append(articles, Article{
			Title:   orDefault(r.Title, "No Title"),
			Content: orDefault(r.Description, "No Content"),
			Date:    orDefault(r.PubDate, "Unknown Date"),
			Link:    orDefault(r.Link, "#"),
		})
	}
	return articles, nil
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
