package coincap

import "encoding/json"

// Response is the envelope every CoinCap REST endpoint returns.
type Response struct {
	Data      json.RawMessage `json:"data"`      // Delay decoding, shape varies per endpoint
	Timestamp int64           `json:"timestamp"` // Server time in milliseconds since epoch
	Error     string          `json:"error"`     // Set on failures instead of data
}

// Asset is one entry of /assets. Numeric fields are decimal text.
type Asset struct {
	ID                string  `json:"id"`     // e.g. "bitcoin"
	Symbol            string  `json:"symbol"` // e.g. "BTC"
	Name              string  `json:"name"`
	PriceUsd          *string `json:"priceUsd"` // null for delisted assets
	ChangePercent24Hr *string `json:"changePercent24Hr"`
	MarketCapUsd      *string `json:"marketCapUsd"`
}

// HistoryRow is one entry of /assets/{id}/history.
type HistoryRow struct {
	PriceUsd string `json:"priceUsd"`
	Time     int64  `json:"time"` // milliseconds since epoch
	Date     string `json:"date"`
}
