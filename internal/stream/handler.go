package stream

import (
	"encoding/json"
	"time"

	"tickdash/internal/ticks"

	"go.uber.org/zap"
)

// PriceMessage is one CoinCap prices websocket frame, e.g. {"bitcoin":"6929.82"}.
type PriceMessage map[string]string

// MakeMessageHandler returns a function that turns websocket frames into
// price_tick events stamped with the receive time.
func MakeMessageHandler(logger *zap.Logger, emit func(ticks.Event) bool, now func() time.Time) func(msg []byte) {
	return func(msg []byte) {
		var parsed PriceMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			logger.Warn("failed to parse price message", zap.ByteString("msg", msg), zap.Error(err))
			return
		}
		if len(parsed) == 0 {
			return
		}

		if !emit(ticks.NewPriceTick(parsed, now())) {
			logger.Debug("discarding price message after cancel")
		}
	}
}
