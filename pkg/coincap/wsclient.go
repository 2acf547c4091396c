package coincap

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient streams price updates from the CoinCap prices websocket.
type WSClient struct {
	url            string
	assets         []string
	reconnectDelay time.Duration
	handler        func([]byte)
	logger         *zap.Logger
	dial           func(ctx context.Context, endpoint string) (*websocket.Conn, error)

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a client for the given endpoint and asset ids.
func NewWSClient(baseURL string, assets []string, reconnectDelay time.Duration, logger *zap.Logger) *WSClient {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	return &WSClient{
		url:            baseURL,
		assets:         append([]string(nil), assets...),
		reconnectDelay: reconnectDelay,
		logger:         logger,
		dial:           dialContext,
	}
}

func dialContext(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	return conn, err
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Endpoint returns the dial URL including the assets query.
func (c *WSClient) Endpoint() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse ws url: %w", err)
	}
	q := u.Query()
	q.Set("assets", strings.Join(c.assets, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the websocket. It does not start the listener.
// A connection that completes after ctx is done is closed, not kept.
func (c *WSClient) Connect(ctx context.Context) error {
	endpoint, err := c.Endpoint()
	if err != nil {
		return err
	}

	conn, err := c.dial(ctx, endpoint)
	if err != nil {
		c.logger.Error("failed to connect to websocket", zap.String("url", endpoint), zap.Error(err))
		return err
	}

	// checked under mu: Close on cancel takes the same lock
	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return err
	}
	old := c.conn
	c.conn = conn
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	c.logger.Info("websocket connected", zap.String("url", endpoint))
	return nil
}

// Listen reads messages until ctx is done, reconnecting after read errors.
// Without a live connection it reconnects before reading.
func (c *WSClient) Listen(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("websocket read error", zap.Error(err))
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()
			continue
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// reconnect retries Connect every reconnectDelay until it succeeds or ctx is done.
func (c *WSClient) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectDelay):
		}

		if err := c.Connect(ctx); err != nil {
			c.logger.Warn("retrying reconnect...", zap.Error(err))
			continue
		}
		c.logger.Info("reconnected successfully")
		return true
	}
}

// Close closes the current connection, if any.
func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}
