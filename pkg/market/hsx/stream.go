package hsx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Channel names pushed on the streaming connection. These are a fixed
// external contract, not configurable.
const (
	EventMarketUpdate    = "marketUpdate"
	EventOrderBookUpdate = "orderBookUpdate"
)

// Envelope is the wire frame for every streamed event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StreamClient dials the back-office streaming endpoint.
type StreamClient struct {
	StreamURL string
	dialer    *websocket.Dialer
}

// NewStreamClient builds a websocket client for the given wss URL.
func NewStreamClient(streamURL string) *StreamClient {
	return &StreamClient{
		StreamURL: streamURL,
		dialer:    websocket.DefaultDialer,
	}
}

// Connect opens one streaming connection authenticated by the session token.
// The transport only accepts the credential as a cookie; header-based auth is
// not supported by the streaming endpoint.
func (c *StreamClient) Connect(ctx context.Context, token string) (*websocket.Conn, error) {
	h := http.Header{}
	h.Set("Cookie", SessionCookie+"="+token)

	conn, _, err := c.dialer.DialContext(ctx, c.StreamURL, h)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	return conn, nil
}

// ParseEnvelope decodes the outer event frame.
func ParseEnvelope(msg []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope missing event name")
	}
	return env, nil
}

// ParseTradeUpdate decodes a marketUpdate payload.
func ParseTradeUpdate(data []byte) (TradeUpdate, error) {
	var u TradeUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return TradeUpdate{}, err
	}
	if u.Symbol == "" {
		return TradeUpdate{}, fmt.Errorf("trade update missing symbol")
	}
	return u, nil
}

// ParseOrderBookUpdate decodes an orderBookUpdate payload.
func ParseOrderBookUpdate(data []byte) (OrderBookUpdate, error) {
	var u OrderBookUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return OrderBookUpdate{}, err
	}
	if u.Symbol == "" {
		return OrderBookUpdate{}, fmt.Errorf("order book update missing symbol")
	}
	return u, nil
}
