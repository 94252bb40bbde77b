package hsx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// SessionCookie is the cookie name carrying the back-office session token.
const SessionCookie = "session"

// Client wraps REST access to the back-office market API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient builds a REST client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken stores the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.sessionToken(); tok != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d", method, path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Login authenticates against the back office and returns a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

// GetBoard fetches the full price-board snapshot.
func (c *Client) GetBoard(ctx context.Context) ([]SummaryRow, error) {
	var rows []SummaryRow
	if err := c.do(ctx, http.MethodGet, "/board", nil, &rows); err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return rows, nil
}

// GetStockDetail fetches the full record for one symbol.
func (c *Client) GetStockDetail(ctx context.Context, symbol string) (StockDetail, error) {
	var d StockDetail
	path := "/stocks/" + url.PathEscape(symbol)
	if err := c.do(ctx, http.MethodGet, path, nil, &d); err != nil {
		return StockDetail{}, fmt.Errorf("get stock detail %s: %w", symbol, err)
	}
	return d, nil
}
