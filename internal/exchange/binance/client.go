// Package binance is a Binance Spot client backing the interfaces.Exchange
// contract: public market data (klines, average price, tickers) plus signed
// order endpoints (submit, open orders, cancel). Requests are rate limited
// with a shared token bucket and retried with exponential backoff; retry
// exhaustion surfaces as an error for the calling trade attempt only.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/metrics"
	"pair-scalper/internal/types"
)

type Params struct {
	APIKey          string
	APISecret       string
	BaseURL         string
	StreamURL       string
	RecvWindowMs    int
	MaxRetries      int
	RateLimitPerSec float64
	RateLimitBurst  int
	CandleSource    string // REST or STREAM
}

type Client struct {
	p       Params
	hc      *http.Client
	limiter *rateLimiter
	stream  *streamManager
}

var _ interfaces.Exchange = (*Client)(nil)

func New(p Params) *Client {
	if p.BaseURL == "" {
		p.BaseURL = "https://api.binance.com"
	}
	if p.RecvWindowMs == 0 {
		p.RecvWindowMs = 5000
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = 3
	}
	if p.RateLimitPerSec == 0 {
		p.RateLimitPerSec = 10
	}
	if p.RateLimitBurst == 0 {
		p.RateLimitBurst = 5
	}
	c := &Client{
		p:       p,
		hc:      &http.Client{Timeout: 10 * time.Second},
		limiter: newRateLimiter(p.RateLimitBurst, p.RateLimitPerSec),
	}
	if p.CandleSource == "STREAM" {
		c.stream = newStreamManager(p.StreamURL)
	}
	return c
}

// Start warms the websocket kline stream for the given pairs. A no-op when
// the candle source is REST.
func (c *Client) Start(ctx context.Context, pairs []string) error {
	if c.stream == nil || len(pairs) == 0 {
		return nil
	}
	return c.stream.start(ctx, pairs)
}

func (c *Client) Stop() {
	if c.stream != nil {
		c.stream.stop()
	}
}

// ----- transport -----

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("binance: status %d: %s", e.Status, e.Body)
}

func retryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status == http.StatusTooManyRequests || ae.Status >= 500
	}
	// Network-level failures are worth another attempt.
	return true
}

func (c *Client) sign(q url.Values) string {
	mac := hmac.New(sha256.New, []byte(c.p.APISecret))
	_, _ = io.WriteString(mac, q.Encode())
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) request(ctx context.Context, method, path string, q url.Values, signed bool) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}

	var lastErr error
	for attempt := 0; attempt <= c.p.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.ExchangeRetries.Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay(attempt - 1)):
			}
		}
		if err := c.limiter.wait(ctx); err != nil {
			return nil, err
		}

		query := q.Encode()
		if signed {
			// Timestamp and signature are per attempt: a backoff pause can
			// outlive the recv window. The signature covers the payload as
			// sent and is appended last.
			vals := url.Values{}
			for k, vs := range q {
				vals[k] = vs
			}
			vals.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
			vals.Set("recvWindow", strconv.Itoa(c.p.RecvWindowMs))
			query = vals.Encode()
			query += "&signature=" + c.sign(vals)
		}

		b, err := c.do(ctx, method, path, query)
		if err == nil {
			return b, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func (c *Client) do(ctx context.Context, method, path, query string) ([]byte, error) {
	u := strings.TrimRight(c.p.BaseURL, "/") + path + "?" + query
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if c.p.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.p.APIKey)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return b, nil
}

// ----- market data -----

func (c *Client) Klines(ctx context.Context, pair, interval string, limit int) ([]types.Candle, error) {
	if c.stream != nil && interval == "1m" {
		if cs, ok := c.stream.recentCandles(pair, limit); ok {
			return cs, nil
		}
		// Cache not warm yet for this pair; fall through to REST.
	}

	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", interval)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	b, err := c.request(ctx, http.MethodGet, "/api/v3/klines", q, false)
	if err != nil {
		return nil, err
	}

	var raw [][]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode klines for %s: %w", pair, err)
	}
	out := make([]types.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		ts, _ := k[0].(float64)
		out = append(out, types.Candle{
			Ts:    int64(ts) / 1000,
			Open:  parseField(k[1]),
			High:  parseField(k[2]),
			Low:   parseField(k[3]),
			Close: parseField(k[4]),
			Vol:   parseField(k[5]),
		})
	}
	return out, nil
}

func parseField(v any) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (c *Client) AvgPrice(ctx context.Context, pair string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	b, err := c.request(ctx, http.MethodGet, "/api/v3/avgPrice", q, false)
	if err != nil {
		return 0, err
	}
	var out struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, fmt.Errorf("decode avg price for %s: %w", pair, err)
	}
	return strconv.ParseFloat(out.Price, 64)
}

func (c *Client) TickerPrice(ctx context.Context, pair string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	b, err := c.request(ctx, http.MethodGet, "/api/v3/ticker/price", q, false)
	if err != nil {
		return 0, err
	}
	var out struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, fmt.Errorf("decode ticker for %s: %w", pair, err)
	}
	return strconv.ParseFloat(out.Price, 64)
}

func (c *Client) AllTickers(ctx context.Context) ([]types.Ticker, error) {
	b, err := c.request(ctx, http.MethodGet, "/api/v3/ticker/price", nil, false)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	out := make([]types.Ticker, 0, len(raw))
	for _, t := range raw {
		p, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			continue
		}
		out = append(out, types.Ticker{Pair: t.Symbol, Price: p})
	}
	return out, nil
}

// ----- orders -----

func (c *Client) SubmitLimitOrder(ctx context.Context, req types.OrderReq) (string, error) {
	q := url.Values{}
	q.Set("symbol", req.Pair)
	q.Set("side", string(req.Side))
	q.Set("type", "LIMIT")
	q.Set("timeInForce", "GTC")
	q.Set("quantity", strconv.FormatFloat(req.Qty, 'f', -1, 64))
	q.Set("price", strconv.FormatFloat(req.Price, 'f', req.PriceDigits, 64))
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	q.Set("newClientOrderId", req.ClientOrderID)

	b, err := c.request(ctx, http.MethodPost, "/api/v3/order", q, true)
	if err != nil {
		return "", err
	}
	var out struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode order response for %s: %w", req.Pair, err)
	}
	return strconv.FormatInt(out.OrderID, 10), nil
}

func (c *Client) OpenOrders(ctx context.Context, pair string) ([]types.OpenOrder, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	b, err := c.request(ctx, http.MethodGet, "/api/v3/openOrders", q, true)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		OrderID int64  `json:"orderId"`
		Symbol  string `json:"symbol"`
		Side    string `json:"side"`
		Price   string `json:"price"`
		OrigQty string `json:"origQty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode open orders for %s: %w", pair, err)
	}
	out := make([]types.OpenOrder, 0, len(raw))
	for _, o := range raw {
		price, _ := strconv.ParseFloat(o.Price, 64)
		qty, _ := strconv.ParseFloat(o.OrigQty, 64)
		out = append(out, types.OpenOrder{
			OrderID: strconv.FormatInt(o.OrderID, 10),
			Pair:    o.Symbol,
			Side:    types.Side(o.Side),
			Price:   price,
			Qty:     qty,
		})
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, pair, orderID string) error {
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("orderId", orderID)
	_, err := c.request(ctx, http.MethodDelete, "/api/v3/order", q, true)
	return err
}
