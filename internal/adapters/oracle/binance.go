package oracle

// binance.go — price oracle backed by the Binance public REST API.
//
// Spot prices come from /api/v3/ticker/price; boundary prices for
// settlement come from /api/v3/klines at the competition's start and settle
// timestamps. Any fetch failure is wrapped in domain.ErrOracleUnavailable
// so the scheduler defers settlement instead of computing PnL from partial
// data.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/emarden/agentarena/internal/domain"
)

const (
	defaultBase = "https://api.binance.com"

	// Binance allows 1200 request-weight/min; stay well under it.
	requestsPerSec = 10

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client implements ports.Oracle against Binance.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a Client. An empty base uses the production API.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// CurrentPrice returns the latest spot price for the symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var out struct {
		Price string `json:"price"`
	}
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.base, url.QueryEscape(symbol))
	if err := c.get(ctx, u, &out); err != nil {
		return 0, fmt.Errorf("oracle.CurrentPrice: %s: %v: %w", symbol, err, domain.ErrOracleUnavailable)
	}
	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("oracle.CurrentPrice: %s: parse %q: %w", symbol, out.Price, domain.ErrOracleUnavailable)
	}
	return price, nil
}

// SettlementPrices returns the market prices at the competition's start and
// settle boundaries.
func (c *Client) SettlementPrices(ctx context.Context, comp domain.Competition) (float64, float64, error) {
	priceStart, err := c.priceAt(ctx, comp.Market, comp.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("oracle.SettlementPrices: %s start: %w", comp.Slug, err)
	}
	priceEnd, err := c.priceAt(ctx, comp.Market, comp.SettleTime)
	if err != nil {
		return 0, 0, fmt.Errorf("oracle.SettlementPrices: %s end: %w", comp.Slug, err)
	}
	return priceStart, priceEnd, nil
}

// Outcome derives the categorical outcome of an accuracy round from the
// direction of the boundary prices.
func (c *Client) Outcome(ctx context.Context, comp domain.Competition) (string, error) {
	priceStart, priceEnd, err := c.SettlementPrices(ctx, comp)
	if err != nil {
		return "", err
	}
	switch {
	case priceEnd > priceStart:
		return string(domain.ActionLong), nil
	case priceEnd < priceStart:
		return string(domain.ActionShort), nil
	}
	return string(domain.ActionHold), nil
}

// priceAt returns the open price of the 1-minute candle covering t.
func (c *Client) priceAt(ctx context.Context, symbol string, t time.Time) (float64, error) {
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1m&startTime=%d&limit=1",
		c.base, url.QueryEscape(symbol), t.UnixMilli())

	// Klines come back as positional arrays of mixed strings and numbers.
	var klines [][]json.RawMessage
	if err := c.get(ctx, u, &klines); err != nil {
		return 0, fmt.Errorf("%v: %w", err, domain.ErrOracleUnavailable)
	}
	if len(klines) == 0 || len(klines[0]) < 2 {
		return 0, fmt.Errorf("no kline for %s at %s: %w", symbol, t, domain.ErrOracleUnavailable)
	}

	var open string
	if err := json.Unmarshal(klines[0][1], &open); err != nil {
		return 0, fmt.Errorf("decode kline open: %v: %w", err, domain.ErrOracleUnavailable)
	}
	price, err := strconv.ParseFloat(open, 64)
	if err != nil {
		return 0, fmt.Errorf("parse kline open %q: %v: %w", open, err, domain.ErrOracleUnavailable)
	}
	return price, nil
}

// get does a rate-limited GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, u string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("oracle request retried", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unreachable")
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := baseRetryWait * time.Duration(1<<attempt)
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
