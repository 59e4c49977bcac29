// Package histdata is an offline batch utility that downloads OHLCV
// bars from a JSON bars endpoint and writes them to a flat CSV file. It
// shares no runtime contract with the simulator.
package histdata

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV bar. Prices are decimals so venue strings like
// "123.4500" survive the round trip exactly.
type Bar struct {
	TS     int64           `json:"ts"` // UTC epoch seconds
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

var allowedIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "1d": true, "1wk": true, "1mo": true,
}

// ValidInterval reports whether the bar interval is supported.
func ValidInterval(iv string) bool { return allowedIntervals[iv] }

type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient returns a bars client for the given endpoint base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

type barsResponse struct {
	Bars []Bar `json:"bars"`
}

// FetchBars downloads bars for symbol at the given interval over the
// trailing lookback window.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, days int) ([]Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("histdata: empty symbol")
	}
	if !ValidInterval(interval) {
		return nil, fmt.Errorf("histdata: unsupported interval %q", interval)
	}
	if days < 1 {
		days = 1
	}

	u := fmt.Sprintf("%s/bars?symbol=%s&interval=%s&days=%d",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(interval), days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("histdata: unexpected status %d", resp.StatusCode)
	}

	var body barsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("histdata: decode: %w", err)
	}
	return Normalize(body.Bars), nil
}

// Normalize sorts bars by timestamp, de-duplicates by timestamp keeping
// the last occurrence, and drops bars with non-positive prices.
func Normalize(bars []Bar) []Bar {
	byTS := make(map[int64]Bar, len(bars))
	for _, b := range bars {
		if !b.Open.IsPositive() || !b.High.IsPositive() ||
			!b.Low.IsPositive() || !b.Close.IsPositive() {
			continue
		}
		byTS[b.TS] = b
	}

	out := make([]Bar, 0, len(byTS))
	for _, b := range byTS {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}

// WriteCSV writes bars to path as ts,open,high,low,close,volume,
// creating parent directories as needed.
func WriteCSV(path string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("histdata: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("histdata: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ts", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			strconv.FormatInt(b.TS, 10),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
