package histdata

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestFetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bars" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("symbol") != "SPY" || q.Get("interval") != "1d" || q.Get("days") != "7" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bars":[
			{"ts":200,"open":"101.5","high":"102","low":"101","close":"101.75","volume":900},
			{"ts":100,"open":"100.5","high":"101","low":"100","close":"100.75","volume":1000}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	bars, err := c.FetchBars(context.Background(), "SPY", "1d", 7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	// normalized: sorted by ts
	if bars[0].TS != 100 || bars[1].TS != 200 {
		t.Errorf("bars not sorted: %d, %d", bars[0].TS, bars[1].TS)
	}
	if !bars[0].Open.Equal(dec("100.5")) || bars[0].Volume != 1000 {
		t.Errorf("bar[0] = %+v", bars[0])
	}
}

func TestFetchBarsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	tests := []struct {
		name     string
		symbol   string
		interval string
	}{
		{"empty symbol", "", "1d"},
		{"bad interval", "SPY", "17m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.FetchBars(context.Background(), tt.symbol, tt.interval, 1); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Run("bad status", func(t *testing.T) {
		if _, err := c.FetchBars(context.Background(), "SPY", "1d", 1); err == nil {
			t.Error("expected error on 502")
		}
	})
}

func TestNormalize(t *testing.T) {
	bars := []Bar{
		{TS: 300, Open: dec("1"), High: dec("1"), Low: dec("1"), Close: dec("1"), Volume: 1},
		{TS: 100, Open: dec("1"), High: dec("1"), Low: dec("1"), Close: dec("1"), Volume: 2},
		{TS: 100, Open: dec("2"), High: dec("2"), Low: dec("2"), Close: dec("2"), Volume: 3}, // dup, kept
		{TS: 200, Open: dec("0"), High: dec("1"), Low: dec("1"), Close: dec("1"), Volume: 4}, // bad price, dropped
	}

	out := Normalize(bars)
	if len(out) != 2 {
		t.Fatalf("got %d bars, want 2: %+v", len(out), out)
	}
	if out[0].TS != 100 || out[1].TS != 300 {
		t.Errorf("order = %d, %d; want 100, 300", out[0].TS, out[1].TS)
	}
	if !out[0].Open.Equal(dec("2")) {
		t.Errorf("duplicate resolution kept %v, want the last bar", out[0].Open)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "SPY_1d.csv")
	bars := []Bar{
		{TS: 100, Open: dec("100.5"), High: dec("101"), Low: dec("100"), Close: dec("100.75"), Volume: 1000},
	}
	if err := WriteCSV(path, bars); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	want := []string{"ts", "open", "high", "low", "close", "volume"}
	for i, col := range want {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "100" || rows[1][1] != "100.5" || rows[1][5] != "1000" {
		t.Errorf("row = %v", rows[1])
	}
}
