// histfetch downloads OHLCV bars and writes them to a flat CSV file
// under data/raw. It is an offline batch job with no connection to the
// simulator runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/qfex/quotesim/params"
	"github.com/qfex/quotesim/pkg/histdata"
	"github.com/qfex/quotesim/pkg/util"
)

func main() {
	symbol := flag.String("symbol", "", "instrument symbol, e.g. SPY (required)")
	interval := flag.String("interval", "1d", "bar interval, e.g. 1m or 1d")
	days := flag.Int("days", 7, "trailing lookback in days")
	out := flag.String("out", "", "output path (default data/raw/<SYMBOL>_<INTERVAL>.csv)")
	envPath := flag.String("env", "", "path to .env file (default: ./.env)")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("histfetch: -symbol is required")
	}

	cfg := params.LoadFromEnv(*envPath)

	logger, err := util.NewLogger(false)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	path := *out
	if path == "" {
		name := fmt.Sprintf("%s_%s.csv", strings.ToUpper(*symbol), *interval)
		path = filepath.Join("data", "raw", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := histdata.NewClient(cfg.Hist.BaseURL)
	bars, err := client.FetchBars(ctx, *symbol, *interval, *days)
	if err != nil {
		sugar.Fatalw("fetch_failed", "symbol", *symbol, "interval", *interval, "err", err)
	}
	if err := histdata.WriteCSV(path, bars); err != nil {
		sugar.Fatalw("write_failed", "path", path, "err", err)
	}

	sugar.Infow("fetched", "symbol", *symbol, "interval", *interval, "rows", len(bars), "path", path)
}
