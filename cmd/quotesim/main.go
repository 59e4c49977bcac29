package main

import (
	"flag"
	"log"
	"os"

	"github.com/qfex/quotesim/params"
	"github.com/qfex/quotesim/pkg/api"
	"github.com/qfex/quotesim/pkg/recorder"
	"github.com/qfex/quotesim/pkg/sim/book"
	"github.com/qfex/quotesim/pkg/sim/flow"
	"github.com/qfex/quotesim/pkg/sim/runner"
	"github.com/qfex/quotesim/pkg/sim/strategy"
	"github.com/qfex/quotesim/pkg/storage"
	"github.com/qfex/quotesim/pkg/util"
	"go.uber.org/zap"
)

func buildStrategy(cfg params.Strategy, fallbackMid int64, sugar *zap.SugaredLogger) strategy.Strategy {
	switch cfg.Name {
	case "baseline":
		return strategy.NewBaseline(strategy.BaselineParams{
			Spread:      cfg.Spread,
			SkewPerUnit: cfg.SkewPerUnit,
			Qty:         book.Qty(cfg.Qty),
			FallbackMid: book.Price(fallbackMid),
		})
	case "avellaneda", "as":
		return strategy.NewAvellanedaStoikov(strategy.ASParams{
			Gamma:         cfg.Gamma,
			Kappa:         cfg.Kappa,
			HorizonTicks:  cfg.HorizonTicks,
			VolWindow:     cfg.VolWindow,
			TickSize:      cfg.TickSize,
			MinHalfSpread: cfg.MinHalfSpread,
			MaxHalfSpread: cfg.MaxHalfSpread,
			QuoteSize:     book.Qty(cfg.QuoteSize),
		})
	default:
		sugar.Fatalw("unknown_strategy", "name", cfg.Name)
		return nil
	}
}

func main() {
	envPath := flag.String("env", "", "path to .env file (default: ./.env)")
	steps := flag.Int("steps", -1, "simulation ticks (overrides env)")
	depth := flag.Int("depth", -1, "snapshot depth per side (overrides env)")
	seed := flag.Int64("seed", -1, "flow rng seed (overrides env)")
	strat := flag.String("strategy", "", "baseline|avellaneda (overrides env)")
	debug := flag.Bool("debug", false, "per-tick debug logging")
	flag.Parse()

	cfg := params.LoadFromEnv(*envPath)
	if *steps >= 0 {
		cfg.Sim.Steps = *steps
	}
	if *depth >= 0 {
		cfg.Sim.Depth = *depth
	}
	if *seed >= 0 {
		cfg.Sim.Seed = *seed
	}
	if *strat != "" {
		cfg.Strategy.Name = *strat
	}

	var logger *zap.Logger
	var err error
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile, *debug)
	} else {
		logger, err = util.NewLogger(*debug)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("starting",
		"strategy", cfg.Strategy.Name,
		"steps", cfg.Sim.Steps,
		"depth", cfg.Sim.Depth,
		"seed", cfg.Sim.Seed,
		"data_dir", cfg.Sim.DataDir,
	)

	rec, err := recorder.New(cfg.Sim.DataDir)
	if err != nil {
		sugar.Fatalw("recorder_open_failed", "err", err)
	}

	var journal *storage.Journal
	if cfg.Sim.JournalPath != "" {
		journal, err = storage.Open(cfg.Sim.JournalPath)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "err", err)
		}
		defer journal.Close()
	}

	run := runner.New(runner.Config{
		Steps:       cfg.Sim.Steps,
		Depth:       cfg.Sim.Depth,
		SeedQty:     book.Qty(cfg.Sim.SeedQty),
		FallbackMid: book.Price(cfg.Sim.FallbackMid),
	}, runner.Deps{
		Strategy: buildStrategy(cfg.Strategy, cfg.Sim.FallbackMid, sugar),
		Flow:     flow.NewGenerator(cfg.Sim.Seed, flow.DefaultParams()),
		Recorder: rec,
		Journal:  journal,
		Log:      sugar,
	})

	if cfg.API.Enabled {
		srv := api.NewServer(run, sugar)
		run.SetPublisher(srv)
		go func() {
			if err := srv.Start(cfg.API.Addr); err != nil {
				sugar.Errorw("api_server_stopped", "err", err)
			}
		}()
	}

	sum, err := run.Run()
	if err != nil {
		sugar.Fatalw("run_failed", "err", err)
	}
	if err := rec.Close(); err != nil {
		sugar.Warnw("recorder_close_failed", "err", err)
	}

	sugar.Infow("done",
		"ticks", sum.Ticks,
		"fills", sum.TotalFills,
		"cash", sum.Cash,
		"inventory", sum.Inventory,
		"mark_to_market", sum.Mark,
	)
}
