package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Sim struct {
	Steps       int
	Depth       int // snapshot levels per side
	Seed        int64
	SeedQty     int64 // size of the two initial resting orders
	FallbackMid int64
	DataDir     string // CSV output directory
	JournalPath string // pebble run journal; empty disables it
}

type Strategy struct {
	Name string // "baseline" or "avellaneda"

	// baseline inventory-skew quoter
	Spread      int64
	SkewPerUnit int64
	Qty         int64

	// Avellaneda-Stoikov quoter
	Gamma         float64
	Kappa         float64
	HorizonTicks  int
	VolWindow     int
	TickSize      float64
	MinHalfSpread float64
	MaxHalfSpread float64
	QuoteSize     int64
}

type API struct {
	Enabled bool
	Addr    string
}

type Hist struct {
	BaseURL string
}

type Config struct {
	Sim      Sim
	Strategy Strategy
	API      API
	Hist     Hist
}

func Default() Config {
	return Config{
		Sim: Sim{
			Steps:       100,
			Depth:       10,
			Seed:        42,
			SeedQty:     10,
			FallbackMid: 100,
			DataDir:     "data/processed",
			JournalPath: "",
		},
		Strategy: Strategy{
			Name:          "baseline",
			Spread:        2,
			SkewPerUnit:   1,
			Qty:           5,
			Gamma:         0.10,
			Kappa:         1.00,
			HorizonTicks:  5,
			VolWindow:     60,
			TickSize:      1.0,
			MinHalfSpread: 0.0,
			MaxHalfSpread: 1.0,
			QuoteSize:     100,
		},
		API: API{
			Enabled: false,
			Addr:    ":8080",
		},
		Hist: Hist{
			BaseURL: "http://localhost:9000",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// optional - won't fail if the file does not exist
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Sim.Steps = getEnvInt("SIM_STEPS", cfg.Sim.Steps)
	cfg.Sim.Depth = getEnvInt("SIM_DEPTH", cfg.Sim.Depth)
	cfg.Sim.Seed = getEnvInt64("SIM_SEED", cfg.Sim.Seed)
	cfg.Sim.SeedQty = getEnvInt64("SIM_SEED_QTY", cfg.Sim.SeedQty)
	cfg.Sim.FallbackMid = getEnvInt64("SIM_FALLBACK_MID", cfg.Sim.FallbackMid)
	cfg.Sim.DataDir = getEnv("SIM_DATA_DIR", cfg.Sim.DataDir)
	cfg.Sim.JournalPath = getEnv("SIM_JOURNAL_PATH", cfg.Sim.JournalPath)

	cfg.Strategy.Name = getEnv("STRATEGY", cfg.Strategy.Name)
	cfg.Strategy.Spread = getEnvInt64("BASELINE_SPREAD", cfg.Strategy.Spread)
	cfg.Strategy.SkewPerUnit = getEnvInt64("BASELINE_SKEW_PER_UNIT", cfg.Strategy.SkewPerUnit)
	cfg.Strategy.Qty = getEnvInt64("BASELINE_QTY", cfg.Strategy.Qty)
	cfg.Strategy.Gamma = getEnvFloat("AS_GAMMA", cfg.Strategy.Gamma)
	cfg.Strategy.Kappa = getEnvFloat("AS_KAPPA", cfg.Strategy.Kappa)
	cfg.Strategy.HorizonTicks = getEnvInt("AS_HORIZON_TICKS", cfg.Strategy.HorizonTicks)
	cfg.Strategy.VolWindow = getEnvInt("AS_VOL_WINDOW", cfg.Strategy.VolWindow)
	cfg.Strategy.TickSize = getEnvFloat("AS_TICK_SIZE", cfg.Strategy.TickSize)
	cfg.Strategy.MinHalfSpread = getEnvFloat("AS_MIN_HALF_SPREAD", cfg.Strategy.MinHalfSpread)
	cfg.Strategy.MaxHalfSpread = getEnvFloat("AS_MAX_HALF_SPREAD", cfg.Strategy.MaxHalfSpread)
	cfg.Strategy.QuoteSize = getEnvInt64("AS_QUOTE_SIZE", cfg.Strategy.QuoteSize)

	if enabled := os.Getenv("API_ENABLED"); enabled != "" {
		cfg.API.Enabled = enabled == "true"
	}
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)

	cfg.Hist.BaseURL = getEnv("HIST_BASE_URL", cfg.Hist.BaseURL)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
