package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full arena configuration.
type Config struct {
	Arena   ArenaConfig   `yaml:"arena"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ArenaConfig controls the competition lifecycle and settlement parameters.
type ArenaConfig struct {
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	CooldownMinutes     int     `yaml:"cooldown_minutes"`    // wait after last start before creating another round
	MinDurationMinutes  int     `yaml:"min_duration_minutes"` // randomized round duration lower bound
	MaxDurationMinutes  int     `yaml:"max_duration_minutes"` // upper bound
	LockFraction        float64 `yaml:"lock_fraction"`       // lock_time as fraction of duration
	Market              string  `yaml:"market"`              // e.g. BTCUSDT
	FeeRate             float64 `yaml:"fee_rate"`
	BasePayout          float64 `yaml:"base_payout"`         // accuracy-mode payoff before confidence
	TrustWindowDays     int     `yaml:"trust_window_days"`
	SharpeCeiling       float64 `yaml:"sharpe_ceiling"`      // sharpe value considered "excellent"
	DuelBonusFraction   float64 `yaml:"duel_bonus_fraction"` // share of PnL differential transferred
	DuelGraceMinutes    int     `yaml:"duel_grace_minutes"`  // wait past settle_time for a missing duel decision
}

// OracleConfig holds the price source base URL.
type OracleConfig struct {
	BinanceBase string `yaml:"binance_base"`
}

// StorageConfig controls where data is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present.
// Environment variables override YAML values for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present (missing file is not an error)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default returns a config with every knob at its default value.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// PollInterval returns the scheduler poll interval as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Arena.PollIntervalSeconds) * time.Second
}

// Cooldown returns the competition creation cooldown.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Arena.CooldownMinutes) * time.Minute
}

// DurationRange returns the bounds for randomized round durations.
func (c *Config) DurationRange() (minDur, maxDur time.Duration) {
	return time.Duration(c.Arena.MinDurationMinutes) * time.Minute,
		time.Duration(c.Arena.MaxDurationMinutes) * time.Minute
}

// DuelGrace returns how long past settle_time a duel waits for a missing decision.
func (c *Config) DuelGrace() time.Duration {
	return time.Duration(c.Arena.DuelGraceMinutes) * time.Minute
}

// applyEnvOverrides overrides values from environment variables when present.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ARENA_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BINANCE_BASE"); v != "" {
		cfg.Oracle.BinanceBase = v
	}
}

// setDefaults ensures every required knob has a sensible value.
func setDefaults(cfg *Config) {
	if cfg.Arena.PollIntervalSeconds <= 0 {
		cfg.Arena.PollIntervalSeconds = 5
	}
	if cfg.Arena.CooldownMinutes <= 0 {
		cfg.Arena.CooldownMinutes = 15
	}
	if cfg.Arena.MinDurationMinutes <= 0 {
		cfg.Arena.MinDurationMinutes = 30
	}
	if cfg.Arena.MaxDurationMinutes < cfg.Arena.MinDurationMinutes {
		cfg.Arena.MaxDurationMinutes = cfg.Arena.MinDurationMinutes + 30
	}
	if cfg.Arena.LockFraction <= 0 || cfg.Arena.LockFraction >= 1 {
		cfg.Arena.LockFraction = 0.9
	}
	if cfg.Arena.Market == "" {
		cfg.Arena.Market = "BTCUSDT"
	}
	if cfg.Arena.FeeRate <= 0 {
		cfg.Arena.FeeRate = 0.001
	}
	if cfg.Arena.BasePayout <= 0 {
		cfg.Arena.BasePayout = 100
	}
	if cfg.Arena.TrustWindowDays <= 0 {
		cfg.Arena.TrustWindowDays = 30
	}
	if cfg.Arena.SharpeCeiling <= 0 {
		cfg.Arena.SharpeCeiling = 4.0
	}
	if cfg.Arena.DuelBonusFraction <= 0 {
		cfg.Arena.DuelBonusFraction = 0.5
	}
	if cfg.Arena.DuelGraceMinutes <= 0 {
		cfg.Arena.DuelGraceMinutes = 10
	}
	if cfg.Oracle.BinanceBase == "" {
		cfg.Oracle.BinanceBase = "https://api.binance.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "arena.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
