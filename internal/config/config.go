// Package config loads the YAML configuration file and applies environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradebridge service.
type Config struct {
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Logging Logging `yaml:"logging"`
	Bridge  Bridge  `yaml:"bridge"`
}

// Storage selects and locates the bar persistence backend.
type Storage struct {
	// Backend is "sqlite" or "parquet". Empty disables bar persistence.
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Bridge controls the order-lifecycle engine and mirror cadence.
type Bridge struct {
	// Brokerage selects the broker client: "alpaca" or "simulator".
	Brokerage string `yaml:"brokerage"`

	// PaperMode routes Alpaca calls to the paper-trading endpoint when no
	// explicit base_url is set.
	PaperMode bool `yaml:"paper_mode"`

	// CallTimeoutSec bounds each broker round-trip, in seconds.
	CallTimeoutSec int `yaml:"call_timeout_sec"`

	// EventBuffer is the per-subscriber channel buffer size.
	EventBuffer int `yaml:"event_buffer"`

	// HistoryDays is the lookback window for price history fetches.
	HistoryDays int `yaml:"history_days"`

	// HistoryRatePerMin rate-limits market-data requests.
	HistoryRatePerMin int `yaml:"history_rate_per_min"`

	// RefreshIntervalSec is the cadence of the periodic account/position
	// mirror. Zero disables the periodic refresh.
	RefreshIntervalSec int `yaml:"refresh_interval_sec"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero values with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Bridge.Brokerage == "" {
		cfg.Bridge.Brokerage = "simulator"
	}
	if cfg.Bridge.CallTimeoutSec == 0 {
		cfg.Bridge.CallTimeoutSec = 15
	}
	if cfg.Bridge.EventBuffer == 0 {
		cfg.Bridge.EventBuffer = 256
	}
	if cfg.Bridge.HistoryDays == 0 {
		cfg.Bridge.HistoryDays = 365
	}
	if cfg.Bridge.HistoryRatePerMin == 0 {
		cfg.Bridge.HistoryRatePerMin = 200
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("BRIDGE_BROKERAGE"); v != "" {
		cfg.Bridge.Brokerage = v
	}

	// Standard Alpaca env vars (highest priority, canonical names used by
	// the SDK itself).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
