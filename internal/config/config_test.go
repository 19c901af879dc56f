package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPACA_API_KEY", "ALPACA_API_SECRET",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
		"DATA_DIR", "SQLITE_PATH", "LOG_LEVEL", "BRIDGE_BROKERAGE",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadFullConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  backend: "sqlite"
  data_dir: "/tmp/tradebridge/data"
  sqlite_path: "/tmp/tradebridge/bars.db"
server:
  host: "0.0.0.0"
  port: 8080
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
bridge:
  brokerage: "alpaca"
  paper_mode: true
  call_timeout_sec: 10
  event_buffer: 512
  history_days: 180
  history_rate_per_min: 100
  refresh_interval_sec: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "sqlite")
	}
	if cfg.Storage.SQLitePath != "/tmp/tradebridge/bars.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/tradebridge/bars.db")
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Bridge.Brokerage != "alpaca" {
		t.Errorf("Bridge.Brokerage = %q, want %q", cfg.Bridge.Brokerage, "alpaca")
	}
	if !cfg.Bridge.PaperMode {
		t.Error("Bridge.PaperMode = false, want true")
	}
	if cfg.Bridge.CallTimeoutSec != 10 {
		t.Errorf("Bridge.CallTimeoutSec = %d, want %d", cfg.Bridge.CallTimeoutSec, 10)
	}
	if cfg.Bridge.EventBuffer != 512 {
		t.Errorf("Bridge.EventBuffer = %d, want %d", cfg.Bridge.EventBuffer, 512)
	}
	if cfg.Bridge.RefreshIntervalSec != 30 {
		t.Errorf("Bridge.RefreshIntervalSec = %d, want %d", cfg.Bridge.RefreshIntervalSec, 30)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host default = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Bridge.Brokerage != "simulator" {
		t.Errorf("Bridge.Brokerage default = %q, want %q", cfg.Bridge.Brokerage, "simulator")
	}
	if cfg.Bridge.CallTimeoutSec != 15 {
		t.Errorf("Bridge.CallTimeoutSec default = %d, want %d", cfg.Bridge.CallTimeoutSec, 15)
	}
	if cfg.Bridge.EventBuffer != 256 {
		t.Errorf("Bridge.EventBuffer default = %d, want %d", cfg.Bridge.EventBuffer, 256)
	}
	if cfg.Bridge.HistoryDays != 365 {
		t.Errorf("Bridge.HistoryDays default = %d, want %d", cfg.Bridge.HistoryDays, 365)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}

func TestLoadCanonicalAlpacaEnvWins(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
`)

	os.Setenv("ALPACA_API_KEY", "legacy-env-key")
	os.Setenv("APCA_API_KEY_ID", "canonical-key")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("APCA_API_KEY_ID")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "canonical-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (canonical env wins)", cfg.Alpaca.APIKey, "canonical-key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() on missing file returned nil error")
	}
}
