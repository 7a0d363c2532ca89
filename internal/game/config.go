package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zappabad/papertrade/internal/market/service"
	"github.com/zappabad/papertrade/internal/session"
)

// Config holds configuration for the game. Every field has a working default,
// so an empty or partial config file is fine.
type Config struct {
	// DBPath is the SQLite file the session is persisted to. Empty disables
	// persistence.
	DBPath string `yaml:"dbPath"`
	// LogPath is the log file. Empty discards logs.
	LogPath string `yaml:"logPath"`
	// Volatility is the per-step shock bound of the price model.
	Volatility float64 `yaml:"volatility"`
	// Seed seeds the price model RNG; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
	// TickMs is the scheduler interval for fresh sessions, in milliseconds.
	TickMs int `yaml:"tickMs"`
	// FillTapeSize caps the retained fill history.
	FillTapeSize int `yaml:"fillTapeSize"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	mcfg := service.DefaultConfig()
	return Config{
		DBPath:       "papertrade.db",
		LogPath:      "papertrade.log",
		Volatility:   mcfg.Volatility,
		Seed:         0,
		TickMs:       session.DefaultTickMs,
		FillTapeSize: mcfg.FillTapeSize,
	}
}

// LoadConfig reads a YAML config file, layered over the defaults. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.TickMs > 0 && cfg.TickMs < session.MinTickMs {
		cfg.TickMs = session.MinTickMs
	}
	return cfg, nil
}

// marketConfig translates the file config into the market service config.
func (c Config) marketConfig() service.Config {
	mcfg := service.DefaultConfig()
	mcfg.Volatility = c.Volatility
	mcfg.Seed = c.Seed
	if c.FillTapeSize > 0 {
		mcfg.FillTapeSize = c.FillTapeSize
	}
	return mcfg
}
