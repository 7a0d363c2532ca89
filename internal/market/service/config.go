package service

import (
	"time"

	"github.com/zappabad/papertrade/internal/market/core"
	"github.com/zappabad/papertrade/internal/session"
)

// Scheduler interval bounds. Start clamps every requested interval to the
// minimum.
const (
	MinTickInterval     = session.MinTickMs * time.Millisecond
	DefaultTickInterval = session.DefaultTickMs * time.Millisecond
)

// Config holds configuration for the market service.
type Config struct {
	// Volatility is the per-step shock bound of the price model.
	Volatility float64
	// Seed seeds the price model RNG; 0 seeds from the clock.
	Seed int64
	// FillTapeSize caps the retained fill history.
	FillTapeSize int
	// CommandBuffer is the size of the inbound command channel.
	CommandBuffer int
	// EventBuffer is the size of the external events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
	// SaveTimeout bounds each best-effort state save.
	SaveTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Volatility:    core.DefaultVolatility,
		Seed:          0,
		FillTapeSize:  200,
		CommandBuffer: 64,
		EventBuffer:   256,
		DropEvents:    true,
		SaveTimeout:   2 * time.Second,
	}
}
