package core

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

// Event is the interface for all engine events.
type Event interface {
	isEvent()
}

// PriceUpdatedEvent is emitted for every stock on every completed tick.
type PriceUpdatedEvent struct {
	Code      market.Code
	Price     decimal.Decimal
	PrevClose decimal.Decimal
	Time      time.Time
}

func (PriceUpdatedEvent) isEvent() {}

// MarketHaltedEvent is emitted once, on the tick that trips the circuit
// breaker. Code identifies the first instrument that breached its band; the
// halt itself is market-wide.
type MarketHaltedEvent struct {
	Code       market.Code
	Price      decimal.Decimal
	TriggerPct decimal.Decimal
	Time       time.Time
}

func (MarketHaltedEvent) isEvent() {}

// OrderFilledEvent is emitted when an order executes.
type OrderFilledEvent struct {
	Fill market.Fill
}

func (OrderFilledEvent) isEvent() {}
