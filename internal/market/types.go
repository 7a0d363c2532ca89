package market

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Code uniquely identifies an instrument in the catalog.
type Code string

// Side is the direction of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseSide converts the wire/document representation back to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	default:
		return 0, false
	}
}

// MarshalJSON writes the side as its display label, matching the persistence
// document format ("BUY"/"SELL").
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	side, ok := ParseSide(label)
	if !ok {
		return fmt.Errorf("invalid side %q", label)
	}
	*s = side
	return nil
}

// Stock is one instrument of the simulated tape. Price is the current trade
// price; PrevClose is the reference close the circuit breaker bands around and
// is immutable for the session.
type Stock struct {
	Code      Code            `json:"code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	PrevClose decimal.Decimal `json:"prevClose"`
}

// Change returns the absolute price change against the reference close.
func (s Stock) Change() decimal.Decimal {
	return s.Price.Sub(s.PrevClose)
}

// ChangePct returns the percent change against the reference close.
func (s Stock) ChangePct() decimal.Decimal {
	if s.PrevClose.IsZero() {
		return decimal.Zero
	}
	return s.Change().Div(s.PrevClose).Mul(decimal.NewFromInt(100)).Round(2)
}

// Holding is the position in a single instrument. Qty == 0 means no position;
// Avg is meaningless at zero quantity and must not be used for valuation.
// Holdings are never deleted, only driven back to zero.
type Holding struct {
	Qty int64           `json:"qty"`
	Avg decimal.Decimal `json:"avg"`
}

// Fill is an immutable record of one completed order execution.
type Fill struct {
	ID    uuid.UUID       `json:"id"`
	Time  time.Time       `json:"ts"`
	Side  Side            `json:"side"`
	Code  Code            `json:"code"`
	Qty   int64           `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// NewFill stamps a fresh fill record.
func NewFill(t time.Time, side Side, code Code, qty int64, price decimal.Decimal) Fill {
	return Fill{
		ID:    uuid.New(),
		Time:  t,
		Side:  side,
		Code:  code,
		Qty:   qty,
		Price: price,
	}
}

// CircuitState is the market-wide halt flag. Once Active it stays set for the
// rest of the session; there is no automatic resume.
type CircuitState struct {
	Active     bool            `json:"active"`
	TriggerPct decimal.Decimal `json:"triggerPct"`
}

// SimState describes the periodic tick scheduler.
type SimState struct {
	Running bool `json:"running"`
	TickMs  int  `json:"tickMs"`
}
