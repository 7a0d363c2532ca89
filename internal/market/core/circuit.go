package core

import (
	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// CircuitBreaker bands every price against its reference close and latches a
// market-wide halt the moment any instrument breaches its band. The halt is
// terminal for the session: there is no automatic resume.
type CircuitBreaker struct {
	triggerPct decimal.Decimal
	active     bool
}

// NewCircuitBreaker restores a breaker from persisted state.
func NewCircuitBreaker(st market.CircuitState) *CircuitBreaker {
	return &CircuitBreaker{
		triggerPct: st.TriggerPct,
		active:     st.Active,
	}
}

// Evaluate reports whether the stock's price sits on or outside its band
// (prevClose ± triggerPct). A breach latches the global halt as a side
// effect.
func (cb *CircuitBreaker) Evaluate(s market.Stock) bool {
	band := cb.triggerPct.Div(hundred)
	limitUp := s.PrevClose.Mul(one.Add(band))
	limitDown := s.PrevClose.Mul(one.Sub(band))

	if s.Price.GreaterThanOrEqual(limitUp) || s.Price.LessThanOrEqual(limitDown) {
		cb.active = true
		return true
	}
	return false
}

// Active reports whether the market-wide halt is latched.
func (cb *CircuitBreaker) Active() bool {
	return cb.active
}

// State exports the breaker for the persistence document.
func (cb *CircuitBreaker) State() market.CircuitState {
	return market.CircuitState{
		Active:     cb.active,
		TriggerPct: cb.triggerPct,
	}
}
