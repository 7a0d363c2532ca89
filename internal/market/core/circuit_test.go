package core

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

func newTestBreaker(triggerPct int64) *CircuitBreaker {
	return NewCircuitBreaker(market.CircuitState{
		TriggerPct: decimal.NewFromInt(triggerPct),
	})
}

func stockAt(price string) market.Stock {
	return market.Stock{
		Code:      "PXA",
		Price:     decimal.RequireFromString(price),
		PrevClose: decimal.NewFromInt(100),
	}
}

func TestCircuitTripsAtUpperLimit(t *testing.T) {
	cb := newTestBreaker(10)

	if !cb.Evaluate(stockAt("110.00")) {
		t.Error("expected trip at 110.00 with prevClose 100 and 10% band")
	}
	if !cb.Active() {
		t.Error("expected global halt to latch")
	}
}

func TestCircuitTripsAtLowerLimit(t *testing.T) {
	cb := newTestBreaker(10)

	if !cb.Evaluate(stockAt("90.00")) {
		t.Error("expected trip at 90.00 with prevClose 100 and 10% band")
	}
	if !cb.Active() {
		t.Error("expected global halt to latch")
	}
}

func TestCircuitDoesNotTripInsideBand(t *testing.T) {
	cb := newTestBreaker(10)

	for _, price := range []string{"109.99", "90.01", "100.00", "105.50"} {
		if cb.Evaluate(stockAt(price)) {
			t.Errorf("unexpected trip at %s", price)
		}
	}
	if cb.Active() {
		t.Error("halt must not latch inside the band")
	}
}

func TestCircuitStaysLatched(t *testing.T) {
	cb := newTestBreaker(10)

	cb.Evaluate(stockAt("110.00"))
	if !cb.Active() {
		t.Fatal("expected halt")
	}

	// Prices back inside the band do not clear the halt.
	cb.Evaluate(stockAt("100.00"))
	if !cb.Active() {
		t.Error("halt must be terminal for the session")
	}
}

func TestCircuitStateRoundTrip(t *testing.T) {
	st := market.CircuitState{Active: true, TriggerPct: decimal.NewFromInt(15)}
	cb := NewCircuitBreaker(st)

	got := cb.State()
	if got.Active != st.Active {
		t.Errorf("expected active %v, got %v", st.Active, got.Active)
	}
	if !got.TriggerPct.Equal(st.TriggerPct) {
		t.Errorf("expected triggerPct %s, got %s", st.TriggerPct, got.TriggerPct)
	}
}
