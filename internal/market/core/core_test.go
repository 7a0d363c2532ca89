package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/session"
)

func newTestCore(st session.State) *Core {
	return NewCore(st, NewPriceModel(DefaultVolatility, 1234), 0)
}

func TestSubmitUnknownInstrument(t *testing.T) {
	c := newTestCore(session.DefaultState())

	_, _, err := c.Submit(market.SideBuy, "ZZZ", 1, time.Now())
	if !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("expected ErrUnknownInstrument, got %v", err)
	}
}

func TestSubmitInvalidQuantity(t *testing.T) {
	c := newTestCore(session.DefaultState())

	for _, qty := range []int64{0, -5} {
		_, _, err := c.Submit(market.SideBuy, "PXA", qty, time.Now())
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestSubmitExecutesAtCurrentPrice(t *testing.T) {
	st := session.DefaultState()
	c := newTestCore(st)

	fill, events, err := c.Submit(market.SideBuy, "PXA", 3, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fill.Side != market.SideBuy || fill.Code != "PXA" || fill.Qty != 3 {
		t.Errorf("unexpected fill: %+v", fill)
	}
	if !fill.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected execution at current price 100, got %s", fill.Price)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].(OrderFilledEvent); !ok {
		t.Errorf("expected OrderFilledEvent, got %T", events[0])
	}
}

func TestSubmitWhileHalted(t *testing.T) {
	st := session.DefaultState()
	st.Circuit.Active = true
	c := newTestCore(st)

	_, _, err := c.Submit(market.SideBuy, "PXA", 1, time.Now())
	if !errors.Is(err, ErrMarketHalted) {
		t.Fatalf("expected ErrMarketHalted, got %v", err)
	}
}

func TestTickAdvancesAllStocks(t *testing.T) {
	st := session.DefaultState()
	c := newTestCore(st)

	before := c.Stocks()
	events := c.Tick(time.Now())

	after := c.Stocks()
	if len(after) != len(before) {
		t.Fatalf("stock count changed: %d -> %d", len(before), len(after))
	}

	priceEvents := 0
	for _, ev := range events {
		if _, ok := ev.(PriceUpdatedEvent); ok {
			priceEvents++
		}
	}
	if priceEvents != len(before) {
		t.Errorf("expected %d price events, got %d", len(before), priceEvents)
	}

	for i, s := range after {
		if s.Code != before[i].Code {
			t.Errorf("catalog order changed at %d: %s -> %s", i, before[i].Code, s.Code)
		}
		if !s.PrevClose.Equal(before[i].PrevClose) {
			t.Errorf("%s: prevClose mutated by tick", s.Code)
		}
		if s.Price.LessThan(decimal.NewFromInt(1)) {
			t.Errorf("%s: price %s below floor", s.Code, s.Price)
		}
		if s.Price.Exponent() < -2 {
			t.Errorf("%s: price %s carries sub-cent precision", s.Code, s.Price)
		}
	}
}

func TestTickNoOpWhileHalted(t *testing.T) {
	st := session.DefaultState()
	st.Circuit.Active = true
	c := newTestCore(st)

	before := c.Stocks()
	for i := 0; i < 10; i++ {
		if events := c.Tick(time.Now()); events != nil {
			t.Fatalf("halted tick emitted events: %v", events)
		}
	}

	after := c.Stocks()
	for i := range before {
		if !after[i].Price.Equal(before[i].Price) {
			t.Errorf("%s: price moved while halted: %s -> %s",
				before[i].Code, before[i].Price, after[i].Price)
		}
	}
}

func TestTickTripsBreakerAndFreezesMarket(t *testing.T) {
	st := session.DefaultState()
	// A vanishingly small band: the first meaningful shock trips it.
	st.Circuit.TriggerPct = decimal.RequireFromString("0.01")
	c := newTestCore(st)

	haltSeen := false
	for i := 0; i < 1_000 && !c.Halted(); i++ {
		for _, ev := range c.Tick(time.Now()) {
			if _, ok := ev.(MarketHaltedEvent); ok {
				haltSeen = true
			}
		}
	}
	if !c.Halted() {
		t.Fatal("breaker never tripped with a 0.01% band")
	}
	if !haltSeen {
		t.Error("expected a MarketHaltedEvent on the tripping tick")
	}

	frozen := c.Stocks()
	for i := 0; i < 10; i++ {
		c.Tick(time.Now())
	}
	after := c.Stocks()
	for i := range frozen {
		if !after[i].Price.Equal(frozen[i].Price) {
			t.Errorf("%s: price moved after halt", frozen[i].Code)
		}
	}

	if _, _, err := c.Submit(market.SideSell, "PXA", 1, time.Now()); !errors.Is(err, ErrMarketHalted) {
		t.Errorf("expected ErrMarketHalted after trip, got %v", err)
	}
}

func TestSessionStateIsDetachedCopy(t *testing.T) {
	c := newTestCore(session.DefaultState())

	st := c.SessionState()
	st.Stocks[0].Price = decimal.NewFromInt(1)
	st.Holdings["PXA"] = market.Holding{Qty: 99}

	got, _ := c.Stock("PXA")
	if !got.Price.Equal(decimal.NewFromInt(100)) {
		t.Error("mutating an exported state leaked into the core")
	}
	if c.Ledger().Holding("PXA").Qty != 0 {
		t.Error("mutating exported holdings leaked into the core")
	}
}

// Full scenario from a fresh session: buy 100 @ 100, market moves to 110,
// sell everything, total P&L +1,000.
func TestBuySellScenario(t *testing.T) {
	st := session.DefaultState()
	c := newTestCore(st)
	now := time.Now()

	if _, _, err := c.Submit(market.SideBuy, "PXA", 100, now); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if !c.Ledger().Cash().Equal(decimal.NewFromInt(990_000)) {
		t.Errorf("expected cash 990000, got %s", c.Ledger().Cash())
	}
	h := c.Ledger().Holding("PXA")
	if h.Qty != 100 || !h.Avg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected holding {100, 100}, got %+v", h)
	}
	if len(c.Ledger().Fills()) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(c.Ledger().Fills()))
	}

	// Move the market to 110 by restoring the exported session with the
	// adjusted tape, as a restart at a later price would.
	mid := c.SessionState()
	for i := range mid.Stocks {
		if mid.Stocks[i].Code == "PXA" {
			mid.Stocks[i].Price = decimal.NewFromInt(110)
		}
	}
	c = newTestCore(mid)

	if _, _, err := c.Submit(market.SideSell, "PXA", 100, now); err != nil {
		t.Fatalf("sell: %v", err)
	}

	if !c.Ledger().Cash().Equal(decimal.NewFromInt(1_001_000)) {
		t.Errorf("expected cash 1001000, got %s", c.Ledger().Cash())
	}
	h = c.Ledger().Holding("PXA")
	if h.Qty != 0 || !h.Avg.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected holding {0, 100}, got %+v", h)
	}
	if len(c.Ledger().Fills()) != 2 {
		t.Errorf("expected 2 fills, got %d", len(c.Ledger().Fills()))
	}
	if pnl := c.Ledger().TotalPnL(c.Prices()); !pnl.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("expected total pnl 1000, got %s", pnl)
	}
}
