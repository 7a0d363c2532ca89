package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

func newTestLedger(cash int64) *Ledger {
	c := decimal.NewFromInt(cash)
	return NewLedger(c, c, nil, nil, 0)
}

func TestBuyWeightedAverageCost(t *testing.T) {
	l := newTestLedger(10_000)
	now := time.Now()

	if _, err := l.Buy("PXA", 10, decimal.NewFromInt(100), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.Buy("PXA", 10, decimal.NewFromInt(200), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := l.Holding("PXA")
	if h.Qty != 20 {
		t.Errorf("expected qty 20, got %d", h.Qty)
	}
	if !h.Avg.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected avg 150, got %s", h.Avg)
	}
	if !l.Cash().Equal(decimal.NewFromInt(7_000)) {
		t.Errorf("expected cash 7000, got %s", l.Cash())
	}
}

func TestSellPreservesAverageCost(t *testing.T) {
	l := newTestLedger(10_000)
	now := time.Now()

	l.Buy("PXA", 10, decimal.NewFromInt(100), now)
	l.Buy("PXA", 10, decimal.NewFromInt(200), now)

	price := decimal.NewFromInt(180)
	if _, err := l.Sell("PXA", 5, price, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := l.Holding("PXA")
	if h.Qty != 15 {
		t.Errorf("expected qty 15, got %d", h.Qty)
	}
	if !h.Avg.Equal(decimal.NewFromInt(150)) {
		t.Errorf("sell must not touch the cost basis; avg = %s", h.Avg)
	}
	// 10000 - 1000 - 2000 + 5*180 = 7900
	if !l.Cash().Equal(decimal.NewFromInt(7_900)) {
		t.Errorf("expected cash 7900, got %s", l.Cash())
	}
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	l := newTestLedger(500)
	now := time.Now()

	_, err := l.Buy("PXA", 10, decimal.NewFromInt(100), now)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if !l.Cash().Equal(decimal.NewFromInt(500)) {
		t.Errorf("cash changed on rejected buy: %s", l.Cash())
	}
	if h := l.Holding("PXA"); h.Qty != 0 {
		t.Errorf("holding created on rejected buy: %+v", h)
	}
	if len(l.Fills()) != 0 {
		t.Error("fill recorded on rejected buy")
	}
}

func TestSellInsufficientPositionLeavesStateUntouched(t *testing.T) {
	l := newTestLedger(10_000)
	now := time.Now()

	l.Buy("PXA", 5, decimal.NewFromInt(100), now)

	_, err := l.Sell("PXA", 6, decimal.NewFromInt(100), now)
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}

	h := l.Holding("PXA")
	if h.Qty != 5 {
		t.Errorf("expected qty 5, got %d", h.Qty)
	}
	if !l.Cash().Equal(decimal.NewFromInt(9_500)) {
		t.Errorf("cash changed on rejected sell: %s", l.Cash())
	}
	if len(l.Fills()) != 1 {
		t.Errorf("expected 1 fill, got %d", len(l.Fills()))
	}
}

func TestSellUnknownCodeRejected(t *testing.T) {
	l := newTestLedger(10_000)

	_, err := l.Sell("PXA", 1, decimal.NewFromInt(100), time.Now())
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}
}

func TestInvalidQuantityRejected(t *testing.T) {
	l := newTestLedger(10_000)
	now := time.Now()

	for _, qty := range []int64{0, -1} {
		if _, err := l.Buy("PXA", qty, decimal.NewFromInt(100), now); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("buy qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
		if _, err := l.Sell("PXA", qty, decimal.NewFromInt(100), now); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("sell qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestFillsMostRecentFirstAndCapped(t *testing.T) {
	c := decimal.NewFromInt(1_000_000)
	l := NewLedger(c, c, nil, nil, 3)
	now := time.Now()

	for i := int64(1); i <= 5; i++ {
		if _, err := l.Buy("PXA", i, decimal.NewFromInt(10), now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	fills := l.Fills()
	if len(fills) != 3 {
		t.Fatalf("expected tape capped at 3, got %d", len(fills))
	}
	// Most recent first: qty 5, 4, 3.
	for i, want := range []int64{5, 4, 3} {
		if fills[i].Qty != want {
			t.Errorf("fill %d: expected qty %d, got %d", i, want, fills[i].Qty)
		}
	}
}

func TestHoldingReusableAfterFlatten(t *testing.T) {
	l := newTestLedger(10_000)
	now := time.Now()

	l.Buy("PXA", 10, decimal.NewFromInt(100), now)
	l.Sell("PXA", 10, decimal.NewFromInt(100), now)

	h := l.Holding("PXA")
	if h.Qty != 0 {
		t.Fatalf("expected flat position, got %d", h.Qty)
	}

	// A fresh buy restarts the cost basis from the new purchase alone.
	l.Buy("PXA", 4, decimal.NewFromInt(50), now)
	h = l.Holding("PXA")
	if h.Qty != 4 {
		t.Errorf("expected qty 4, got %d", h.Qty)
	}
	if !h.Avg.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected avg 50, got %s", h.Avg)
	}
}

func TestValuationHelpers(t *testing.T) {
	l := newTestLedger(1_000_000)
	now := time.Now()

	l.Buy("PXA", 100, decimal.NewFromInt(100), now)

	prices := map[market.Code]decimal.Decimal{"PXA": decimal.NewFromInt(110)}

	if got := l.Equity(prices); !got.Equal(decimal.NewFromInt(11_000)) {
		t.Errorf("expected equity 11000, got %s", got)
	}
	if got := l.TotalPnL(prices); !got.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("expected total pnl 1000, got %s", got)
	}
	if got := UnrealizedPnL(prices["PXA"], decimal.NewFromInt(100), 100); !got.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("expected unrealized pnl 1000, got %s", got)
	}
}
