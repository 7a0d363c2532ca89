package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestProperty_CashAndHoldingsNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Int64Range(0, 1_000_000).Draw(t, "startCash")
		l := newTestLedger(start)
		now := time.Now()

		ops := rapid.IntRange(1, 100).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			qty := rapid.Int64Range(1, 50).Draw(t, "qty")
			price := decimal.NewFromInt(rapid.Int64Range(1, 500).Draw(t, "price"))

			if rapid.Bool().Draw(t, "isBuy") {
				l.Buy("PXA", qty, price, now)
			} else {
				l.Sell("PXA", qty, price, now)
			}

			if l.Cash().Sign() < 0 {
				t.Fatalf("cash went negative: %s", l.Cash())
			}
			if h := l.Holding("PXA"); h.Qty < 0 {
				t.Fatalf("holding went negative: %d", h.Qty)
			}
		}
	})
}

func TestProperty_AverageCostBoundedByTradedPrices(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := newTestLedger(100_000_000)
		now := time.Now()

		lo := decimal.NewFromInt(10_000)
		hi := decimal.Zero

		buys := rapid.IntRange(1, 20).Draw(t, "buys")
		for i := 0; i < buys; i++ {
			qty := rapid.Int64Range(1, 100).Draw(t, "qty")
			px := rapid.Int64Range(1, 1_000).Draw(t, "price")
			price := decimal.NewFromInt(px)

			if _, err := l.Buy("PXA", qty, price, now); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if price.LessThan(lo) {
				lo = price
			}
			if price.GreaterThan(hi) {
				hi = price
			}
		}

		// The weighted average must sit inside the traded price range, give
		// or take the cent rounding applied at each recomputation.
		tol := decimal.NewFromFloat(0.01)
		avg := l.Holding("PXA").Avg
		if avg.LessThan(lo.Sub(tol)) || avg.GreaterThan(hi.Add(tol)) {
			t.Fatalf("avg %s outside traded range [%s, %s]", avg, lo, hi)
		}
	})
}

func TestProperty_RoundTripSamePriceRestoresCash(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := newTestLedger(10_000_000)
		now := time.Now()

		qty := rapid.Int64Range(1, 1_000).Draw(t, "qty")
		cents := rapid.Int64Range(100, 500_000).Draw(t, "cents")
		price := decimal.New(cents, -2)

		before := l.Cash()
		if _, err := l.Buy("PXA", qty, price, now); err != nil {
			t.Fatalf("buy: %v", err)
		}
		if _, err := l.Sell("PXA", qty, price, now); err != nil {
			t.Fatalf("sell: %v", err)
		}

		if !l.Cash().Equal(before) {
			t.Fatalf("buy+sell at the same price must restore cash: %s != %s", l.Cash(), before)
		}
	})
}
