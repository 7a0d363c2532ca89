package core

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

// Ledger owns cash, per-instrument holdings and the fill history. Buy and
// Sell are atomic: every precondition is checked before the first mutation,
// so a rejected order leaves cash, holdings and fills untouched.
//
// Fills are kept most-recent-first and capped at maxFills as a resource
// bound; the engine itself never reads past the cap.
type Ledger struct {
	initialCash decimal.Decimal
	cash        decimal.Decimal
	holdings    map[market.Code]market.Holding
	fills       []market.Fill
	maxFills    int
}

// NewLedger restores a ledger. The holdings map and fills slice are copied;
// the caller keeps ownership of its arguments.
func NewLedger(initialCash, cash decimal.Decimal, holdings map[market.Code]market.Holding, fills []market.Fill, maxFills int) *Ledger {
	l := &Ledger{
		initialCash: initialCash,
		cash:        cash,
		holdings:    make(map[market.Code]market.Holding, len(holdings)),
		fills:       append([]market.Fill(nil), fills...),
		maxFills:    maxFills,
	}
	for code, h := range holdings {
		l.holdings[code] = h
	}
	if l.maxFills > 0 && len(l.fills) > l.maxFills {
		l.fills = l.fills[:l.maxFills]
	}
	return l
}

// Buy settles a purchase of qty units at price. The cost is rounded to two
// decimals and the holding's average cost becomes the quantity-weighted
// average of the existing position and the new purchase.
func (l *Ledger) Buy(code market.Code, qty int64, price decimal.Decimal, t time.Time) (market.Fill, error) {
	if qty <= 0 {
		return market.Fill{}, ErrInvalidQuantity
	}
	cost := price.Mul(decimal.NewFromInt(qty)).Round(2)
	if l.cash.LessThan(cost) {
		return market.Fill{}, ErrInsufficientFunds
	}

	h := l.holdings[code]
	newQty := h.Qty + qty
	newAvg := decimal.NewFromInt(h.Qty).Mul(h.Avg).Add(cost).
		Div(decimal.NewFromInt(newQty)).Round(2)

	l.holdings[code] = market.Holding{Qty: newQty, Avg: newAvg}
	l.cash = l.cash.Sub(cost)

	fill := market.NewFill(t, market.SideBuy, code, qty, price)
	l.record(fill)
	return fill, nil
}

// Sell settles a sale of qty units at price. The average cost of the
// remaining position is unchanged: selling realizes P&L against the existing
// cost basis, it does not recompute it.
func (l *Ledger) Sell(code market.Code, qty int64, price decimal.Decimal, t time.Time) (market.Fill, error) {
	if qty <= 0 {
		return market.Fill{}, ErrInvalidQuantity
	}
	h := l.holdings[code]
	if h.Qty < qty {
		return market.Fill{}, ErrInsufficientPosition
	}

	proceeds := price.Mul(decimal.NewFromInt(qty)).Round(2)
	l.holdings[code] = market.Holding{Qty: h.Qty - qty, Avg: h.Avg}
	l.cash = l.cash.Add(proceeds)

	fill := market.NewFill(t, market.SideSell, code, qty, price)
	l.record(fill)
	return fill, nil
}

// record prepends a fill (most-recent-first) and trims to the cap.
func (l *Ledger) record(f market.Fill) {
	l.fills = append(l.fills, market.Fill{})
	copy(l.fills[1:], l.fills)
	l.fills[0] = f
	if l.maxFills > 0 && len(l.fills) > l.maxFills {
		l.fills = l.fills[:l.maxFills]
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// InitialCash returns the session's starting cash.
func (l *Ledger) InitialCash() decimal.Decimal {
	return l.initialCash
}

// Holding returns the position for code (zero value when never traded).
func (l *Ledger) Holding(code market.Code) market.Holding {
	return l.holdings[code]
}

// Holdings returns a copy of all holdings, including zero-quantity ones.
func (l *Ledger) Holdings() map[market.Code]market.Holding {
	out := make(map[market.Code]market.Holding, len(l.holdings))
	for code, h := range l.holdings {
		out[code] = h
	}
	return out
}

// Fills returns a copy of the fill history, most recent first.
func (l *Ledger) Fills() []market.Fill {
	return append([]market.Fill(nil), l.fills...)
}

// Equity values every open position at the given prices.
func (l *Ledger) Equity(prices map[market.Code]decimal.Decimal) decimal.Decimal {
	equity := decimal.Zero
	for code, h := range l.holdings {
		if h.Qty <= 0 {
			continue
		}
		equity = equity.Add(MarketValue(prices[code], h.Qty))
	}
	return equity
}

// TotalPnL is cash + equity - initial cash.
func (l *Ledger) TotalPnL(prices map[market.Code]decimal.Decimal) decimal.Decimal {
	return l.cash.Add(l.Equity(prices)).Sub(l.initialCash)
}

// MarketValue is the value of qty units at price.
func MarketValue(price decimal.Decimal, qty int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(qty))
}

// UnrealizedPnL is the open P&L of qty units held at avg when the market
// trades at price.
func UnrealizedPnL(price, avg decimal.Decimal, qty int64) decimal.Decimal {
	return price.Sub(avg).Mul(decimal.NewFromInt(qty))
}
