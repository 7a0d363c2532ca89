package view

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/market/core"
	"github.com/zappabad/papertrade/internal/session"
)

// StockRow is one instrument of the tape plus its change against the
// reference close.
type StockRow struct {
	market.Stock
	Change    decimal.Decimal
	ChangePct decimal.Decimal
}

// HoldingRow is one open position valued at the current price.
type HoldingRow struct {
	Code          market.Code
	Qty           int64
	Avg           decimal.Decimal
	Price         decimal.Decimal
	MarketValue   decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// Snapshot is an immutable, display-ready view of the whole session. It is
// rebuilt after every engine mutation; readers never see a half-applied
// state.
type Snapshot struct {
	Stocks   []StockRow
	Holdings []HoldingRow
	Fills    []market.Fill

	Cash     decimal.Decimal
	Equity   decimal.Decimal
	Total    decimal.Decimal
	TotalPnL decimal.Decimal

	Circuit market.CircuitState
	Sim     market.SimState
}

// Build derives a Snapshot from a session document. Zero-quantity holdings
// are omitted from the rows (their avg carries no meaning); equity and P&L
// follow from the open rows alone.
func Build(st session.State) Snapshot {
	prices := make(map[market.Code]decimal.Decimal, len(st.Stocks))
	stocks := make([]StockRow, 0, len(st.Stocks))
	for _, s := range st.Stocks {
		prices[s.Code] = s.Price
		stocks = append(stocks, StockRow{
			Stock:     s,
			Change:    s.Change(),
			ChangePct: s.ChangePct(),
		})
	}

	equity := decimal.Zero
	holdings := make([]HoldingRow, 0, len(st.Holdings))
	for code, h := range st.Holdings {
		if h.Qty <= 0 {
			continue
		}
		price := prices[code]
		value := core.MarketValue(price, h.Qty)
		equity = equity.Add(value)
		holdings = append(holdings, HoldingRow{
			Code:          code,
			Qty:           h.Qty,
			Avg:           h.Avg,
			Price:         price,
			MarketValue:   value,
			UnrealizedPnL: core.UnrealizedPnL(price, h.Avg, h.Qty),
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Code < holdings[j].Code })

	total := st.Cash.Add(equity)
	return Snapshot{
		Stocks:   stocks,
		Holdings: holdings,
		Fills:    append([]market.Fill(nil), st.Fills...),
		Cash:     st.Cash,
		Equity:   equity,
		Total:    total,
		TotalPnL: total.Sub(st.InitialCash),
		Circuit:  st.Circuit,
		Sim:      st.Sim,
	}
}

// MarketView publishes the latest Snapshot to readers outside the engine's
// command loop.
type MarketView struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMarketView creates a view seeded with an empty snapshot.
func NewMarketView() *MarketView {
	return &MarketView{}
}

// Set replaces the published snapshot.
func (v *MarketView) Set(snap Snapshot) {
	v.mu.Lock()
	v.snap = snap
	v.mu.Unlock()
}

// Snapshot returns the most recently published snapshot.
func (v *MarketView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}
