package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/session"
)

// Core is the single-threaded engine: Tick advances every price and
// re-evaluates the halt condition, Submit executes a market-price order at
// the instrument's current price. Core does no locking; callers own
// serialization (see the service layer).
type Core struct {
	stocks  []market.Stock
	index   map[market.Code]int
	breaker *CircuitBreaker
	prices  *PriceModel
	ledger  *Ledger
}

// NewCore restores an engine from a session document. The state is cloned;
// the caller's copy is never mutated.
func NewCore(st session.State, model *PriceModel, maxFills int) *Core {
	st = st.Clone()

	index := make(map[market.Code]int, len(st.Stocks))
	for i, s := range st.Stocks {
		index[s.Code] = i
	}

	return &Core{
		stocks:  st.Stocks,
		index:   index,
		breaker: NewCircuitBreaker(st.Circuit),
		prices:  model,
		ledger:  NewLedger(st.InitialCash, st.Cash, st.Holdings, st.Fills, maxFills),
	}
}

// Tick advances one simulation step. While the market is halted it is a
// no-op. Otherwise every stock gets a new price from the model, the breaker
// is evaluated against each updated stock, and the stock set is replaced
// wholesale — an observer sees either the old snapshot or the new one, never
// a mix. All stocks advance on the tripping tick; the freeze starts with the
// next one.
func (c *Core) Tick(now time.Time) []Event {
	if c.breaker.Active() {
		return nil
	}

	next := make([]market.Stock, len(c.stocks))
	events := make([]Event, 0, len(c.stocks)+1)
	var halt *MarketHaltedEvent

	for i, s := range c.stocks {
		upd := s
		upd.Price = c.prices.Next(s.Price)
		if c.breaker.Evaluate(upd) && halt == nil {
			halt = &MarketHaltedEvent{
				Code:       upd.Code,
				Price:      upd.Price,
				TriggerPct: c.breaker.State().TriggerPct,
				Time:       now,
			}
		}
		next[i] = upd
		events = append(events, PriceUpdatedEvent{
			Code:      upd.Code,
			Price:     upd.Price,
			PrevClose: upd.PrevClose,
			Time:      now,
		})
	}

	c.stocks = next
	if halt != nil {
		events = append(events, *halt)
	}
	return events
}

// Submit executes a market-price order: instant, full fill at the
// instrument's current price. Validation order matches the rejection
// taxonomy: unknown instrument, invalid quantity, halted market, then the
// ledger's funds/position checks.
func (c *Core) Submit(side market.Side, code market.Code, qty int64, now time.Time) (market.Fill, []Event, error) {
	i, ok := c.index[code]
	if !ok {
		return market.Fill{}, nil, ErrUnknownInstrument
	}
	if qty <= 0 {
		return market.Fill{}, nil, ErrInvalidQuantity
	}
	if c.breaker.Active() {
		return market.Fill{}, nil, ErrMarketHalted
	}

	price := c.stocks[i].Price

	var fill market.Fill
	var err error
	switch side {
	case market.SideBuy:
		fill, err = c.ledger.Buy(code, qty, price, now)
	case market.SideSell:
		fill, err = c.ledger.Sell(code, qty, price, now)
	default:
		return market.Fill{}, nil, fmt.Errorf("unknown side %d", side)
	}
	if err != nil {
		return market.Fill{}, nil, err
	}

	return fill, []Event{OrderFilledEvent{Fill: fill}}, nil
}

// Halted reports whether the circuit breaker has latched.
func (c *Core) Halted() bool {
	return c.breaker.Active()
}

// Stocks returns a copy of the current stock snapshot, in catalog order.
func (c *Core) Stocks() []market.Stock {
	return append([]market.Stock(nil), c.stocks...)
}

// Stock looks up one instrument by code.
func (c *Core) Stock(code market.Code) (market.Stock, bool) {
	i, ok := c.index[code]
	if !ok {
		return market.Stock{}, false
	}
	return c.stocks[i], true
}

// Prices returns the current price of every instrument.
func (c *Core) Prices() map[market.Code]decimal.Decimal {
	out := make(map[market.Code]decimal.Decimal, len(c.stocks))
	for _, s := range c.stocks {
		out[s.Code] = s.Price
	}
	return out
}

// Ledger exposes the read side of the ledger.
func (c *Core) Ledger() *Ledger {
	return c.ledger
}

// SessionState exports the persistence document. Sim is left zero: the
// scheduler state belongs to the service, which fills it in before saving.
func (c *Core) SessionState() session.State {
	return session.State{
		InitialCash: c.ledger.InitialCash(),
		Cash:        c.ledger.Cash(),
		Holdings:    c.ledger.Holdings(),
		Fills:       c.ledger.Fills(),
		Stocks:      c.Stocks(),
		Circuit:     c.breaker.State(),
	}
}
