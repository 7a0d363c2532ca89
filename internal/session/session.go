package session

import (
	"github.com/shopspring/decimal"

	"github.com/zappabad/papertrade/internal/market"
)

// Scheduler interval bounds in milliseconds. The minimum is enforced on every
// path that sets the interval (config, persisted state, UI).
const (
	MinTickMs     = 300
	DefaultTickMs = 1500
)

// DefaultTriggerPct is the circuit-breaker band (± percent of prevClose).
const DefaultTriggerPct = 10

// DefaultInitialCash is the starting cash of a fresh session.
var DefaultInitialCash = decimal.NewFromInt(1_000_000)

// State is the full persistence document of one trading session. It is what
// the store saves and loads, and what the engine core is restored from.
type State struct {
	InitialCash decimal.Decimal                `json:"initialCash"`
	Cash        decimal.Decimal                `json:"cash"`
	Holdings    map[market.Code]market.Holding `json:"holdings"`
	Fills       []market.Fill                  `json:"fills"`
	Stocks      []market.Stock                 `json:"stocks"`
	Circuit     market.CircuitState            `json:"circuit"`
	Sim         market.SimState                `json:"sim"`
}

// DefaultState returns the fixed fresh session: the built-in catalog, starting
// cash, an inactive circuit breaker and a stopped scheduler.
func DefaultState() State {
	return State{
		InitialCash: DefaultInitialCash,
		Cash:        DefaultInitialCash,
		Holdings:    make(map[market.Code]market.Holding),
		Fills:       nil,
		Stocks:      DefaultCatalog(),
		Circuit: market.CircuitState{
			Active:     false,
			TriggerPct: decimal.NewFromInt(DefaultTriggerPct),
		},
		Sim: market.SimState{
			Running: false,
			TickMs:  DefaultTickMs,
		},
	}
}

// DefaultCatalog returns the built-in instrument set. Prices start at the
// reference close.
func DefaultCatalog() []market.Stock {
	mk := func(code market.Code, name string, px int64) market.Stock {
		p := decimal.NewFromInt(px)
		return market.Stock{Code: code, Name: name, Price: p, PrevClose: p}
	}
	return []market.Stock{
		mk("PXA", "Passa A", 100),
		mk("PBK", "Bank of Prokoland", 250),
		mk("RFE", "Raffine Electronics", 80),
		mk("AER", "Aetherion Space", 320),
	}
}

// Clone returns a deep copy. Decimal values are immutable, so copying the
// containers is sufficient.
func (s State) Clone() State {
	out := s
	out.Holdings = make(map[market.Code]market.Holding, len(s.Holdings))
	for code, h := range s.Holdings {
		out.Holdings[code] = h
	}
	out.Fills = append([]market.Fill(nil), s.Fills...)
	out.Stocks = append([]market.Stock(nil), s.Stocks...)
	return out
}

// Sanitize repairs a loaded state so the engine never starts from invalid
// data. A corrupt catalog falls back to the whole default session; lesser
// damage is repaired field by field. The scheduler always comes back stopped:
// the tick interval of a previous process does not survive a reload.
func (s *State) Sanitize() {
	if !s.catalogValid() {
		*s = DefaultState()
		return
	}

	if s.InitialCash.Sign() <= 0 {
		s.InitialCash = DefaultInitialCash
	}
	if s.Cash.Sign() < 0 {
		s.Cash = s.InitialCash
	}
	if s.Holdings == nil {
		s.Holdings = make(map[market.Code]market.Holding)
	}
	for code, h := range s.Holdings {
		if h.Qty < 0 || h.Avg.Sign() < 0 {
			delete(s.Holdings, code)
		}
	}

	valid := s.Fills[:0]
	for _, f := range s.Fills {
		if f.Qty > 0 && f.Price.Sign() > 0 {
			valid = append(valid, f)
		}
	}
	s.Fills = valid

	if s.Circuit.TriggerPct.Sign() <= 0 {
		s.Circuit.TriggerPct = decimal.NewFromInt(DefaultTriggerPct)
	}

	s.Sim.Running = false
	switch {
	case s.Sim.TickMs <= 0:
		s.Sim.TickMs = DefaultTickMs
	case s.Sim.TickMs < MinTickMs:
		s.Sim.TickMs = MinTickMs
	}
}

func (s *State) catalogValid() bool {
	if len(s.Stocks) == 0 {
		return false
	}
	seen := make(map[market.Code]bool, len(s.Stocks))
	for _, st := range s.Stocks {
		if st.Code == "" || seen[st.Code] {
			return false
		}
		if st.Price.Sign() <= 0 || st.PrevClose.Sign() <= 0 {
			return false
		}
		seen[st.Code] = true
	}
	return true
}
