package core

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVolatility is the per-step shock bound of the random walk (1%).
const DefaultVolatility = 0.01

// priceFloor keeps generated prices away from zero.
var priceFloor = decimal.NewFromInt(1)

// PriceModel produces the next price for an instrument: a zero-drift
// log-return random walk with a uniform shock in [-vol, +vol]. It is
// stateless given the current price; only the RNG carries state.
type PriceModel struct {
	vol float64
	rng *rand.Rand
}

// NewPriceModel creates a price model. A non-positive vol falls back to
// DefaultVolatility; seed 0 seeds from the clock. Pass a fixed seed for
// reproducible walks in tests.
func NewPriceModel(vol float64, seed int64) *PriceModel {
	if vol <= 0 {
		vol = DefaultVolatility
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PriceModel{
		vol: vol,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next price for current. The result is rounded to two
// decimals (half away from zero) and never drops below 1.
func (m *PriceModel) Next(current decimal.Decimal) decimal.Decimal {
	shock := (m.rng.Float64() - 0.5) * 2 * m.vol
	next := current.Mul(decimal.NewFromFloat(1 + shock)).Round(2)
	if next.LessThan(priceFloor) {
		return priceFloor
	}
	return next
}
