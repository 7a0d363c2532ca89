package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestProperty_NextPriceFloorAndRounding(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64Range(1, 1<<62).Draw(t, "seed")
		cents := rapid.Int64Range(1, 10_000_000).Draw(t, "cents")
		steps := rapid.IntRange(1, 200).Draw(t, "steps")

		m := NewPriceModel(DefaultVolatility, seed)
		price := decimal.New(cents, -2)

		for i := 0; i < steps; i++ {
			price = m.Next(price)
			if price.LessThan(decimal.NewFromInt(1)) {
				t.Fatalf("price %s below floor after %d steps", price, i+1)
			}
			if price.Exponent() < -2 {
				t.Fatalf("price %s carries sub-cent precision after %d steps", price, i+1)
			}
		}
	})
}
