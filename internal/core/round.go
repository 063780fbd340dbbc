package core

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Round rounds x to the given number of decimal places, ties toward
// positive infinity.
//
// The decision is made on the exact binary value of x, not on its shortest
// decimal spelling: 500-120.555 is stored as 379.44499999999999..., so it
// rounds to 379.44. NaN and infinities round to 0.
//
//	Round(120.555, 2) -> 120.56
//	Round(0.125, 2)   -> 0.13
//	Round(-0.125, 2)  -> -0.12
//	Round(149.96, 1)  -> 150.0
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(x).Text('f', 80))
	if err != nil {
		return 0
	}
	half := decimal.New(5, -places-1)
	return exact.Add(half).RoundFloor(places).InexactFloat64()
}

// RoundMoney rounds a monetary or quantity value for presentation.
func RoundMoney(x float64) float64 { return Round(x, 2) }

// RoundTenth rounds acreage, areas and average severity for presentation.
func RoundTenth(x float64) float64 { return Round(x, 1) }
