package core

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	cases := []struct {
		name   string
		x      float64
		places int32
		want   float64
	}{
		{"half up on a stored value above the midpoint", 120.555, 2, 120.56},
		{"stored value just below the midpoint", 500 - 120.555, 2, 379.44},
		{"exact midpoint rounds up", 0.125, 2, 0.13},
		{"negative midpoint rounds toward positive infinity", -0.125, 2, -0.12},
		{"negative past the midpoint", -0.126, 2, -0.13},
		{"negative net loss", 120.555 - 500, 2, -379.44},
		{"negative acreage midpoint", -2.25, 1, -2.2},
		{"acreage to one place", 149.96, 1, 150.0},
		{"already rounded", 500, 2, 500},
		{"margin", (500 - 120.555) / 500 * 100, 2, 75.89},
		{"NaN", math.NaN(), 2, 0},
		{"infinity", math.Inf(1), 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Round(tc.x, tc.places); got != tc.want {
				t.Fatalf("Round(%v, %d) = %v, want %v", tc.x, tc.places, got, tc.want)
			}
		})
	}
}

func TestFertilizerTotalCost(t *testing.T) {
	r := FertilizerRecord{QuantityUsed: 7, CostPerUnit: 1.15}
	r.ComputeTotal()
	if r.TotalCost != 8.05 {
		t.Fatalf("TotalCost = %v, want 8.05", r.TotalCost)
	}
}

func TestIncomeDeriveAmount(t *testing.T) {
	i := Income{Quantity: 40, PricePerUnit: 2.5}
	i.DeriveAmount()
	if i.Amount != 100 {
		t.Fatalf("Amount = %v, want 100", i.Amount)
	}

	i = Income{Amount: 90, Quantity: 40, PricePerUnit: 2.5}
	i.DeriveAmount()
	if i.Amount != 90 {
		t.Fatalf("explicit amount overwritten: %v", i.Amount)
	}
}
