package allocation

import (
	"fmt"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

// Bucket order used by Vector and Bounds.
const (
	Equity = iota
	Debt
	Gold
	Cash
	numBuckets
)

// Vector holds one value per bucket in equity, debt, gold, cash order.
type Vector [numBuckets]int

// Sum returns the total across buckets.
func (v Vector) Sum() int {
	s := 0
	for _, x := range v {
		s += x
	}
	return s
}

func (v Vector) allocation() models.AssetAllocation {
	return models.AssetAllocation{Equity: v[Equity], Debt: v[Debt], Gold: v[Gold], Cash: v[Cash]}
}

// Bound is an inclusive [Min,Max] range for one bucket.
type Bound struct {
	Min int
	Max int
}

// Table is the lookup data for the optimizer. Every caller shares DefaultTable.
type Table struct {
	Base   map[models.RiskProfile]Vector
	Delta  map[models.MarketCondition]Vector
	Bounds [numBuckets]Bound
}

// DefaultTable is the canonical base, delta and bound table.
var DefaultTable = Table{
	Base: map[models.RiskProfile]Vector{
		models.Conservative: {30, 45, 15, 10},
		models.Moderate:     {50, 30, 12, 8},
		models.Aggressive:   {70, 15, 10, 5},
	},
	Delta: map[models.MarketCondition]Vector{
		models.Bearish: {-15, 8, 5, 2},
		models.Neutral: {0, 0, 0, 0},
		models.Bullish: {10, -5, -3, -2},
	},
	Bounds: [numBuckets]Bound{
		Equity: {Min: 10, Max: 90},
		Debt:   {Min: 10, Max: 70},
		Gold:   {Min: 0, Max: 30},
		Cash:   {Min: 0, Max: 30},
	},
}

// Validate checks that base rows sum to 100, delta rows sum to 0 and bounds are sane.
func (t Table) Validate() error {
	for _, r := range models.RiskProfiles {
		row, ok := t.Base[r]
		if !ok {
			return fmt.Errorf("base table missing %s", r)
		}
		if row.Sum() != 100 {
			return fmt.Errorf("base row %s sums to %d", r, row.Sum())
		}
	}
	for _, c := range models.MarketConditions {
		row, ok := t.Delta[c]
		if !ok {
			return fmt.Errorf("delta table missing %s", c)
		}
		if row.Sum() != 0 {
			return fmt.Errorf("delta row %s sums to %d", c, row.Sum())
		}
	}
	minSum := 0
	for i, b := range t.Bounds {
		if b.Min < 0 || b.Min > b.Max {
			return fmt.Errorf("bucket %d has invalid bounds [%d,%d]", i, b.Min, b.Max)
		}
		minSum += b.Min
	}
	if t.Bounds[Equity].Min <= 0 {
		return fmt.Errorf("equity floor must be positive")
	}
	if minSum > 100 {
		return fmt.Errorf("bucket floors sum to %d", minSum)
	}
	return nil
}

func (t Table) clamp(v Vector) Vector {
	for i, b := range t.Bounds {
		if v[i] < b.Min {
			v[i] = b.Min
		}
		if v[i] > b.Max {
			v[i] = b.Max
		}
	}
	return v
}
