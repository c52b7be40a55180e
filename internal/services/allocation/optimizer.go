package allocation

import (
	"fmt"
	"math"

	"github.com/narayanprabad/InvestWise/internal/domain/models"

	"gonum.org/v1/gonum/floats"
)

// Optimizer maps a risk profile and market condition to an asset allocation.
// It is stateless and safe for concurrent use.
type Optimizer struct {
	table Table
}

// Option configures Optimizer.
type Option func(*Optimizer)

// WithTable replaces the lookup table. The table must pass Validate.
func WithTable(t Table) Option {
	return func(o *Optimizer) { o.table = t }
}

// NewOptimizer creates an optimizer over DefaultTable unless overridden.
func NewOptimizer(opts ...Option) (*Optimizer, error) {
	o := &Optimizer{table: DefaultTable}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.table.Validate(); err != nil {
		return nil, fmt.Errorf("allocation table: %w", err)
	}
	return o, nil
}

// Allocate returns the allocation for risk under condition.
func (o *Optimizer) Allocate(risk models.RiskProfile, condition models.MarketCondition) (models.AssetAllocation, error) {
	delta, ok := o.table.Delta[condition]
	if !ok {
		return models.AssetAllocation{}, fmt.Errorf("%w: %q", models.ErrInvalidMarketCondition, condition)
	}
	return o.AllocateWithDelta(risk, delta)
}

// AllocateWithDelta applies an arbitrary delta to the base row of risk and runs the
// same clamp and normalize steps as Allocate.
func (o *Optimizer) AllocateWithDelta(risk models.RiskProfile, delta Vector) (models.AssetAllocation, error) {
	base, ok := o.table.Base[risk]
	if !ok {
		return models.AssetAllocation{}, fmt.Errorf("%w: %q", models.ErrInvalidRiskProfile, risk)
	}
	var v Vector
	for i := range v {
		v[i] = base[i] + delta[i]
	}
	return normalize(o.table.clamp(v)).allocation(), nil
}

// normalize scales v so the buckets sum to exactly 100. Rounding residual goes to equity.
func normalize(v Vector) Vector {
	sum := v.Sum()
	if sum == 100 {
		return v
	}
	fs := make([]float64, numBuckets)
	for i, x := range v {
		fs[i] = float64(x)
	}
	floats.Scale(100/float64(sum), fs)

	var out Vector
	for i, f := range fs {
		out[i] = int(math.Round(f))
	}
	out[Equity] += 100 - out.Sum()
	return out
}
