package allocation

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/narayanprabad/InvestWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	o, err := NewOptimizer()
	require.NoError(t, err)
	return o
}

func TestDefaultTableIsValid(t *testing.T) {
	require.NoError(t, DefaultTable.Validate())
}

func TestAllocateEveryCombination(t *testing.T) {
	o := newOptimizer(t)

	want := map[models.RiskProfile]map[models.MarketCondition]models.AssetAllocation{
		models.Conservative: {
			models.Bearish: {Equity: 15, Debt: 53, Gold: 20, Cash: 12},
			models.Neutral: {Equity: 30, Debt: 45, Gold: 15, Cash: 10},
			models.Bullish: {Equity: 40, Debt: 40, Gold: 12, Cash: 8},
		},
		models.Moderate: {
			models.Bearish: {Equity: 35, Debt: 38, Gold: 17, Cash: 10},
			models.Neutral: {Equity: 50, Debt: 30, Gold: 12, Cash: 8},
			models.Bullish: {Equity: 60, Debt: 25, Gold: 9, Cash: 6},
		},
		models.Aggressive: {
			models.Bearish: {Equity: 55, Debt: 23, Gold: 15, Cash: 7},
			models.Neutral: {Equity: 70, Debt: 15, Gold: 10, Cash: 5},
			models.Bullish: {Equity: 80, Debt: 10, Gold: 7, Cash: 3},
		},
	}

	for _, r := range models.RiskProfiles {
		for _, c := range models.MarketConditions {
			t.Run(string(r)+"/"+string(c), func(t *testing.T) {
				got, err := o.Allocate(r, c)
				require.NoError(t, err)
				assert.True(t, got.Valid(), "allocation %s must be non-negative and sum to 100", got)
				assert.Equal(t, want[r][c], got)

				again, err := o.Allocate(r, c)
				require.NoError(t, err)
				assert.Equal(t, got, again, "allocation must be deterministic")
			})
		}
	}
}

func TestAllocateInjectedDeltaClampsEquity(t *testing.T) {
	o := newOptimizer(t)

	got, err := o.AllocateWithDelta(models.Aggressive, Vector{30, -10, -10, -10})
	require.NoError(t, err)
	assert.Equal(t, 90, got.Equity)
	assert.Equal(t, models.AssetAllocation{Equity: 90, Debt: 10, Gold: 0, Cash: 0}, got)
	assert.True(t, got.Valid())
}

func TestAllocateFloorClamp(t *testing.T) {
	o := newOptimizer(t)

	// debt would drop to -5 and cash to -20 without clamping
	got, err := o.AllocateWithDelta(models.Conservative, Vector{10, -50, 10, -30})
	require.NoError(t, err)
	assert.True(t, got.Valid(), "got %s", got)
	assert.GreaterOrEqual(t, got.Debt, 0)
	assert.GreaterOrEqual(t, got.Cash, 0)
}

func TestAllocateRoundingResidualGoesToEquity(t *testing.T) {
	o := newOptimizer(t)

	// clamps to {90,70,30,30}; scaled values round to 41+32+14+14 = 101
	got, err := o.AllocateWithDelta(models.Conservative, Vector{60, 25, 15, 20})
	require.NoError(t, err)
	assert.Equal(t, models.AssetAllocation{Equity: 40, Debt: 32, Gold: 14, Cash: 14}, got)
}

func TestAllocateWithRandomDeltasStaysValid(t *testing.T) {
	o := newOptimizer(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		var d Vector
		for j := range d {
			d[j] = rng.Intn(201) - 100
		}
		r := models.RiskProfiles[rng.Intn(len(models.RiskProfiles))]
		got, err := o.AllocateWithDelta(r, d)
		require.NoError(t, err)
		require.True(t, got.Valid(), "risk %s delta %v gave %s", r, d, got)
	}
}

func TestAllocateConcurrent(t *testing.T) {
	o := newOptimizer(t)
	want, err := o.Allocate(models.Moderate, models.Bullish)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := models.RiskProfiles[i%len(models.RiskProfiles)]
			c := models.MarketConditions[i%len(models.MarketConditions)]
			got, err := o.Allocate(r, c)
			assert.NoError(t, err)
			assert.True(t, got.Valid())

			got, err = o.Allocate(models.Moderate, models.Bullish)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}(i)
	}
	wg.Wait()
}

func TestAllocateRejectsUnknownEnums(t *testing.T) {
	o := newOptimizer(t)

	_, err := o.Allocate("yolo", models.Bullish)
	assert.ErrorIs(t, err, models.ErrInvalidRiskProfile)

	_, err = o.Allocate(models.Moderate, "sideways")
	assert.ErrorIs(t, err, models.ErrInvalidMarketCondition)
}

func TestNewOptimizerRejectsBadTable(t *testing.T) {
	bad := DefaultTable
	bad.Base = map[models.RiskProfile]Vector{
		models.Conservative: {30, 45, 15, 11},
		models.Moderate:     {50, 30, 12, 8},
		models.Aggressive:   {70, 15, 10, 5},
	}
	_, err := NewOptimizer(WithTable(bad))
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	got := DefaultTable.clamp(Vector{100, 80, -5, 31})
	assert.Equal(t, Vector{90, 70, 0, 30}, got)
}
