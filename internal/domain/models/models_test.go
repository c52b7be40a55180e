package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskProfile(t *testing.T) {
	for _, raw := range []string{"conservative", "Moderate", " AGGRESSIVE "} {
		r, err := ParseRiskProfile(raw)
		require.NoError(t, err, raw)
		assert.True(t, r.Valid())
	}

	_, err := ParseRiskProfile("reckless")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRiskProfile)
	assert.True(t, IsInvalidInput(err))
}

func TestParseMarketCondition(t *testing.T) {
	c, err := ParseMarketCondition("Bullish")
	require.NoError(t, err)
	assert.Equal(t, Bullish, c)

	_, err = ParseMarketCondition("")
	assert.ErrorIs(t, err, ErrInvalidMarketCondition)
}

func TestParseTrend(t *testing.T) {
	tr, err := ParseTrend("sideways")
	require.NoError(t, err)
	assert.Equal(t, TrendSideways, tr)

	_, err = ParseTrend("flat")
	assert.ErrorIs(t, err, ErrInvalidTrend)
}

func TestAllocationSplit(t *testing.T) {
	a := AssetAllocation{Equity: 15, Debt: 53, Gold: 20, Cash: 12}
	require.True(t, a.Valid())

	amounts, err := a.Split(decimal.RequireFromString("1000.01"))
	require.NoError(t, err)

	sum := amounts.Equity.Add(amounts.Debt).Add(amounts.Gold).Add(amounts.Cash)
	assert.True(t, sum.Equal(decimal.RequireFromString("1000.01")), "parts must add up, got %s", sum)
	assert.Equal(t, "530.01", amounts.Debt.StringFixed(2))
	assert.Equal(t, "200.00", amounts.Gold.StringFixed(2))

	_, err = a.Split(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGoalProgress(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	target := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	g := Goal{
		ID:            "g1",
		Name:          "house",
		TargetAmount:  decimal.NewFromInt(12000),
		CurrentAmount: decimal.NewFromInt(3000),
		TargetDate:    &target,
	}

	p := g.Progress(now)
	assert.Equal(t, "25", p.Percent.String())
	assert.Equal(t, "9000", p.Remaining.String())
	assert.Equal(t, 12, p.MonthsTo)
	assert.Equal(t, "750", p.MonthlyNeeded.String())
}

func TestReportSnapshot(t *testing.T) {
	r := &MarketReport{
		Symbol:    "^NSEI",
		Timestamp: time.Unix(1700000000, 0),
		Inputs: ClassifierInputs{
			Volatility:    18,
			ChangePercent: 0.4,
			Trend:         &TrendPrediction{Trend: TrendUp, Confidence: 0.7},
		},
		Classification: Classification{Condition: Bullish, Mode: ModeFallback},
	}

	s := r.Snapshot("id-1")
	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, Bullish, s.Condition)
	assert.Equal(t, "up", s.Trend)
	assert.Equal(t, 0.7, s.TrendConfidence)
	assert.Zero(t, s.Sentiment)
}
