package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", t.TempDir()+"/missing.yaml"))
	err := root.Execute()
	return out.String(), err
}

func TestClassifyFallback(t *testing.T) {
	out, err := run(t, "classify", "--vix", "14", "--change", "1.2", "--format", "json")
	require.NoError(t, err)

	var res models.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, models.Bullish, res.Condition)
	assert.Equal(t, models.ModeFallback, res.Mode)
}

func TestClassifyWeighted(t *testing.T) {
	out, err := run(t, "classify",
		"--vix", "30", "--change", "-2",
		"--trend", "down", "--trend-confidence", "0.8",
		"--sentiment", "-3", "--sentiment-confidence", "0.7",
		"--format", "json")
	require.NoError(t, err)

	var res models.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, models.Bearish, res.Condition)
	assert.Equal(t, models.ModeWeighted, res.Mode)
	assert.Len(t, res.Signals, 4)
}

func TestClassifyRejectsBadInput(t *testing.T) {
	_, err := run(t, "classify", "--vix", "14", "--change", "1", "--trend", "flat")
	require.ErrorIs(t, err, models.ErrInvalidTrend)

	_, err = run(t, "classify", "--vix", "14", "--change", "1", "--sentiment", "9")
	require.Error(t, err)

	_, err = run(t, "classify", "--change", "1")
	require.Error(t, err)
}

func TestAllocate(t *testing.T) {
	out, err := run(t, "allocate", "--risk", "moderate", "--condition", "bearish", "--amount", "1000", "--format", "json")
	require.NoError(t, err)

	var res models.AllocationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, models.AssetAllocation{Equity: 35, Debt: 38, Gold: 17, Cash: 10}, res.Allocation)
	require.NotNil(t, res.Amounts)
	assert.Equal(t, "380", res.Amounts.Debt.String())

	out, err = run(t, "allocate", "--risk", "moderate", "--condition", "bearish")
	require.NoError(t, err)
	assert.Contains(t, out, "equity")
	assert.Contains(t, out, "35%")
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := run(t, "allocate", "--risk", "bold", "--condition", "neutral")
	require.ErrorIs(t, err, models.ErrInvalidRiskProfile)

	_, err = run(t, "allocate", "--risk", "moderate", "--condition", "neutral", "--amount", "-5")
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = run(t, "allocate", "--risk", "moderate", "--condition", "neutral", "--amount", "lots")
	require.ErrorIs(t, err, models.ErrInvalidAmount)
}
