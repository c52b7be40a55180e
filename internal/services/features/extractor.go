package features

import (
	"math"

	"github.com/narayanprabad/InvestWise/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// Closes extracts close prices in the order given.
func Closes(points []models.PricePoint) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Close)
	}
	return out
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(closes)-1, or nil if insufficient data.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility returns the annualized sample standard deviation of the last
// window log returns. Returns 0 when there is not enough data.
func RealizedVolatility(logReturns []float64, window int, periodsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sd := stat.StdDev(logReturns[len(logReturns)-window:], nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(periodsPerYear)
}

// VolatilityIndexProxy estimates a volatility-index level (annualized vol in percent)
// from daily closes. ok is false when the history is too short.
func VolatilityIndexProxy(closes []float64, window int) (float64, bool) {
	rets := ComputeLogReturns(closes)
	if window > len(rets) {
		window = len(rets)
	}
	if window < 2 {
		return 0, false
	}
	return RealizedVolatility(rets, window, TradingDaysPerYear) * 100, true
}

// PercentChange returns (cur-prev)/prev in percent, or 0 when prev is not positive.
func PercentChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
