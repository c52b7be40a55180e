package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/internal/services/features"

	"gonum.org/v1/gonum/stat"
)

const minRegressionPoints = 5

// RegressionTrendForecaster fits a least-squares line over recent daily closes and
// projects it forward. Confidence is the R² of the fit.
type RegressionTrendForecaster struct {
	history      domsvc.PriceHistorySource
	lookbackDays int
	moveThresh   float64
}

type RegressionOption func(*RegressionTrendForecaster)

// WithLookbackDays sets how many calendar days of history are fitted.
func WithLookbackDays(days int) RegressionOption {
	return func(f *RegressionTrendForecaster) {
		if days > 0 {
			f.lookbackDays = days
		}
	}
}

// WithMoveThreshold sets the projected fractional move needed to call a direction.
func WithMoveThreshold(frac float64) RegressionOption {
	return func(f *RegressionTrendForecaster) {
		if frac > 0 {
			f.moveThresh = frac
		}
	}
}

func NewRegressionTrendForecaster(history domsvc.PriceHistorySource, opts ...RegressionOption) *RegressionTrendForecaster {
	f := &RegressionTrendForecaster{history: history, lookbackDays: 91, moveThresh: 0.005}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RegressionTrendForecaster) Predict(ctx context.Context, symbol string, horizonDays int) (models.TrendPrediction, error) {
	if horizonDays <= 0 {
		horizonDays = 1
	}
	points, err := f.history.History(ctx, symbol, f.lookbackDays)
	if err != nil {
		return models.TrendPrediction{}, fmt.Errorf("price history: %w", err)
	}
	closes := features.Closes(points)
	if len(closes) < minRegressionPoints {
		return models.TrendPrediction{}, fmt.Errorf("%w: %d closes for %s", domsvc.ErrSourceUnavailable, len(closes), symbol)
	}
	return fitTrend(symbol, closes, horizonDays, f.moveThresh), nil
}

func fitTrend(symbol string, closes []float64, horizonDays int, moveThresh float64) models.TrendPrediction {
	n := len(closes)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, closes, nil, false)
	r2 := stat.RSquared(xs, closes, nil, alpha, beta)
	if math.IsNaN(r2) || r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}

	series := make([]float64, horizonDays)
	for h := 1; h <= horizonDays; h++ {
		series[h-1] = alpha + beta*float64(n-1+h)
	}

	last := closes[n-1]
	trend := models.TrendSideways
	if last > 0 {
		move := (series[horizonDays-1] - last) / last
		switch {
		case move > moveThresh:
			trend = models.TrendUp
		case move < -moveThresh:
			trend = models.TrendDown
		}
	}
	return models.TrendPrediction{
		Symbol:     symbol,
		Trend:      trend,
		Confidence: r2,
		Series:     series,
		Model:      "linear_regression",
	}
}

var _ domsvc.TrendSource = (*RegressionTrendForecaster)(nil)
