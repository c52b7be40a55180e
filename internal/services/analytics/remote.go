package analytics

import (
	"context"
	"fmt"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
)

// HTTPTrendForecaster asks the model service for a trend prediction.
type HTTPTrendForecaster struct{ base *HTTPServiceBase }

func NewHTTPTrendForecaster(base *HTTPServiceBase) *HTTPTrendForecaster {
	return &HTTPTrendForecaster{base: base}
}

type trendReq struct {
	Symbol      string `json:"symbol"`
	HorizonDays int    `json:"horizon_days"`
}

type trendResp struct {
	Trend      string    `json:"trend"`
	Confidence float64   `json:"confidence"`
	Series     []float64 `json:"series"`
	Model      string    `json:"model"`
}

func (f *HTTPTrendForecaster) Predict(ctx context.Context, symbol string, horizonDays int) (models.TrendPrediction, error) {
	var tr trendResp
	if err := f.base.PostJSON(ctx, "/trend/predict", trendReq{Symbol: symbol, HorizonDays: horizonDays}, &tr); err != nil {
		return models.TrendPrediction{}, fmt.Errorf("%w: %v", domsvc.ErrSourceUnavailable, err)
	}
	trend, err := models.ParseTrend(tr.Trend)
	if err != nil {
		return models.TrendPrediction{}, fmt.Errorf("%w: %v", domsvc.ErrSourceUnavailable, err)
	}
	return models.TrendPrediction{
		Symbol:     symbol,
		Trend:      trend,
		Confidence: clamp01(tr.Confidence),
		Series:     tr.Series,
		Model:      tr.Model,
	}, nil
}

// HTTPSentimentAnalyzer asks the model service for a sentiment score.
type HTTPSentimentAnalyzer struct{ base *HTTPServiceBase }

func NewHTTPSentimentAnalyzer(base *HTTPServiceBase) *HTTPSentimentAnalyzer {
	return &HTTPSentimentAnalyzer{base: base}
}

type sentimentReq struct {
	Symbol string `json:"symbol"`
}

type sentimentResp struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples"`
}

func (a *HTTPSentimentAnalyzer) Analyze(ctx context.Context, symbol string) (models.SentimentScore, error) {
	var sr sentimentResp
	if err := a.base.PostJSON(ctx, "/sentiment/analyze", sentimentReq{Symbol: symbol}, &sr); err != nil {
		return models.SentimentScore{}, fmt.Errorf("%w: %v", domsvc.ErrSourceUnavailable, err)
	}
	score := sr.Score
	if score > 5 {
		score = 5
	} else if score < -5 {
		score = -5
	}
	return models.SentimentScore{
		Symbol:     symbol,
		Score:      score,
		Confidence: clamp01(sr.Confidence),
		Samples:    sr.Samples,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	_ domsvc.TrendSource     = (*HTTPTrendForecaster)(nil)
	_ domsvc.SentimentSource = (*HTTPSentimentAnalyzer)(nil)
)
