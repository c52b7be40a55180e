package service

import (
	"context"
	"errors"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

// ErrSourceUnavailable marks upstream-data failures. Callers recover from it locally.
var ErrSourceUnavailable = errors.New("source unavailable")

// TrendSource predicts the price trend of a symbol over a horizon in days.
type TrendSource interface {
	Predict(ctx context.Context, symbol string, horizonDays int) (models.TrendPrediction, error)
}

// SentimentSource scores recent sentiment for a symbol in [-5,5].
type SentimentSource interface {
	Analyze(ctx context.Context, symbol string) (models.SentimentScore, error)
}

// QuoteSource returns the latest price and percent change of a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// PriceHistorySource returns daily closes in ascending time order.
type PriceHistorySource interface {
	History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// NewsSource returns recent headlines for a symbol.
type NewsSource interface {
	Headlines(ctx context.Context, symbol string, count int) ([]models.Headline, error)
}
