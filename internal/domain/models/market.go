package models

import (
	"fmt"
	"strings"
	"time"
)

// MarketCondition is a coarse label for overall market direction.
type MarketCondition string

const (
	Bearish MarketCondition = "bearish"
	Neutral MarketCondition = "neutral"
	Bullish MarketCondition = "bullish"
)

// MarketConditions lists every condition in table order.
var MarketConditions = []MarketCondition{Bearish, Neutral, Bullish}

// ParseMarketCondition converts a raw label. Unknown values are rejected.
func ParseMarketCondition(s string) (MarketCondition, error) {
	c := MarketCondition(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMarketCondition, s)
	}
	return c, nil
}

func (c MarketCondition) Valid() bool {
	switch c {
	case Bearish, Neutral, Bullish:
		return true
	default:
		return false
	}
}

func (c MarketCondition) String() string { return string(c) }

// Trend is the direction reported by a trend source.
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
)

// ParseTrend converts a raw trend label. Unknown values are rejected.
func ParseTrend(s string) (Trend, error) {
	t := Trend(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TrendUp, TrendDown, TrendSideways:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTrend, s)
	}
}

// TrendPrediction is the output of a trend source.
type TrendPrediction struct {
	Symbol     string    `json:"symbol"`
	Trend      Trend     `json:"trend"`
	Confidence float64   `json:"confidence"`
	Series     []float64 `json:"series,omitempty"`
	Model      string    `json:"model,omitempty"`
}

// SentimentScore is the output of a sentiment source. Score is in [-5,5].
type SentimentScore struct {
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples,omitempty"`
}

// Quote is the latest price and its change versus the previous close.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close,omitempty"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp"`
}

// PricePoint is one daily close.
type PricePoint struct {
	Time  time.Time `json:"t"`
	Close float64   `json:"close"`
}

// Headline is a news title used for sentiment scoring.
type Headline struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}
