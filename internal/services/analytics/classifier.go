package analytics

import (
	"math"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

// Thresholds are the per-signal cut-offs of the classifier.
type Thresholds struct {
	VolatilityBearish   float64 // above = bearish
	VolatilityBullish   float64 // below = bullish
	TrendConfidence     float64
	SentimentScore      float64 // |score| above = directional
	SentimentConfidence float64
	RecentChange        float64 // |change %| above = directional
}

// Weights are the vote weights per signal.
type Weights struct {
	Volatility   float64
	Trend        float64
	Sentiment    float64
	RecentChange float64
}

// DefaultThresholds returns the stock cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VolatilityBearish:   25,
		VolatilityBullish:   15,
		TrendConfidence:     0.4,
		SentimentScore:      1.5,
		SentimentConfidence: 0.4,
		RecentChange:        1,
	}
}

// DefaultWeights returns the stock vote weights.
func DefaultWeights() Weights {
	return Weights{Volatility: 1.0, Trend: 1.5, Sentiment: 1.0, RecentChange: 1.2}
}

// Classifier combines weighted heuristic signals into a market condition.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	th Thresholds
	w  Weights
}

type ClassifierOption func(*Classifier)

// WithThresholds overrides the cut-offs.
func WithThresholds(th Thresholds) ClassifierOption {
	return func(c *Classifier) { c.th = th }
}

// WithWeights overrides the vote weights.
func WithWeights(w Weights) ClassifierOption {
	return func(c *Classifier) { c.w = w }
}

func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{th: DefaultThresholds(), w: DefaultWeights()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the four-signal weighted vote. When the trend or sentiment input is
// missing it uses the two-signal fallback instead.
func (c *Classifier) Classify(in models.ClassifierInputs) models.Classification {
	if in.Trend == nil || in.Sentiment == nil {
		return c.Fallback(in.Volatility, in.ChangePercent)
	}

	signals := []models.Signal{
		c.volatilitySignal(in.Volatility),
		c.trendSignal(*in.Trend),
		c.sentimentSignal(*in.Sentiment),
		c.changeSignal(in.ChangePercent),
	}
	condition, scores := weightedVote(signals)
	return models.Classification{
		Condition: condition,
		Mode:      models.ModeWeighted,
		Signals:   signals,
		Scores:    scores,
	}
}

// Fallback classifies with volatility and recent change only. Volatility decides unless it
// is in the neutral band, in which case recent change decides.
func (c *Classifier) Fallback(volatility, changePercent float64) models.Classification {
	vol := c.volatilitySignal(volatility)
	chg := c.changeSignal(changePercent)

	condition := vol.Vote
	if condition == models.Neutral {
		condition = chg.Vote
	}
	return models.Classification{
		Condition: condition,
		Mode:      models.ModeFallback,
		Signals:   []models.Signal{vol, chg},
	}
}

func (c *Classifier) volatilitySignal(v float64) models.Signal {
	vote := models.Neutral
	switch {
	case v > c.th.VolatilityBearish:
		vote = models.Bearish
	case v < c.th.VolatilityBullish:
		vote = models.Bullish
	}
	return models.Signal{Name: models.SignalVolatility, Input: v, Vote: vote, Weight: c.w.Volatility}
}

func (c *Classifier) trendSignal(p models.TrendPrediction) models.Signal {
	vote := models.Neutral
	if p.Confidence > c.th.TrendConfidence {
		switch p.Trend {
		case models.TrendUp:
			vote = models.Bullish
		case models.TrendDown:
			vote = models.Bearish
		}
	}
	return models.Signal{Name: models.SignalTrend, Input: p.Confidence, Vote: vote, Weight: c.w.Trend}
}

func (c *Classifier) sentimentSignal(s models.SentimentScore) models.Signal {
	vote := models.Neutral
	if s.Confidence > c.th.SentimentConfidence {
		switch {
		case s.Score > c.th.SentimentScore:
			vote = models.Bullish
		case s.Score < -c.th.SentimentScore:
			vote = models.Bearish
		}
	}
	return models.Signal{Name: models.SignalSentiment, Input: s.Score, Vote: vote, Weight: c.w.Sentiment}
}

func (c *Classifier) changeSignal(pct float64) models.Signal {
	vote := models.Neutral
	switch {
	case pct > c.th.RecentChange:
		vote = models.Bullish
	case pct < -c.th.RecentChange:
		vote = models.Bearish
	}
	return models.Signal{Name: models.SignalRecentChange, Input: pct, Vote: vote, Weight: c.w.RecentChange}
}

const voteEpsilon = 1e-9

// weightedVote sums weights per bucket. Only a strictly greatest bucket wins; ties are neutral.
func weightedVote(signals []models.Signal) (models.MarketCondition, map[models.MarketCondition]float64) {
	scores := map[models.MarketCondition]float64{
		models.Bearish: 0,
		models.Neutral: 0,
		models.Bullish: 0,
	}
	for _, s := range signals {
		scores[s.Vote] += s.Weight
	}

	top := math.Inf(-1)
	for _, v := range scores {
		if v > top {
			top = v
		}
	}

	winner := models.Neutral
	leaders := 0
	for _, c := range models.MarketConditions {
		if math.Abs(scores[c]-top) < voteEpsilon {
			winner = c
			leaders++
		}
	}
	if leaders != 1 {
		return models.Neutral, scores
	}
	return winner, scores
}
