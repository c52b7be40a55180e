package analytics

import (
	"sync"
	"testing"

	"github.com/narayanprabad/InvestWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func trend(t models.Trend, conf float64) *models.TrendPrediction {
	return &models.TrendPrediction{Trend: t, Confidence: conf}
}

func sentiment(score, conf float64) *models.SentimentScore {
	return &models.SentimentScore{Score: score, Confidence: conf}
}

func TestClassifyWeighted(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		in   models.ClassifierInputs
		want models.MarketCondition
	}{
		{
			name: "all four bullish",
			in:   models.ClassifierInputs{Volatility: 12, ChangePercent: 2, Trend: trend(models.TrendUp, 0.8), Sentiment: sentiment(3, 0.9)},
			want: models.Bullish,
		},
		{
			name: "all four bearish",
			in:   models.ClassifierInputs{Volatility: 32, ChangePercent: -3, Trend: trend(models.TrendDown, 0.6), Sentiment: sentiment(-2.5, 0.5)},
			want: models.Bearish,
		},
		{
			// bearish 1.0+1.0 = 2.0 beats bullish trend 1.5 and neutral change 1.2
			name: "two light bearish beat one heavy bullish",
			in:   models.ClassifierInputs{Volatility: 30, ChangePercent: 0.5, Trend: trend(models.TrendUp, 0.9), Sentiment: sentiment(-3, 0.8)},
			want: models.Bearish,
		},
		{
			name: "low confidence trend and sentiment are neutral",
			in:   models.ClassifierInputs{Volatility: 20, ChangePercent: 0, Trend: trend(models.TrendUp, 0.4), Sentiment: sentiment(4, 0.3)},
			want: models.Neutral,
		},
		{
			// bullish 1.0 vs bearish 1.0 vs neutral 2.7
			name: "split directional votes lose to neutral",
			in:   models.ClassifierInputs{Volatility: 10, ChangePercent: 0, Trend: trend(models.TrendSideways, 0.9), Sentiment: sentiment(-2, 0.9)},
			want: models.Neutral,
		},
		{
			name: "sentiment boundary is exclusive",
			in:   models.ClassifierInputs{Volatility: 20, ChangePercent: 1, Trend: trend(models.TrendUp, 0.41), Sentiment: sentiment(1.5, 0.9)},
			want: models.Neutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.in)
			assert.Equal(t, tt.want, got.Condition)
			assert.Equal(t, models.ModeWeighted, got.Mode)
			assert.Len(t, got.Signals, 4)
		})
	}
}

func TestClassifyWeightedScores(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(models.ClassifierInputs{
		Volatility: 30, ChangePercent: 2, Trend: trend(models.TrendUp, 0.9), Sentiment: sentiment(-3, 0.8),
	})

	assert.InDelta(t, 2.0, got.Scores[models.Bearish], 1e-9)
	assert.InDelta(t, 2.7, got.Scores[models.Bullish], 1e-9)
	assert.InDelta(t, 0.0, got.Scores[models.Neutral], 1e-9)
	assert.Equal(t, models.Bullish, got.Condition)
}

func TestClassifyEvenSplitIsNeutral(t *testing.T) {
	c := NewClassifier(WithWeights(Weights{Volatility: 1, Trend: 1, Sentiment: 1, RecentChange: 1}))

	got := c.Classify(models.ClassifierInputs{
		Volatility:    10,                         // bullish
		Trend:         trend(models.TrendUp, 0.9), // bullish
		Sentiment:     sentiment(-4, 0.9),         // bearish
		ChangePercent: -5,                         // bearish
	})
	assert.Equal(t, models.Neutral, got.Condition)
	assert.Equal(t, 2.0, got.Scores[models.Bullish])
	assert.Equal(t, 2.0, got.Scores[models.Bearish])
}

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		vix    float64
		change float64
		want   models.MarketCondition
	}{
		{vix: 30, change: -2, want: models.Bearish},
		{vix: 10, change: 2, want: models.Bullish},
		{vix: 20, change: 0, want: models.Neutral},
		{vix: 30, change: 5, want: models.Bearish},
		{vix: 12, change: -5, want: models.Bullish},
		{vix: 20, change: 1.5, want: models.Bullish},
		{vix: 25, change: -1.01, want: models.Bearish},
		{vix: 15, change: 1, want: models.Neutral},
	}

	for _, tt := range tests {
		got := c.Fallback(tt.vix, tt.change)
		assert.Equal(t, tt.want, got.Condition, "vix=%v change=%v", tt.vix, tt.change)
		assert.Equal(t, models.ModeFallback, got.Mode)
	}
}

func TestClassifyMissingInputUsesFallback(t *testing.T) {
	c := NewClassifier()

	// the trend would make this bullish, but sentiment is missing
	got := c.Classify(models.ClassifierInputs{Volatility: 30, ChangePercent: 2, Trend: trend(models.TrendUp, 0.99)})
	assert.Equal(t, models.ModeFallback, got.Mode)
	assert.Equal(t, models.Bearish, got.Condition)

	got = c.Classify(models.ClassifierInputs{Volatility: 20, ChangePercent: -2, Sentiment: sentiment(5, 1)})
	assert.Equal(t, models.ModeFallback, got.Mode)
	assert.Equal(t, models.Bearish, got.Condition)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier()
	in := models.ClassifierInputs{Volatility: 18, ChangePercent: -1.4, Trend: trend(models.TrendDown, 0.5), Sentiment: sentiment(0.2, 0.9)}
	first := c.Classify(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(in))
	}
}

func TestClassifyConcurrent(t *testing.T) {
	c := NewClassifier()
	inputs := []models.ClassifierInputs{
		{Volatility: 12, ChangePercent: 2, Trend: trend(models.TrendUp, 0.8), Sentiment: sentiment(3, 0.9)},
		{Volatility: 32, ChangePercent: -3, Trend: trend(models.TrendDown, 0.6), Sentiment: sentiment(-2.5, 0.5)},
		{Volatility: 20, ChangePercent: -2},
	}
	want := make([]models.Classification, len(inputs))
	for i, in := range inputs {
		want[i] = c.Classify(in)
	}

	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				i := n % len(inputs)
				assert.Equal(t, want[i], c.Classify(inputs[i]))
			}
		}()
	}
	wg.Wait()
}
