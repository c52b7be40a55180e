package models

// Signal names.
const (
	SignalVolatility   = "volatility"
	SignalTrend        = "trend"
	SignalSentiment    = "sentiment"
	SignalRecentChange = "recent_change"
)

// ClassificationMode tells which model produced a classification.
type ClassificationMode string

const (
	ModeWeighted ClassificationMode = "weighted"
	ModeFallback ClassificationMode = "fallback"
)

// Signal is one heuristic vote with a direction and a weight.
type Signal struct {
	Name   string          `json:"name"`
	Input  float64         `json:"input"`
	Vote   MarketCondition `json:"vote"`
	Weight float64         `json:"weight"`
}

// ClassifierInputs carries everything the classifier looks at.
// Trend and Sentiment are nil when their source was unavailable.
type ClassifierInputs struct {
	Volatility    float64          `json:"volatility"`
	ChangePercent float64          `json:"change_percent"`
	Trend         *TrendPrediction `json:"trend,omitempty"`
	Sentiment     *SentimentScore  `json:"sentiment,omitempty"`
}

// Classification is the classifier output.
type Classification struct {
	Condition MarketCondition             `json:"condition"`
	Mode      ClassificationMode          `json:"mode"`
	Signals   []Signal                    `json:"signals"`
	Scores    map[MarketCondition]float64 `json:"scores,omitempty"`
}
