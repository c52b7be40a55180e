package models

import "time"

// MarketReport is a consolidated view of one market-condition evaluation.
// Note: no transport (json/http) concerns beyond field tags.
type MarketReport struct {
	Symbol         string            `json:"symbol"`
	HorizonDays    int               `json:"horizon_days"`
	Timestamp      time.Time         `json:"timestamp"`
	Inputs         ClassifierInputs  `json:"inputs"`
	Quote          *Quote            `json:"quote,omitempty"`
	Classification Classification    `json:"classification"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// Snapshot flattens the report for storage.
func (r *MarketReport) Snapshot(id string) ConditionSnapshot {
	s := ConditionSnapshot{
		ID:            id,
		Symbol:        r.Symbol,
		Timestamp:     r.Timestamp,
		Condition:     r.Classification.Condition,
		Mode:          r.Classification.Mode,
		Volatility:    r.Inputs.Volatility,
		ChangePercent: r.Inputs.ChangePercent,
	}
	if t := r.Inputs.Trend; t != nil {
		s.Trend = string(t.Trend)
		s.TrendConfidence = t.Confidence
	}
	if se := r.Inputs.Sentiment; se != nil {
		s.Sentiment = se.Score
		s.SentimentConfidence = se.Confidence
	}
	return s
}

// ConditionSnapshot is a recorded classification. It is history, not ground truth.
type ConditionSnapshot struct {
	ID                  string             `json:"id"`
	Symbol              string             `json:"symbol"`
	Timestamp           time.Time          `json:"ts"`
	Condition           MarketCondition    `json:"condition"`
	Mode                ClassificationMode `json:"mode"`
	Volatility          float64            `json:"vix"`
	ChangePercent       float64            `json:"change_pct"`
	Trend               string             `json:"trend,omitempty"`
	TrendConfidence     float64            `json:"trend_conf"`
	Sentiment           float64            `json:"sentiment"`
	SentimentConfidence float64            `json:"sentiment_conf"`
}

// Advice combines the current market condition with a profile's allocation.
type Advice struct {
	ProfileID  string             `json:"profile_id"`
	Risk       RiskProfile        `json:"risk"`
	Condition  MarketCondition    `json:"condition"`
	Allocation AssetAllocation    `json:"allocation"`
	Amounts    *AllocationAmounts `json:"amounts,omitempty"`
	Goals      []GoalProgress     `json:"goals,omitempty"`
	Report     *MarketReport      `json:"report,omitempty"`
}
