package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RiskProfile is a user's stated tolerance for investment volatility.
type RiskProfile string

const (
	Conservative RiskProfile = "conservative"
	Moderate     RiskProfile = "moderate"
	Aggressive   RiskProfile = "aggressive"
)

// RiskProfiles lists every profile in table order.
var RiskProfiles = []RiskProfile{Conservative, Moderate, Aggressive}

// ParseRiskProfile converts a raw label. Unknown values are rejected.
func ParseRiskProfile(s string) (RiskProfile, error) {
	r := RiskProfile(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskProfile, s)
	}
	return r, nil
}

func (r RiskProfile) Valid() bool {
	switch r {
	case Conservative, Moderate, Aggressive:
		return true
	default:
		return false
	}
}

func (r RiskProfile) String() string { return string(r) }

// UserProfile is an investor with a risk profile and savings goals.
type UserProfile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Risk      RiskProfile `json:"risk"`
	Goals     []Goal      `json:"goals"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Goal is a savings target.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
}

// GoalProgress summarizes how far a goal is from its target.
type GoalProgress struct {
	GoalID    string          `json:"goal_id"`
	Name      string          `json:"name"`
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
	MonthsTo  int             `json:"months_to,omitempty"`
	// MonthlyNeeded is the contribution per month required to hit the target date.
	MonthlyNeeded decimal.Decimal `json:"monthly_needed,omitempty"`
}

// Progress computes goal progress as of now.
func (g Goal) Progress(now time.Time) GoalProgress {
	p := GoalProgress{GoalID: g.ID, Name: g.Name, Percent: decimal.Zero, Remaining: decimal.Zero}
	if g.TargetAmount.IsPositive() {
		p.Percent = g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2)
		if p.Percent.GreaterThan(decimal.NewFromInt(100)) {
			p.Percent = decimal.NewFromInt(100)
		}
	}
	if rem := g.TargetAmount.Sub(g.CurrentAmount); rem.IsPositive() {
		p.Remaining = rem
	}
	if g.TargetDate != nil && g.TargetDate.After(now) {
		months := monthsBetween(now, *g.TargetDate)
		if months < 1 {
			months = 1
		}
		p.MonthsTo = months
		p.MonthlyNeeded = p.Remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
	}
	return p
}

func monthsBetween(from, to time.Time) int {
	y := to.Year() - from.Year()
	m := int(to.Month()) - int(from.Month())
	n := y*12 + m
	if to.Day() < from.Day() {
		n--
	}
	return n
}
