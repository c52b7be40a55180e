package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssetAllocation is a percentage split across four asset classes.
type AssetAllocation struct {
	Equity int `json:"equity"`
	Debt   int `json:"debt"`
	Gold   int `json:"gold"`
	Cash   int `json:"cash"`
}

// Sum returns the total of all buckets.
func (a AssetAllocation) Sum() int { return a.Equity + a.Debt + a.Gold + a.Cash }

// Valid reports whether every bucket is non-negative and the total is exactly 100.
func (a AssetAllocation) Valid() bool {
	return a.Equity >= 0 && a.Debt >= 0 && a.Gold >= 0 && a.Cash >= 0 && a.Sum() == 100
}

func (a AssetAllocation) String() string {
	return fmt.Sprintf("equity=%d debt=%d gold=%d cash=%d", a.Equity, a.Debt, a.Gold, a.Cash)
}

// AllocationAmounts is an investment amount split across the buckets.
type AllocationAmounts struct {
	Total  decimal.Decimal `json:"total"`
	Equity decimal.Decimal `json:"equity"`
	Debt   decimal.Decimal `json:"debt"`
	Gold   decimal.Decimal `json:"gold"`
	Cash   decimal.Decimal `json:"cash"`
}

// Split divides amount by the allocation percentages, rounded to 2 places.
// Any rounding residual goes to equity so the parts always add up to amount.
func (a AssetAllocation) Split(amount decimal.Decimal) (AllocationAmounts, error) {
	if amount.IsNegative() {
		return AllocationAmounts{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	hundred := decimal.NewFromInt(100)
	part := func(pct int) decimal.Decimal {
		return amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred).Round(2)
	}
	out := AllocationAmounts{
		Total: amount,
		Debt:  part(a.Debt),
		Gold:  part(a.Gold),
		Cash:  part(a.Cash),
	}
	out.Equity = amount.Sub(out.Debt).Sub(out.Gold).Sub(out.Cash)
	return out, nil
}

// AllocationResult is an allocation together with the condition it was computed for.
// Report is set when the condition was classified rather than supplied by the caller.
type AllocationResult struct {
	Risk       RiskProfile        `json:"risk"`
	Condition  MarketCondition    `json:"condition"`
	Allocation AssetAllocation    `json:"allocation"`
	Amounts    *AllocationAmounts `json:"amounts,omitempty"`
	Report     *MarketReport      `json:"report,omitempty"`
}
