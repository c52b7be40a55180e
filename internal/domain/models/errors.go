package models

import "errors"

// Invalid-input errors. These are programming or client errors and are never defaulted away.
var (
	ErrInvalidRiskProfile     = errors.New("invalid risk profile")
	ErrInvalidMarketCondition = errors.New("invalid market condition")
	ErrInvalidTrend           = errors.New("invalid trend")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidSymbol          = errors.New("invalid symbol")
	ErrInvalidHorizon         = errors.New("invalid horizon")
	ErrInvalidDate            = errors.New("invalid date")
)

// IsInvalidInput reports whether err wraps one of the invalid-input errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidRiskProfile) ||
		errors.Is(err, ErrInvalidMarketCondition) ||
		errors.Is(err, ErrInvalidTrend) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidSymbol) ||
		errors.Is(err, ErrInvalidHorizon) ||
		errors.Is(err, ErrInvalidDate)
}
