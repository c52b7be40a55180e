package repository

// Lookback is the price-history window used by the trend forecaster.
type Lookback string

const (
	Lookback1M Lookback = "1mo"
	Lookback3M Lookback = "3mo"
	Lookback6M Lookback = "6mo"
	Lookback1Y Lookback = "1y"
)

// IsValidLookback returns true if lb is a supported window.
func IsValidLookback(lb Lookback) bool {
	switch lb {
	case Lookback1M, Lookback3M, Lookback6M, Lookback1Y:
		return true
	default:
		return false
	}
}

// DefaultLookback returns the default window.
func DefaultLookback() Lookback { return Lookback3M }

// NormalizeLookback converts raw string to a valid window (or default).
func NormalizeLookback(s string) Lookback {
	lb := Lookback(s)
	if IsValidLookback(lb) {
		return lb
	}
	return DefaultLookback()
}

// Days returns the calendar days covered by the window.
func (lb Lookback) Days() int {
	switch lb {
	case Lookback1M:
		return 30
	case Lookback6M:
		return 182
	case Lookback1Y:
		return 365
	default:
		return 91
	}
}
