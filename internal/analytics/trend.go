package analytics

import "coinpilot/internal/domain"

// Trend constants
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendNeutral = "neutral"
)

// TrendResult compares the latest SMA window against the one before it
type TrendResult struct {
	Trend      string  `json:"trend"`
	CurrentMA  float64 `json:"currentMA"`
	PreviousMA float64 `json:"previousMA"`
	Difference float64 `json:"difference"`
	WindowSize int     `json:"windowSize"`
}

// AnalyzeTrend classifies the trend from two consecutive SMA windows over closes.
// bars must hold at least 2*windowSize entries, otherwise an InsufficientDataError is returned.
func AnalyzeTrend(bars []domain.MarketBar, windowSize int) (*TrendResult, error) {
	required := 2 * windowSize
	if windowSize <= 0 || len(bars) < required {
		return nil, &domain.InsufficientDataError{Required: required, Got: len(bars)}
	}

	closes := domain.Closes(bars)
	n := len(closes)

	current := SMA(closes[n-windowSize:])
	previous := SMA(closes[n-required : n-windowSize])
	diff := current - previous

	trend := TrendNeutral
	switch {
	case diff > 0:
		trend = TrendRising
	case diff < 0:
		trend = TrendFalling
	}

	return &TrendResult{
		Trend:      trend,
		CurrentMA:  current,
		PreviousMA: previous,
		Difference: diff,
		WindowSize: windowSize,
	}, nil
}
