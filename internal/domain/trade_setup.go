package domain

import "time"

// SetupType constants
const (
	SetupLong  = "long"
	SetupShort = "short"
)

// TradeSetup is a directional trade idea emitted by a strategy. It is not persisted
// unless submitted as a simulated order.
type TradeSetup struct {
	Type       string    `json:"type"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stopLoss"`
	TakeProfit float64   `json:"takeProfit"`
	Confidence int       `json:"confidence"` // 0..100
	Strategy   string    `json:"strategy"`
	Timestamp  time.Time `json:"timestamp"`
}
