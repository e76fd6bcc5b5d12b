package domain

import (
	"time"

	"github.com/google/uuid"
)

// SimulatedTrade represents a paper position recorded without real capital at risk
type SimulatedTrade struct {
	ID             uuid.UUID  `json:"id"`
	UserKey        string     `json:"user_key"`
	RequestID      string     `json:"request_id"` // client idempotency key, unique per user
	Symbol         string     `json:"symbol"`
	Type           string     `json:"type"`
	Amount         float64    `json:"amount"`
	EntryPrice     float64    `json:"entry_price"`
	StopLoss       *float64   `json:"stop_loss,omitempty"`
	TakeProfit     *float64   `json:"take_profit,omitempty"`
	Status         string     `json:"status"`
	SimulationType string     `json:"simulation_type"`
	Strategy       string     `json:"strategy"`
	AIConfidence   *int       `json:"ai_confidence,omitempty"`
	ExitPrice      *float64   `json:"exit_price,omitempty"`
	RealizedPnL    *float64   `json:"realized_pnl,omitempty"`
	ClosedBy       *string    `json:"closed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// TradeType constants
const (
	TradeLong  = "long"
	TradeShort = "short"
)

// TradeStatus constants. Transitions are one-directional: active -> closed.
const (
	TradeStatusActive = "active"
	TradeStatusClosed = "closed"
)

// Strategy tags
const (
	StrategyManual     = "manual"
	StrategyAIAssisted = "ai-assisted"
)

// SimulationType constants
const (
	SimulationPaper    = "paper"
	SimulationBacktest = "backtest"
)

// ClosedBy constants (how the trade was closed)
const (
	ClosedByTP     = "TP"
	ClosedBySL     = "SL"
	ClosedByManual = "MANUAL"
)

// IsLong checks if the trade is a long position
func (t *SimulatedTrade) IsLong() bool {
	return t.Type == TradeLong
}

// IsActive reports whether the trade is still open
func (t *SimulatedTrade) IsActive() bool {
	return t.Status == TradeStatusActive
}

// CalculatePnL calculates the unrealized P&L at the given price
func (t *SimulatedTrade) CalculatePnL(currentPrice float64) float64 {
	if t.IsLong() {
		return (currentPrice - t.EntryPrice) * t.Amount
	}
	return (t.EntryPrice - currentPrice) * t.Amount
}

// CalculatePnLPercent returns P&L as a percentage of the notional at entry
func (t *SimulatedTrade) CalculatePnLPercent(currentPrice float64) float64 {
	notional := t.EntryPrice * t.Amount
	if notional == 0 {
		return 0
	}
	return t.CalculatePnL(currentPrice) / notional * 100
}

// CheckSLTP reports whether the stop-loss or take-profit is hit at currentPrice
func (t *SimulatedTrade) CheckSLTP(currentPrice float64) (shouldClose bool, closedBy string) {
	if t.IsLong() {
		if t.StopLoss != nil && currentPrice <= *t.StopLoss {
			return true, ClosedBySL
		}
		if t.TakeProfit != nil && currentPrice >= *t.TakeProfit {
			return true, ClosedByTP
		}
	} else {
		if t.StopLoss != nil && currentPrice >= *t.StopLoss {
			return true, ClosedBySL
		}
		if t.TakeProfit != nil && currentPrice <= *t.TakeProfit {
			return true, ClosedByTP
		}
	}
	return false, ""
}

// Close transitions an active trade to closed at exitPrice
func (t *SimulatedTrade) Close(exitPrice float64, closedBy string, at time.Time) error {
	if !t.IsActive() {
		return ErrTradeAlreadyClosed
	}
	pnl := t.CalculatePnL(exitPrice)
	t.Status = TradeStatusClosed
	t.ExitPrice = &exitPrice
	t.RealizedPnL = &pnl
	t.ClosedBy = &closedBy
	t.ClosedAt = &at
	return nil
}

// ReturnFraction is the realized return of a closed trade relative to its entry notional
func (t *SimulatedTrade) ReturnFraction() float64 {
	if t.RealizedPnL == nil || t.EntryPrice == 0 || t.Amount == 0 {
		return 0
	}
	return *t.RealizedPnL / (t.EntryPrice * t.Amount)
}
