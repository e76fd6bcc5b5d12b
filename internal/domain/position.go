package domain

import "github.com/google/uuid"

// Position is derived on demand from an active SimulatedTrade and a current price
type Position struct {
	TradeID              uuid.UUID `json:"trade_id"`
	Symbol               string    `json:"symbol"`
	Amount               float64   `json:"amount"`
	EntryPrice           float64   `json:"entry_price"`
	CurrentPrice         float64   `json:"current_price"`
	ProfitLoss           float64   `json:"profit_loss"`
	ProfitLossPercentage float64   `json:"profit_loss_percentage"`
	Type                 string    `json:"type"`
}

// NewPosition builds a Position for trade at currentPrice
func NewPosition(trade *SimulatedTrade, currentPrice float64) Position {
	return Position{
		TradeID:              trade.ID,
		Symbol:               trade.Symbol,
		Amount:               trade.Amount,
		EntryPrice:           trade.EntryPrice,
		CurrentPrice:         currentPrice,
		ProfitLoss:           trade.CalculatePnL(currentPrice),
		ProfitLossPercentage: trade.CalculatePnLPercent(currentPrice),
		Type:                 trade.Type,
	}
}

// Exposure is the aggregate view over a set of positions
type Exposure struct {
	OpenPositions           int     `json:"open_positions"`
	TotalExposure           float64 `json:"total_exposure"` // sum of current notional
	TotalUnrealizedPnL      float64 `json:"total_unrealized_pnl"`
	AllocationUsedPct       float64 `json:"allocation_used_pct"`
	AllocationLimitPct      float64 `json:"allocation_limit_pct"`
	AllocationLimitBreached bool    `json:"allocation_limit_breached"`
}
