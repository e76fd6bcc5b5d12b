package dto

import "coinpilot/internal/domain"

// SubmitOrderRequest represents a simulated order submission
type SubmitOrderRequest struct {
	RequestID string             `json:"request_id"`
	Symbol    string             `json:"symbol"`
	Direction string             `json:"direction"`
	Amount    string             `json:"amount"`
	Price     float64            `json:"price"` // optional, defaults to the market price
	OrderMode string             `json:"order_mode"`
	Signal    *domain.TradeSetup `json:"signal,omitempty"`
}

// ClosePositionRequest represents a manual close. A zero price closes at market.
type ClosePositionRequest struct {
	ExitPrice float64 `json:"exit_price"`
}

// TradeListOutput wraps a trade query result
type TradeListOutput struct {
	Trades []*domain.SimulatedTrade `json:"trades"`
	Count  int                      `json:"count"`
}
