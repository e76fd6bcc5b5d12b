package domain

import (
	"context"
	"time"
)

// MarketBar is a single OHLCV candle. Sequences are ordered by Timestamp ascending.
type MarketBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TickerSnapshot is the 24h summary for a symbol
type TickerSnapshot struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume    float64 `json:"volume"`
	High24h   float64 `json:"high24h"`
	Low24h    float64 `json:"low24h"`
}

// MarketDataService defines the interface for fetching market data
type MarketDataService interface {
	// FetchBars returns up to limit bars for symbol/interval, oldest first
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]MarketBar, error)

	// FetchTicker returns the 24h ticker snapshot for a symbol
	FetchTicker(ctx context.Context, symbol string) (*TickerSnapshot, error)

	// FetchRealTimePrices returns the latest price for each requested symbol.
	// A partial map is returned together with an error when some symbols are missing.
	FetchRealTimePrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Closes extracts the close prices of bars
func Closes(bars []MarketBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
