package http

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"coinpilot/internal/domain"
	"coinpilot/internal/usecase"
)

const (
	defaultTrendWindow = 20
	// Trend fetches 2*window bars per request
	maxTrendWindow = 500
)

// MarketHandler exposes trend and signal analysis for a symbol
type MarketHandler struct {
	trading    *usecase.TradingService
	marketData domain.MarketDataService
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(trading *usecase.TradingService, marketData domain.MarketDataService) *MarketHandler {
	return &MarketHandler{trading: trading, marketData: marketData}
}

// GetTicker GET /api/market/:symbol/ticker
func (h *MarketHandler) GetTicker(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	ticker, err := h.marketData.FetchTicker(ctx, c.Param("symbol"))
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get ticker", err)
	}
	return SuccessResponse(c, ticker)
}

// GetTrend GET /api/market/:symbol/trend?window=N
func (h *MarketHandler) GetTrend(c echo.Context) error {
	window := defaultTrendWindow
	if raw := c.QueryParam("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxTrendWindow {
			return BadRequestResponse(c, "Invalid window")
		}
		window = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	trend, err := h.trading.Trend(ctx, c.Param("symbol"), window)
	if err != nil {
		return DomainErrorResponse(c, "Failed to analyze trend", err)
	}
	return SuccessResponse(c, trend)
}

// GetSignals GET /api/market/:symbol/signals
func (h *MarketHandler) GetSignals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	setups, err := h.trading.PreviewSignals(ctx, c.Param("symbol"))
	if err != nil {
		return DomainErrorResponse(c, "Failed to analyze signals", err)
	}
	return SuccessResponse(c, setups)
}
