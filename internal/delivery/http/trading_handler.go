package http

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"coinpilot/internal/delivery/http/dto"
	"coinpilot/internal/domain"
	"coinpilot/internal/middleware"
	"coinpilot/internal/service"
)

const maxTradeListLimit = 500

// TradingHandler handles simulated orders, trades and the portfolio
type TradingHandler struct {
	simulation *service.SimulationService
	portfolio  *service.PortfolioService
	tradeRepo  domain.SimulatedTradeRepository
	marketData domain.MarketDataService
}

// NewTradingHandler creates a new TradingHandler
func NewTradingHandler(
	simulation *service.SimulationService,
	portfolio *service.PortfolioService,
	tradeRepo domain.SimulatedTradeRepository,
	marketData domain.MarketDataService,
) *TradingHandler {
	return &TradingHandler{
		simulation: simulation,
		portfolio:  portfolio,
		tradeRepo:  tradeRepo,
		marketData: marketData,
	}
}

// SubmitOrder records a simulated order
// POST /api/orders
func (h *TradingHandler) SubmitOrder(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.SubmitOrderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.OrderMode == "" {
		req.OrderMode = service.OrderModeStandard
	}
	if req.Symbol == "" {
		req.Symbol = service.DefaultSymbol
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	price := req.Price
	if price <= 0 {
		ticker, err := h.marketData.FetchTicker(ctx, req.Symbol)
		if err != nil {
			return InternalServerErrorResponse(c, "Failed to get market price", err)
		}
		price = ticker.Price
	}

	trade, err := h.simulation.SubmitSimulatedOrder(ctx, service.OrderRequest{
		UserKey:      userKey,
		RequestID:    req.RequestID,
		Symbol:       req.Symbol,
		Direction:    req.Direction,
		Amount:       req.Amount,
		CurrentPrice: price,
		OrderMode:    req.OrderMode,
		Signal:       req.Signal,
	})
	if err != nil {
		return DomainErrorResponse(c, "Failed to submit order", err)
	}

	return CreatedResponse(c, trade)
}

// ListTrades returns the user's trades, newest first
// GET /api/trades?status=&symbol=&limit=
func (h *TradingHandler) ListTrades(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	filter := domain.TradeFilter{
		UserKey: userKey,
		Status:  c.QueryParam("status"),
		Symbol:  c.QueryParam("symbol"),
		Limit:   100,
	}
	if filter.Symbol != "" {
		filter.Symbol = service.NormalizeSymbol(filter.Symbol)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxTradeListLimit {
			return BadRequestResponse(c, "Invalid limit")
		}
		filter.Limit = limit
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trades, err := h.tradeRepo.Query(ctx, filter)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get trades", err)
	}
	if trades == nil {
		trades = []*domain.SimulatedTrade{}
	}

	return SuccessResponse(c, dto.TradeListOutput{Trades: trades, Count: len(trades)})
}

// ClosePosition manually closes an active trade
// POST /api/trades/:id/close
func (h *TradingHandler) ClosePosition(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid trade ID")
	}

	var req dto.ClosePositionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return BadRequestResponse(c, "Invalid request payload")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	trade, err := h.simulation.ClosePosition(ctx, userKey, id, req.ExitPrice)
	if err != nil {
		return DomainErrorResponse(c, "Failed to close position", err)
	}

	return SuccessMessageResponse(c, "Position closed", trade)
}

// GetPortfolio returns open positions and exposure
// GET /api/portfolio
func (h *TradingHandler) GetPortfolio(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	portfolio, err := h.portfolio.GetPortfolio(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get portfolio", err)
	}

	return SuccessResponse(c, portfolio)
}
