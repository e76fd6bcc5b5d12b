package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	custommiddleware "coinpilot/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	TradingHandler *TradingHandler
	RiskHandler    *RiskHandler
	MarketHandler  *MarketHandler
	JWTSecret      string
	ServiceName    string
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	logger := log.With().Str("component", "http").Logger()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for health probes to reduce noise
			return c.Request().URL.Path == "/health"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Error != nil || v.Status >= 500 {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":    "healthy",
			"service":   config.ServiceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// API group (protected with AuthMiddleware)
	api := e.Group("/api", custommiddleware.AuthMiddleware(config.JWTSecret))

	api.POST("/orders", config.TradingHandler.SubmitOrder)
	api.GET("/trades", config.TradingHandler.ListTrades)
	api.POST("/trades/:id/close", config.TradingHandler.ClosePosition)
	api.GET("/portfolio", config.TradingHandler.GetPortfolio)

	risk := api.Group("/risk")
	{
		risk.GET("/settings", config.RiskHandler.GetSettings)
		risk.PUT("/settings", config.RiskHandler.UpdateSettings)
		risk.POST("/settings/reset", config.RiskHandler.ResetSettings)
		risk.GET("/history", config.RiskHandler.GetHistory)
		risk.POST("/history/snapshot", config.RiskHandler.TakeSnapshot)
		risk.DELETE("/history", config.RiskHandler.ClearHistory)
		risk.POST("/position-size", config.RiskHandler.SuggestPositionSize)
	}

	market := api.Group("/market")
	{
		market.GET("/:symbol/ticker", config.MarketHandler.GetTicker)
		market.GET("/:symbol/trend", config.MarketHandler.GetTrend)
		market.GET("/:symbol/signals", config.MarketHandler.GetSignals)
	}
}
