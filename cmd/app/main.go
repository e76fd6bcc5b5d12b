package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/configs"
	"coinpilot/internal/adapter/telegram"
	"coinpilot/internal/database"
	httpdelivery "coinpilot/internal/delivery/http"
	"coinpilot/internal/domain"
	"coinpilot/internal/infra"
	"coinpilot/internal/repository"
	"coinpilot/internal/repository/memory"
	"coinpilot/internal/service"
	"coinpilot/internal/usecase"
	"coinpilot/internal/utils"
)

func main() {
	cfg := configs.Load()

	zerolog.SetGlobalLevel(configs.ParseLogLevel(cfg.Server.LogLevel))
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := utils.SetLocation(cfg.Server.Timezone); err != nil {
		log.Warn().Err(err).Str("tz", cfg.Server.Timezone).Msg("Unknown timezone, using UTC")
	}

	ctx := context.Background()

	// Initialize repositories
	var (
		tradeRepo domain.SimulatedTradeRepository
		riskRepo  domain.RiskSettingsRepository
	)
	if cfg.Database.URL != "" {
		db, err := infra.NewDatabase(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		tradeRepo = repository.NewSimulatedTradeRepository(db)
		riskRepo = repository.NewRiskSettingsRepository(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		tradeRepo = memory.NewSimulatedTradeStore()
		riskRepo = memory.NewRiskSettingsStore()
	}

	// Initialize adapters
	notifier := telegram.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "")
	defer notifier.Close()
	if notifier.Enabled() {
		log.Info().Msg("Telegram notifications enabled")
	}

	marketData := service.NewMarketDataService(service.MarketDataOptions{
		BaseURL:        cfg.Market.BaseURL,
		RequestsPerSec: cfg.Market.RequestsPerSec,
		MaxRetries:     uint64(cfg.Market.MaxRetries),
		CacheTTL:       cfg.Market.CacheTTL,
	})

	// Initialize services
	riskProfile := service.NewRiskProfileService(riskRepo, notifier)
	simulation := service.NewSimulationService(tradeRepo, marketData, notifier)
	portfolio := service.NewPortfolioService(tradeRepo, marketData, riskProfile, cfg.Trading.DefaultBalance)
	snapshots := service.NewRiskSnapshotService(tradeRepo, portfolio, riskProfile, notifier, cfg.Trading.RiskFreeRate)

	tradingService, err := usecase.NewTradingService(marketData, simulation, riskProfile, cfg.Trading.DefaultBalance, usecase.ScanConfig{
		Symbols:       usecase.ParseSymbols(strings.Join(cfg.Trading.Symbols, ",")),
		Interval:      cfg.Trading.Interval,
		ShortPeriod:   cfg.Trading.ShortPeriod,
		LongPeriod:    cfg.Trading.LongPeriod,
		MinConfidence: cfg.Trading.MinConfidence,
		AutoExecute:   cfg.Trading.AutoExecute,
		UserKey:       cfg.Trading.AutoUserKey,
		TradeAmount:   cfg.Trading.DefaultAmount,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create trading service")
	}

	// Initialize scheduler
	if cfg.Scheduler.Enabled {
		scheduler := infra.NewScheduler(tradingService, simulation, snapshots, tradeRepo, infra.Schedules{
			Scan:     cfg.Scheduler.ScanSchedule,
			Position: cfg.Scheduler.PositionSchedule,
			Snapshot: cfg.Scheduler.SnapshotSchedule,
		})
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer scheduler.Stop()
	}

	// Initialize HTTP router
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	httpdelivery.SetupRoutes(e, &httpdelivery.RouterConfig{
		TradingHandler: httpdelivery.NewTradingHandler(simulation, portfolio, tradeRepo, marketData),
		RiskHandler:    httpdelivery.NewRiskHandler(riskProfile, snapshots, cfg.Trading.DefaultBalance),
		MarketHandler:  httpdelivery.NewMarketHandler(tradingService, marketData),
		JWTSecret:      cfg.Auth.JWTSecret,
		ServiceName:    "coinpilot-api",
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("env", cfg.Server.Env).
		Strs("symbols", cfg.Trading.Symbols).
		Float64("paper_balance", cfg.Trading.DefaultBalance).
		Bool("auto_execute", cfg.Trading.AutoExecute).
		Msg("coinpilot starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

