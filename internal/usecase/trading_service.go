package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"coinpilot/internal/analytics"
	"coinpilot/internal/domain"
	"coinpilot/internal/service"
	"coinpilot/internal/strategy"
)

// minScanBars is the floor on bars requested per scan
const minScanBars = 100

// ScanConfig controls the strategy scan
type ScanConfig struct {
	Symbols       []string
	Interval      string // kline interval, e.g. "15m"
	ShortPeriod   int
	LongPeriod    int
	MinConfidence int

	// AutoExecute submits every setup as an ai-assisted simulated order for UserKey
	AutoExecute bool
	UserKey     string
	TradeAmount string // empty: sized by the user's risk settings
}

// ScanResult summarizes one symbol's scan
type ScanResult struct {
	Symbol   string
	Setups   []domain.TradeSetup
	Executed int
}

// TradingService runs the MA crossover strategy over market data
type TradingService struct {
	marketData  domain.MarketDataService
	simulation  *service.SimulationService
	riskProfile *service.RiskProfileService
	balance     float64
	cfg         ScanConfig
	logger      zerolog.Logger

	mu         sync.Mutex
	strategies map[string]*strategy.MACrossover // one per symbol
}

// NewTradingService creates a new TradingService
func NewTradingService(
	marketData domain.MarketDataService,
	simulation *service.SimulationService,
	riskProfile *service.RiskProfileService,
	balance float64,
	cfg ScanConfig,
) (*TradingService, error) {
	// Fail fast on bad periods rather than on the first scan
	if _, err := strategy.NewMACrossover(cfg.ShortPeriod, cfg.LongPeriod); err != nil {
		return nil, err
	}
	if cfg.Interval == "" {
		cfg.Interval = "15m"
	}

	return &TradingService{
		marketData:  marketData,
		simulation:  simulation,
		riskProfile: riskProfile,
		balance:     balance,
		cfg:         cfg,
		logger:      log.With().Str("component", "trading").Logger(),
		strategies:  make(map[string]*strategy.MACrossover),
	}, nil
}

// ProcessMarketScan scans every configured symbol
func (ts *TradingService) ProcessMarketScan(ctx context.Context) ([]ScanResult, error) {
	startTime := time.Now()
	ts.logger.Info().Int("symbols", len(ts.cfg.Symbols)).Msg("Starting market scan")

	results := make([]ScanResult, 0, len(ts.cfg.Symbols))
	var errs []error
	setups, executed := 0, 0

	for _, symbol := range ts.cfg.Symbols {
		result, err := ts.ScanSymbol(ctx, symbol)
		if err != nil {
			ts.logger.Error().Err(err).Str("symbol", symbol).Msg("Scan failed")
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			continue
		}
		results = append(results, *result)
		setups += len(result.Setups)
		executed += result.Executed
	}

	ts.logger.Info().
		Int("setups", setups).
		Int("executed", executed).
		Dur("elapsed", time.Since(startTime)).
		Msg("Market scan complete")

	return results, errors.Join(errs...)
}

// ScanSymbol feeds the latest bars to the symbol's strategy instance. Too little history
// yields no setups rather than an error.
func (ts *TradingService) ScanSymbol(ctx context.Context, symbol string) (*ScanResult, error) {
	symbol = service.NormalizeSymbol(symbol)
	result := &ScanResult{Symbol: symbol}

	bars, err := ts.marketData.FetchBars(ctx, symbol, ts.cfg.Interval, ts.barLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars: %w", err)
	}

	ts.mu.Lock()
	strat, ok := ts.strategies[symbol]
	if !ok {
		strat, _ = strategy.NewMACrossover(ts.cfg.ShortPeriod, ts.cfg.LongPeriod)
		ts.strategies[symbol] = strat
	}
	result.Setups = strat.Analyze(bars)
	ts.mu.Unlock()

	if len(result.Setups) == 0 {
		ts.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("No crossover")
		return result, nil
	}

	for i := range result.Setups {
		setup := result.Setups[i]
		ts.logger.Info().
			Str("symbol", symbol).
			Str("type", setup.Type).
			Float64("entry", setup.Entry).
			Float64("stop", setup.StopLoss).
			Float64("tp", setup.TakeProfit).
			Int("confidence", setup.Confidence).
			Msg("Crossover setup")

		if !ts.cfg.AutoExecute || setup.Confidence < ts.cfg.MinConfidence {
			continue
		}
		if err := ts.execute(ctx, symbol, setup); err != nil {
			ts.logger.Error().Err(err).Str("symbol", symbol).Msg("Auto-execution failed")
			continue
		}
		result.Executed++
	}

	return result, nil
}

func (ts *TradingService) execute(ctx context.Context, symbol string, setup domain.TradeSetup) error {
	amount := ts.cfg.TradeAmount
	if amount == "" {
		settings, err := ts.riskProfile.GetSettings(ctx, ts.cfg.UserKey)
		if err != nil {
			return err
		}
		units := ts.riskProfile.SuggestPositionSize(settings, ts.balance, setup.Entry, setup.StopLoss)
		amount = decimal.NewFromFloat(units).Round(6).String()
	}

	direction := service.DirectionBuy
	if setup.Type == domain.SetupShort {
		direction = service.DirectionSell
	}

	_, err := ts.simulation.SubmitSimulatedOrder(ctx, service.OrderRequest{
		UserKey: ts.cfg.UserKey,
		// Deterministic id so a re-run scan cannot open the same setup twice
		RequestID:    fmt.Sprintf("%s:%s:%s:%d", setup.Strategy, symbol, setup.Type, setup.Timestamp.Unix()),
		Symbol:       symbol,
		Direction:    direction,
		Amount:       amount,
		CurrentPrice: setup.Entry,
		OrderMode:    service.OrderModeAIAssisted,
		Signal:       &setup,
	})
	return err
}

// Trend reports the moving-average trend over the latest 2*window bars
func (ts *TradingService) Trend(ctx context.Context, symbol string, window int) (*analytics.TrendResult, error) {
	if window <= 0 {
		return analytics.AnalyzeTrend(nil, window)
	}
	bars, err := ts.marketData.FetchBars(ctx, service.NormalizeSymbol(symbol), ts.cfg.Interval, 2*window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars: %w", err)
	}
	return analytics.AnalyzeTrend(bars, window)
}

// PreviewSignals runs a fresh strategy instance over the latest bars. The scan's
// per-symbol debounce state is left untouched.
func (ts *TradingService) PreviewSignals(ctx context.Context, symbol string) ([]domain.TradeSetup, error) {
	bars, err := ts.marketData.FetchBars(ctx, service.NormalizeSymbol(symbol), ts.cfg.Interval, ts.barLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars: %w", err)
	}
	strat, err := strategy.NewMACrossover(ts.cfg.ShortPeriod, ts.cfg.LongPeriod)
	if err != nil {
		return nil, err
	}
	setups := strat.Analyze(bars)
	if setups == nil {
		setups = []domain.TradeSetup{}
	}
	return setups, nil
}

// Symbols returns the configured scan symbols
func (ts *TradingService) Symbols() []string {
	return append([]string(nil), ts.cfg.Symbols...)
}

func (ts *TradingService) barLimit() int {
	return max(ts.cfg.LongPeriod*3, minScanBars)
}

// ParseSymbols splits a comma-separated symbol list
func ParseSymbols(raw string) []string {
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, service.NormalizeSymbol(s))
		}
	}
	return symbols
}
