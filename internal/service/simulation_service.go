package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"coinpilot/internal/domain"
)

// Order directions
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// Order modes
const (
	OrderModeStandard   = "standard"
	OrderModeAIAssisted = "ai-assisted"
)

// DefaultSymbol is used when an order does not name one
const DefaultSymbol = "BTCUSDT"

// OrderRequest is a trade intent submitted for simulation
type OrderRequest struct {
	UserKey      string
	RequestID    string // optional client idempotency key
	Symbol       string
	Direction    string // buy | sell
	Amount       string // decimal string, e.g. "1.5"
	CurrentPrice float64
	OrderMode    string
	Signal       *domain.TradeSetup
}

// SimulationService records simulated orders and manages their lifecycle
type SimulationService struct {
	tradeRepo  domain.SimulatedTradeRepository
	marketData domain.MarketDataService
	notifier   domain.Notifier
	now        func() time.Time
	logger     zerolog.Logger
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(
	tradeRepo domain.SimulatedTradeRepository,
	marketData domain.MarketDataService,
	notifier domain.Notifier,
) *SimulationService {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &SimulationService{
		tradeRepo:  tradeRepo,
		marketData: marketData,
		notifier:   notifier,
		now:        time.Now,
		logger:     log.With().Str("component", "simulation").Logger(),
	}
}

// SubmitSimulatedOrder validates and persists a simulated trade. Persistence failures are
// returned as *domain.SimulationSubmissionError and are not retried. Resubmitting a
// RequestID returns the trade created the first time.
func (s *SimulationService) SubmitSimulatedOrder(ctx context.Context, req OrderRequest) (*domain.SimulatedTrade, error) {
	trade, err := s.buildTrade(req)
	if err != nil {
		return nil, err
	}

	if err := s.tradeRepo.Insert(ctx, trade); err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) {
			existing, getErr := s.tradeRepo.GetByRequestID(ctx, trade.UserKey, trade.RequestID)
			if getErr == nil {
				s.logger.Info().Str("request_id", trade.RequestID).Msg("Duplicate order request, returning existing trade")
				return existing, nil
			}
			err = getErr
		}

		s.logger.Error().Err(err).Str("symbol", trade.Symbol).Msg("Simulated order submission failed")
		s.notifier.Notify(domain.Notification{
			Title:       "Simulation failed",
			Description: fmt.Sprintf("Could not record %s %s order: %v", trade.Type, trade.Symbol, err),
			Severity:    domain.SeverityError,
		})
		return nil, &domain.SimulationSubmissionError{Cause: err}
	}

	s.logger.Info().
		Str("id", trade.ID.String()).
		Str("symbol", trade.Symbol).
		Str("type", trade.Type).
		Float64("amount", trade.Amount).
		Float64("entry", trade.EntryPrice).
		Str("strategy", trade.Strategy).
		Msg("Simulated trade opened")

	s.notifier.Notify(domain.Notification{
		Title:       "Simulated trade opened",
		Description: fmt.Sprintf("%s %g %s @ %.2f (%s)", strings.ToUpper(trade.Type), trade.Amount, trade.Symbol, trade.EntryPrice, trade.Strategy),
		Severity:    domain.SeveritySuccess,
	})

	return trade, nil
}

func (s *SimulationService) buildTrade(req OrderRequest) (*domain.SimulatedTrade, error) {
	var tradeType string
	switch strings.ToLower(req.Direction) {
	case DirectionBuy:
		tradeType = domain.TradeLong
	case DirectionSell:
		tradeType = domain.TradeShort
	default:
		return nil, fmt.Errorf("%w: direction must be buy or sell, got %q", domain.ErrInvalidOrder, req.Direction)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", domain.ErrInvalidOrder, req.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidOrder)
	}
	if req.CurrentPrice <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}

	if err := validateSignal(req.Signal, tradeType, req.CurrentPrice); err != nil {
		return nil, err
	}

	symbol := DefaultSymbol
	if req.Symbol != "" {
		symbol = NormalizeSymbol(req.Symbol)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	trade := &domain.SimulatedTrade{
		ID:             uuid.New(),
		UserKey:        req.UserKey,
		RequestID:      requestID,
		Symbol:         symbol,
		Type:           tradeType,
		Amount:         amount.InexactFloat64(),
		EntryPrice:     req.CurrentPrice,
		Status:         domain.TradeStatusActive,
		SimulationType: domain.SimulationPaper,
		Strategy:       strategyTag(req.OrderMode, req.Signal),
		CreatedAt:      s.now(),
	}

	if req.Signal != nil {
		confidence := req.Signal.Confidence
		trade.AIConfidence = &confidence
		if req.Signal.StopLoss > 0 {
			stop := req.Signal.StopLoss
			trade.StopLoss = &stop
		}
		if req.Signal.TakeProfit > 0 {
			tp := req.Signal.TakeProfit
			trade.TakeProfit = &tp
		}
	}

	return trade, nil
}

// validateSignal rejects confidence outside 0..100 and stop or target levels on the wrong
// side of the entry price. Non-positive levels mean "not set".
func validateSignal(signal *domain.TradeSetup, tradeType string, price float64) error {
	if signal == nil {
		return nil
	}
	if signal.Confidence < 0 || signal.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be within 0..100, got %d", domain.ErrInvalidOrder, signal.Confidence)
	}

	long := tradeType == domain.TradeLong
	if signal.StopLoss > 0 && (long && signal.StopLoss >= price || !long && signal.StopLoss <= price) {
		return fmt.Errorf("%w: stop-loss %.8g is on the wrong side of entry %.8g", domain.ErrInvalidOrder, signal.StopLoss, price)
	}
	if signal.TakeProfit > 0 && (long && signal.TakeProfit <= price || !long && signal.TakeProfit >= price) {
		return fmt.Errorf("%w: take-profit %.8g is on the wrong side of entry %.8g", domain.ErrInvalidOrder, signal.TakeProfit, price)
	}
	return nil
}

// strategyTag is "ai-assisted" only for non-standard orders that carry a signal
func strategyTag(orderMode string, signal *domain.TradeSetup) string {
	if orderMode == OrderModeStandard {
		return domain.StrategyManual
	}
	if signal != nil {
		return domain.StrategyAIAssisted
	}
	return domain.StrategyManual
}

// ClosePosition closes an active trade owned by userKey. A non-positive exitPrice closes
// at the current market price, falling back to the entry price when no quote is available.
func (s *SimulationService) ClosePosition(ctx context.Context, userKey string, id uuid.UUID, exitPrice float64) (*domain.SimulatedTrade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.UserKey != userKey {
		return nil, domain.ErrTradeNotFound
	}
	if !trade.IsActive() {
		return nil, domain.ErrTradeAlreadyClosed
	}

	if exitPrice <= 0 {
		exitPrice = trade.EntryPrice
		prices, err := s.marketData.FetchRealTimePrices(ctx, []string{trade.Symbol})
		if p, ok := prices[trade.Symbol]; ok && p > 0 {
			exitPrice = p
		} else {
			s.logger.Warn().Err(err).Str("symbol", trade.Symbol).Msg("No market price, closing at entry")
		}
	}

	if err := trade.Close(exitPrice, domain.ClosedByManual, s.now()); err != nil {
		return nil, err
	}
	if err := s.tradeRepo.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}

	s.logger.Info().
		Str("id", trade.ID.String()).
		Float64("exit", exitPrice).
		Float64("pnl", *trade.RealizedPnL).
		Msg("Simulated trade closed manually")

	s.notifier.Notify(domain.Notification{
		Title:       "Position closed",
		Description: fmt.Sprintf("%s %s closed @ %.2f, P&L %.2f", trade.Symbol, trade.Type, exitPrice, *trade.RealizedPnL),
		Severity:    domain.SeverityInfo,
	})

	return trade, nil
}

// CheckPositions closes active trades whose stop-loss or take-profit is hit
func (s *SimulationService) CheckPositions(ctx context.Context) (int, error) {
	trades, err := s.tradeRepo.Query(ctx, domain.TradeFilter{Status: domain.TradeStatusActive})
	if err != nil {
		return 0, fmt.Errorf("failed to get active trades: %w", err)
	}

	var guarded []*domain.SimulatedTrade
	symbolSet := make(map[string]bool)
	for _, trade := range trades {
		if trade.StopLoss == nil && trade.TakeProfit == nil {
			continue
		}
		guarded = append(guarded, trade)
		symbolSet[trade.Symbol] = true
	}

	if len(guarded) == 0 {
		return 0, nil
	}

	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}

	prices, err := s.marketData.FetchRealTimePrices(ctx, symbols)
	if err != nil {
		if len(prices) == 0 {
			return 0, fmt.Errorf("failed to fetch real-time prices: %w", err)
		}
		s.logger.Warn().Err(err).Msg("Partial price fetch")
	}

	closed := 0
	for _, trade := range guarded {
		currentPrice, ok := prices[trade.Symbol]
		if !ok {
			s.logger.Warn().Str("symbol", trade.Symbol).Msg("Price not found, skipping")
			continue
		}

		shouldClose, closedBy := trade.CheckSLTP(currentPrice)
		if !shouldClose {
			continue
		}

		if err := trade.Close(currentPrice, closedBy, s.now()); err != nil {
			continue
		}
		if err := s.tradeRepo.Update(ctx, trade); err != nil {
			s.logger.Error().Err(err).Str("id", trade.ID.String()).Msg("Failed to close trade")
			continue
		}

		closed++
		s.logger.Info().
			Str("symbol", trade.Symbol).
			Str("type", trade.Type).
			Float64("entry", trade.EntryPrice).
			Float64("exit", currentPrice).
			Float64("pnl", *trade.RealizedPnL).
			Str("closed_by", closedBy).
			Msg("Simulated trade closed")

		severity := domain.SeveritySuccess
		if *trade.RealizedPnL < 0 {
			severity = domain.SeverityWarning
		}
		s.notifier.Notify(domain.Notification{
			Title:       fmt.Sprintf("%s hit on %s", closedBy, trade.Symbol),
			Description: fmt.Sprintf("Closed %s @ %.2f, P&L %.2f", trade.Type, currentPrice, *trade.RealizedPnL),
			Severity:    severity,
		})
	}

	return closed, nil
}
