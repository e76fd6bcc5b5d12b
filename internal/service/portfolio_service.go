package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/internal/domain"
)

// Portfolio is the current set of open positions and their aggregate exposure
type Portfolio struct {
	Positions []domain.Position `json:"positions"`
	Exposure  domain.Exposure   `json:"exposure"`
}

// PortfolioService derives positions from active simulated trades
type PortfolioService struct {
	tradeRepo    domain.SimulatedTradeRepository
	marketData   domain.MarketDataService
	riskProfile  *RiskProfileService
	paperBalance float64
	logger       zerolog.Logger
}

// NewPortfolioService creates a new PortfolioService. paperBalance is the notional account
// size allocation percentages are measured against.
func NewPortfolioService(
	tradeRepo domain.SimulatedTradeRepository,
	marketData domain.MarketDataService,
	riskProfile *RiskProfileService,
	paperBalance float64,
) *PortfolioService {
	return &PortfolioService{
		tradeRepo:    tradeRepo,
		marketData:   marketData,
		riskProfile:  riskProfile,
		paperBalance: paperBalance,
		logger:       log.With().Str("component", "portfolio").Logger(),
	}
}

// PaperBalance returns the notional account size
func (s *PortfolioService) PaperBalance() float64 {
	return s.paperBalance
}

// ComputePositions maps active trades to positions in input order. A trade whose symbol
// has no price is valued at its entry price.
func ComputePositions(trades []*domain.SimulatedTrade, prices map[string]float64) []domain.Position {
	positions := make([]domain.Position, 0, len(trades))
	for _, trade := range trades {
		if !trade.IsActive() {
			continue
		}
		price, ok := prices[trade.Symbol]
		if !ok || price <= 0 {
			price = trade.EntryPrice
		}
		positions = append(positions, domain.NewPosition(trade, price))
	}
	return positions
}

// ComputeExposure aggregates positions against the allocation limit (percent of balance)
func ComputeExposure(positions []domain.Position, balance, allocationLimitPct float64) domain.Exposure {
	exposure := domain.Exposure{
		OpenPositions:      len(positions),
		AllocationLimitPct: allocationLimitPct,
	}
	for _, p := range positions {
		exposure.TotalExposure += p.CurrentPrice * p.Amount
		exposure.TotalUnrealizedPnL += p.ProfitLoss
	}
	if balance > 0 {
		exposure.AllocationUsedPct = exposure.TotalExposure * 100 / balance
	}
	exposure.AllocationLimitBreached = allocationLimitPct > 0 && exposure.AllocationUsedPct > allocationLimitPct
	return exposure
}

// GetPortfolio returns the user's open positions valued at current market prices
func (s *PortfolioService) GetPortfolio(ctx context.Context, userKey string) (*Portfolio, error) {
	trades, err := s.tradeRepo.Query(ctx, domain.TradeFilter{UserKey: userKey, Status: domain.TradeStatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to get active trades: %w", err)
	}

	settings, err := s.riskProfile.GetSettings(ctx, userKey)
	if err != nil {
		return nil, err
	}

	prices := map[string]float64{}
	if len(trades) > 0 {
		symbolSet := make(map[string]bool)
		symbols := make([]string, 0, len(trades))
		for _, trade := range trades {
			if !symbolSet[trade.Symbol] {
				symbolSet[trade.Symbol] = true
				symbols = append(symbols, trade.Symbol)
			}
		}

		fetched, err := s.marketData.FetchRealTimePrices(ctx, symbols)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Valuing positions without full market prices")
		}
		if fetched != nil {
			prices = fetched
		}
	}

	positions := ComputePositions(trades, prices)
	return &Portfolio{
		Positions: positions,
		Exposure:  ComputeExposure(positions, s.paperBalance, settings.PortfolioAllocationLimit),
	}, nil
}
