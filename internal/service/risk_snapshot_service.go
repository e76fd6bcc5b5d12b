package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/internal/analytics"
	"coinpilot/internal/domain"
	"coinpilot/internal/utils"
)

// Risk metric names as shown in the history
const (
	MetricSharpe     = "Sharpe Ratio"
	MetricSortino    = "Sortino Ratio"
	MetricDrawdown   = "Max Drawdown"
	MetricROI        = "ROI"
	MetricAllocation = "Portfolio Allocation"
)

// snapshotTradeLimit bounds how many closed trades feed a snapshot
const snapshotTradeLimit = 500

// RiskSnapshotService audits a user's simulated trading and records risk snapshots
type RiskSnapshotService struct {
	tradeRepo    domain.SimulatedTradeRepository
	portfolio    *PortfolioService
	riskProfile  *RiskProfileService
	notifier     domain.Notifier
	riskFreeRate float64
	now          func() time.Time
	logger       zerolog.Logger
}

// NewRiskSnapshotService creates a new RiskSnapshotService
func NewRiskSnapshotService(
	tradeRepo domain.SimulatedTradeRepository,
	portfolio *PortfolioService,
	riskProfile *RiskProfileService,
	notifier domain.Notifier,
	riskFreeRate float64,
) *RiskSnapshotService {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &RiskSnapshotService{
		tradeRepo:    tradeRepo,
		portfolio:    portfolio,
		riskProfile:  riskProfile,
		notifier:     notifier,
		riskFreeRate: riskFreeRate,
		now:          time.Now,
		logger:       log.With().Str("component", "risk_snapshot").Logger(),
	}
}

// Snapshot computes the user's current risk metrics and prepends them to the history
func (s *RiskSnapshotService) Snapshot(ctx context.Context, userKey string) (domain.RiskHistoryEntry, error) {
	metrics, err := s.ComputeMetrics(ctx, userKey)
	if err != nil {
		return domain.RiskHistoryEntry{}, err
	}

	entry, err := s.riskProfile.AddHistoryEntry(ctx, userKey, metrics)
	if err != nil {
		return domain.RiskHistoryEntry{}, err
	}

	s.logger.Info().Str("user", userKey).Int("metrics", len(metrics)).Msg("Risk snapshot recorded")
	return entry, nil
}

// ComputeMetrics derives risk metrics from closed trades and open positions without storing them
func (s *RiskSnapshotService) ComputeMetrics(ctx context.Context, userKey string) ([]domain.RiskMetric, error) {
	closed, err := s.tradeRepo.Query(ctx, domain.TradeFilter{
		UserKey: userKey,
		Status:  domain.TradeStatusClosed,
		Limit:   snapshotTradeLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get closed trades: %w", err)
	}

	// Oldest close first so the equity curve runs forward in time
	sort.SliceStable(closed, func(i, j int) bool {
		return closedAt(closed[i]).Before(closedAt(closed[j]))
	})

	returns := make([]float64, 0, len(closed))
	pnls := make([]float64, 0, len(closed))
	for _, trade := range closed {
		returns = append(returns, trade.ReturnFraction())
		if trade.RealizedPnL != nil {
			pnls = append(pnls, *trade.RealizedPnL)
		}
	}

	portfolio, err := s.portfolio.GetPortfolio(ctx, userKey)
	if err != nil {
		return nil, err
	}

	balance := s.portfolio.PaperBalance()
	equity := analytics.EquityCurve(balance, pnls)
	final := balance
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}

	sharpe := analytics.SharpeRatio(returns, s.riskFreeRate)
	sortino := analytics.SortinoRatio(returns, s.riskFreeRate, 0)
	drawdown := analytics.MaxDrawdown(equity) * 100
	roi := analytics.ROI(balance, final)
	exposure := portfolio.Exposure

	return []domain.RiskMetric{
		{Name: MetricSharpe, Value: sharpe, MaxValue: 3, Status: ratioStatus(sharpe)},
		{Name: MetricSortino, Value: sortino, MaxValue: 3, Status: ratioStatus(sortino)},
		{Name: MetricDrawdown, Value: drawdown, MaxValue: 100, Status: drawdownStatus(drawdown)},
		{Name: MetricROI, Value: roi, MaxValue: 100, Status: roiStatus(roi)},
		{
			Name:     MetricAllocation,
			Value:    exposure.AllocationUsedPct,
			MaxValue: exposure.AllocationLimitPct,
			Status:   allocationStatus(exposure.AllocationUsedPct, exposure.AllocationLimitPct),
		},
	}, nil
}

// CheckDailyLoss sums today's realized P&L and notifies when the loss exceeds the user's limit
func (s *RiskSnapshotService) CheckDailyLoss(ctx context.Context, userKey string) (loss float64, breached bool, err error) {
	settings, err := s.riskProfile.GetSettings(ctx, userKey)
	if err != nil {
		return 0, false, err
	}

	since := utils.StartOfDay(s.now())
	trades, err := s.tradeRepo.Query(ctx, domain.TradeFilter{
		UserKey:     userKey,
		Status:      domain.TradeStatusClosed,
		ClosedSince: &since,
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to get today's trades: %w", err)
	}

	var realized float64
	for _, trade := range trades {
		if trade.RealizedPnL != nil {
			realized += *trade.RealizedPnL
		}
	}
	if realized < 0 {
		loss = -realized
	}

	if !settings.DailyLossNotification || settings.DailyLossLimit <= 0 || loss <= settings.DailyLossLimit {
		return loss, false, nil
	}

	s.logger.Warn().Str("user", userKey).Float64("loss", loss).Float64("limit", settings.DailyLossLimit).Msg("Daily loss limit exceeded")
	s.notifier.Notify(domain.Notification{
		Title:       "Daily loss limit exceeded",
		Description: fmt.Sprintf("Realized loss today %.2f exceeds limit %.2f", loss, settings.DailyLossLimit),
		Severity:    domain.SeverityWarning,
	})
	return loss, true, nil
}

func closedAt(t *domain.SimulatedTrade) time.Time {
	if t.ClosedAt != nil {
		return *t.ClosedAt
	}
	return t.CreatedAt
}

func ratioStatus(v float64) string {
	switch {
	case v >= 1:
		return domain.MetricLow
	case v >= 0:
		return domain.MetricMedium
	default:
		return domain.MetricHigh
	}
}

func drawdownStatus(pct float64) string {
	switch {
	case pct < 10:
		return domain.MetricLow
	case pct < 20:
		return domain.MetricMedium
	default:
		return domain.MetricHigh
	}
}

func roiStatus(pct float64) string {
	switch {
	case pct >= 0:
		return domain.MetricLow
	case pct > -10:
		return domain.MetricMedium
	default:
		return domain.MetricHigh
	}
}

func allocationStatus(used, limit float64) string {
	if limit <= 0 {
		return domain.MetricLow
	}
	switch {
	case used < limit*0.75:
		return domain.MetricLow
	case used <= limit:
		return domain.MetricMedium
	default:
		return domain.MetricHigh
	}
}
