package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"coinpilot/internal/domain"
	"coinpilot/internal/repository/memory"
)

func closedTrade(userKey string, entry, exit float64, closedAt time.Time) *domain.SimulatedTrade {
	pnl := exit - entry
	by := domain.ClosedByManual
	return &domain.SimulatedTrade{
		ID:          uuid.New(),
		UserKey:     userKey,
		RequestID:   uuid.NewString(),
		Symbol:      "BTCUSDT",
		Type:        domain.TradeLong,
		Amount:      1,
		EntryPrice:  entry,
		Status:      domain.TradeStatusClosed,
		ExitPrice:   &exit,
		RealizedPnL: &pnl,
		ClosedBy:    &by,
		CreatedAt:   closedAt.Add(-time.Hour),
		ClosedAt:    &closedAt,
	}
}

func newSnapshotService(t *testing.T, trades ...*domain.SimulatedTrade) (*RiskSnapshotService, *RiskProfileService, *recordingNotifier) {
	t.Helper()
	store := memory.NewSimulatedTradeStore()
	for _, tr := range trades {
		if err := store.Insert(context.Background(), tr); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	notifier := &recordingNotifier{}
	riskProfile := NewRiskProfileService(memory.NewRiskSettingsStore(), notifier)
	portfolio := NewPortfolioService(store, &fakeMarket{}, riskProfile, 1000)
	return NewRiskSnapshotService(store, portfolio, riskProfile, notifier, 0), riskProfile, notifier
}

func metricByName(metrics []domain.RiskMetric, name string) (domain.RiskMetric, bool) {
	for _, m := range metrics {
		if m.Name == name {
			return m, true
		}
	}
	return domain.RiskMetric{}, false
}

func TestSnapshotRecordsMetrics(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, riskProfile, _ := newSnapshotService(t,
		closedTrade("alice", 100, 110, now.Add(-3*time.Hour)), // +10
		closedTrade("alice", 100, 50, now.Add(-2*time.Hour)),  // -50
		closedTrade("alice", 100, 120, now.Add(-1*time.Hour)), // +20
	)

	entry, err := svc.Snapshot(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(entry.Metrics) != 5 {
		t.Fatalf("expected 5 metrics, got %d", len(entry.Metrics))
	}

	// equity 1000 -> 1010 -> 960 -> 980
	roi, _ := metricByName(entry.Metrics, MetricROI)
	if math.Abs(roi.Value+2) > 1e-9 || roi.Status != domain.MetricMedium {
		t.Errorf("ROI = %+v, want -2 medium", roi)
	}
	dd, _ := metricByName(entry.Metrics, MetricDrawdown)
	want := (1010.0 - 960.0) / 1010.0 * 100
	if math.Abs(dd.Value-want) > 1e-9 || dd.Status != domain.MetricLow {
		t.Errorf("drawdown = %+v, want %v low", dd, want)
	}
	alloc, _ := metricByName(entry.Metrics, MetricAllocation)
	if alloc.Value != 0 || alloc.Status != domain.MetricLow {
		t.Errorf("allocation = %+v, want 0 low", alloc)
	}

	history, _ := riskProfile.GetHistory(context.Background(), "alice")
	if len(history) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(history))
	}
}

func TestSnapshotWithoutTradesUsesZeroSentinels(t *testing.T) {
	svc, _, _ := newSnapshotService(t)

	metrics, err := svc.ComputeMetrics(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	for _, name := range []string{MetricSharpe, MetricSortino, MetricDrawdown, MetricROI} {
		m, ok := metricByName(metrics, name)
		if !ok || m.Value != 0 {
			t.Errorf("%s = %+v, want 0", name, m)
		}
	}
}

func TestCheckDailyLoss(t *testing.T) {
	now := time.Now()
	svc, _, notifier := newSnapshotService(t,
		closedTrade("alice", 200, 120, now), // -80
		closedTrade("alice", 100, 60, now),  // -40
		closedTrade("bob", 100, 90, now),    // -10
	)
	svc.now = func() time.Time { return now }

	loss, breached, err := svc.CheckDailyLoss(context.Background(), "alice")
	if err != nil {
		t.Fatalf("CheckDailyLoss: %v", err)
	}
	if loss != 120 || !breached {
		t.Errorf("loss=%v breached=%v, want 120 true", loss, breached)
	}
	if n, ok := notifier.last(); !ok || n.Severity != domain.SeverityWarning {
		t.Errorf("expected warning notification, got %+v", n)
	}

	loss, breached, err = svc.CheckDailyLoss(context.Background(), "bob")
	if err != nil {
		t.Fatalf("CheckDailyLoss: %v", err)
	}
	if loss != 10 || breached {
		t.Errorf("loss=%v breached=%v, want 10 false", loss, breached)
	}
}

func TestMetricStatusThresholds(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sharpe strong", ratioStatus(1.5), domain.MetricLow},
		{"sharpe weak", ratioStatus(0.2), domain.MetricMedium},
		{"sharpe negative", ratioStatus(-0.1), domain.MetricHigh},
		{"drawdown deep", drawdownStatus(35), domain.MetricHigh},
		{"roi loss", roiStatus(-25), domain.MetricHigh},
		{"allocation near limit", allocationStatus(20, 25), domain.MetricMedium},
		{"allocation over limit", allocationStatus(30, 25), domain.MetricHigh},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}
