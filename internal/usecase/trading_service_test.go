package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinpilot/internal/domain"
	"coinpilot/internal/repository/memory"
	"coinpilot/internal/service"
)

type stubMarket struct {
	bars []domain.MarketBar
	err  error
}

func (m *stubMarket) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]domain.MarketBar, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.bars) {
		return m.bars[len(m.bars)-limit:], nil
	}
	return m.bars, nil
}

func (m *stubMarket) FetchTicker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error) {
	return nil, errors.New("not implemented")
}

func (m *stubMarket) FetchRealTimePrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func barsFromCloses(closes ...float64) []domain.MarketBar {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.MarketBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.MarketBar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
		}
	}
	return bars
}

func newTestTradingService(t *testing.T, market *stubMarket, store *memory.SimulatedTradeStore, cfg ScanConfig) *TradingService {
	t.Helper()
	riskProfile := service.NewRiskProfileService(memory.NewRiskSettingsStore(), nil)
	simulation := service.NewSimulationService(store, market, nil)
	ts, err := NewTradingService(market, simulation, riskProfile, 10000, cfg)
	if err != nil {
		t.Fatalf("NewTradingService: %v", err)
	}
	return ts
}

func TestNewTradingServiceRejectsBadPeriods(t *testing.T) {
	_, err := NewTradingService(&stubMarket{}, nil, nil, 0, ScanConfig{ShortPeriod: 5, LongPeriod: 5})
	if err == nil {
		t.Fatal("expected error for short >= long")
	}
}

func TestScanAutoExecutesOncePerCrossover(t *testing.T) {
	ctx := context.Background()
	market := &stubMarket{bars: barsFromCloses(10, 10, 10, 10, 20)}
	store := memory.NewSimulatedTradeStore()
	cfg := ScanConfig{
		Symbols:     []string{"BTCUSDT"},
		ShortPeriod: 2,
		LongPeriod:  5,
		AutoExecute: true,
		UserKey:     "bot",
		TradeAmount: "0.5",
	}
	ts := newTestTradingService(t, market, store, cfg)

	results, err := ts.ProcessMarketScan(ctx)
	if err != nil {
		t.Fatalf("ProcessMarketScan: %v", err)
	}
	if len(results) != 1 || len(results[0].Setups) != 1 || results[0].Executed != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}

	// Debounced: same crossover on the same instance yields nothing
	if _, err := ts.ProcessMarketScan(ctx); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	// A fresh instance re-detects the setup but the request id dedupes it
	restarted := newTestTradingService(t, market, store, cfg)
	if _, err := restarted.ProcessMarketScan(ctx); err != nil {
		t.Fatalf("restarted scan: %v", err)
	}

	trades, _ := store.Query(ctx, domain.TradeFilter{UserKey: "bot"})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	trade := trades[0]
	if trade.Strategy != domain.StrategyAIAssisted || trade.Type != domain.TradeLong || trade.Amount != 0.5 {
		t.Errorf("unexpected trade: strategy=%s type=%s amount=%v", trade.Strategy, trade.Type, trade.Amount)
	}
	if trade.StopLoss == nil || *trade.StopLoss != 9 || trade.TakeProfit == nil || *trade.TakeProfit != 42 {
		t.Errorf("expected stops from setup, got sl=%v tp=%v", trade.StopLoss, trade.TakeProfit)
	}
}

func TestScanSizesFromRiskSettings(t *testing.T) {
	ctx := context.Background()
	market := &stubMarket{bars: barsFromCloses(10, 10, 10, 10, 20)}
	store := memory.NewSimulatedTradeStore()
	ts := newTestTradingService(t, market, store, ScanConfig{
		Symbols:     []string{"BTCUSDT"},
		ShortPeriod: 2,
		LongPeriod:  5,
		AutoExecute: true,
		UserKey:     "bot",
	})

	if _, err := ts.ProcessMarketScan(ctx); err != nil {
		t.Fatalf("ProcessMarketScan: %v", err)
	}

	trades, _ := store.Query(ctx, domain.TradeFilter{UserKey: "bot"})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	// Default percentage sizing: 10000 * 25% / 20 = 125 units, capped at 1000 / 20 = 50
	if trades[0].Amount != 50 {
		t.Errorf("amount = %v, want 50", trades[0].Amount)
	}
}

func TestScanShortHistoryIsNotAnError(t *testing.T) {
	market := &stubMarket{bars: barsFromCloses(10, 11)}
	ts := newTestTradingService(t, market, memory.NewSimulatedTradeStore(), ScanConfig{
		Symbols:     []string{"ETHUSDT"},
		ShortPeriod: 2,
		LongPeriod:  5,
	})

	result, err := ts.ScanSymbol(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("ScanSymbol: %v", err)
	}
	if len(result.Setups) != 0 {
		t.Errorf("expected no setups, got %d", len(result.Setups))
	}
}

func TestScanReportsFetchErrors(t *testing.T) {
	market := &stubMarket{err: errors.New("exchange down")}
	ts := newTestTradingService(t, market, memory.NewSimulatedTradeStore(), ScanConfig{
		Symbols:     []string{"BTCUSDT", "ETHUSDT"},
		ShortPeriod: 2,
		LongPeriod:  5,
	})

	results, err := ts.ProcessMarketScan(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestTrendAndPreview(t *testing.T) {
	ctx := context.Background()
	market := &stubMarket{bars: barsFromCloses(10, 10, 10, 10, 20)}
	ts := newTestTradingService(t, market, memory.NewSimulatedTradeStore(), ScanConfig{ShortPeriod: 2, LongPeriod: 5})

	trend, err := ts.Trend(ctx, "BTCUSDT", 2)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if trend.Trend != "rising" {
		t.Errorf("trend = %s, want rising", trend.Trend)
	}

	var insufficient *domain.InsufficientDataError
	if _, err := ts.Trend(ctx, "BTCUSDT", 3); !errors.As(err, &insufficient) {
		t.Errorf("expected InsufficientDataError, got %v", err)
	}

	for i := 0; i < 2; i++ {
		setups, err := ts.PreviewSignals(ctx, "BTCUSDT")
		if err != nil {
			t.Fatalf("PreviewSignals: %v", err)
		}
		if len(setups) != 1 {
			t.Errorf("preview %d: expected 1 setup, got %d", i, len(setups))
		}
	}
}

func TestParseSymbols(t *testing.T) {
	got := ParseSymbols(" btc/usdt, ETHUSDT,,sol/usdt ")
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
