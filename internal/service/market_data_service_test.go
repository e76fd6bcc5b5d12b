package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMarketData(t *testing.T, handler http.HandlerFunc, cacheTTL time.Duration) *MarketDataService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewMarketDataService(MarketDataOptions{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		RequestsPerSec:  100,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		CacheTTL:        cacheTTL,
	})
}

const klinesBody = `[
	[1700000000000,"100.0","110.0","95.0","105.0","12.5",1700000059999,"0",1,"0","0","0"],
	[1700000060000,"105.0","108.0","101.0","107.5","8.0",1700000119999,"0",1,"0","0","0"]
]`

func TestFetchBarsParsesKlines(t *testing.T) {
	var calls int32
	svc := newTestMarketData(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/api/v3/klines" || r.URL.Query().Get("symbol") != "BTCUSDT" || r.URL.Query().Get("limit") != "2" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		w.Write([]byte(klinesBody))
	}, time.Minute)

	bars, err := svc.FetchBars(context.Background(), "btc/usdt", "1m", 2)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Open != 100 || bars[0].High != 110 || bars[0].Low != 95 || bars[0].Close != 105 || bars[0].Volume != 12.5 {
		t.Errorf("unexpected first bar: %+v", bars[0])
	}
	if !bars[0].Timestamp.Equal(time.UnixMilli(1700000000000)) || !bars[1].Timestamp.After(bars[0].Timestamp) {
		t.Errorf("unexpected timestamps: %v %v", bars[0].Timestamp, bars[1].Timestamp)
	}

	// Served from cache
	if _, err := svc.FetchBars(context.Background(), "BTCUSDT", "1m", 2); err != nil {
		t.Fatalf("cached FetchBars: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	svc := newTestMarketData(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","lastPrice":"2500.5","priceChangePercent":"-1.2","volume":"1000","highPrice":"2600","lowPrice":"2400"}`))
	}, 0)

	ticker, err := svc.FetchTicker(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	if ticker.Price != 2500.5 || ticker.Change24h != -1.2 || ticker.High24h != 2600 {
		t.Errorf("unexpected ticker: %+v", ticker)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	svc := newTestMarketData(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}, 0)

	_, err := svc.FetchTicker(context.Background(), "NOPE")
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestFetchRealTimePricesReportsMissing(t *testing.T) {
	svc := newTestMarketData(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"BTCUSDT","price":"44000.10"},{"symbol":"ETHUSDT","price":"2500"}]`))
	}, 0)

	prices, err := svc.FetchRealTimePrices(context.Background(), []string{"BTCUSDT", "SOLUSDT"})
	if err == nil || !strings.Contains(err.Error(), "SOLUSDT") {
		t.Fatalf("expected missing symbol error, got %v", err)
	}
	if prices["BTCUSDT"] != 44000.10 {
		t.Errorf("BTCUSDT = %v", prices["BTCUSDT"])
	}
	if _, ok := prices["ETHUSDT"]; ok {
		t.Error("unrequested symbol returned")
	}
}
