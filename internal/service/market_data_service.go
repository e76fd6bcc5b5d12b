package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"coinpilot/internal/domain"
)

// MarketDataOptions configures the Binance market data client
type MarketDataOptions struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      uint64
	InitialInterval time.Duration
	CacheTTL        time.Duration
}

// MarketDataService fetches bars and prices from the Binance public REST API
type MarketDataService struct {
	client  *resty.Client
	limiter *rate.Limiter
	opts    MarketDataOptions
	logger  zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cachedBars
}

type cachedBars struct {
	bars      []domain.MarketBar
	fetchedAt time.Time
}

// NewMarketDataService creates a new MarketDataService
func NewMarketDataService(opts MarketDataOptions) *MarketDataService {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.binance.com"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}

	return &MarketDataService{
		client: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout),
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		opts:    opts,
		logger:  log.With().Str("component", "market_data").Logger(),
		cache:   make(map[string]cachedBars),
	}
}

// NormalizeSymbol converts "btc/usdt" into the exchange form "BTCUSDT"
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// FetchBars fetches klines for symbol, oldest first
func (s *MarketDataService) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]domain.MarketBar, error) {
	symbol = NormalizeSymbol(symbol)
	key := fmt.Sprintf("%s-%s-%d", symbol, interval, limit)

	if bars, ok := s.cached(key); ok {
		return bars, nil
	}

	body, err := s.get(ctx, "/api/v3/klines", map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
	}

	bars, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse klines for %s: %w", symbol, err)
	}

	s.store(key, bars)
	s.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched bars")
	return bars, nil
}

// FetchTicker fetches the 24h ticker snapshot for symbol
func (s *MarketDataService) FetchTicker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error) {
	symbol = NormalizeSymbol(symbol)

	body, err := s.get(ctx, "/api/v3/ticker/24hr", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker for %s: %w", symbol, err)
	}

	var raw struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
		Volume             string `json:"volume"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker: %w", err)
	}

	fields := []string{raw.LastPrice, raw.PriceChangePercent, raw.Volume, raw.HighPrice, raw.LowPrice}
	values, err := parseFloats(fields...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticker for %s: %w", symbol, err)
	}

	return &domain.TickerSnapshot{
		Symbol:    raw.Symbol,
		Price:     values[0],
		Change24h: values[1],
		Volume:    values[2],
		High24h:   values[3],
		Low24h:    values[4],
	}, nil
}

// FetchRealTimePrices fetches current prices for multiple symbols in one request
func (s *MarketDataService) FetchRealTimePrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64)
	if len(symbols) == 0 {
		return prices, nil
	}

	body, err := s.get(ctx, "/api/v3/ticker/price", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	var tickers []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		wanted[NormalizeSymbol(symbol)] = true
	}

	for _, ticker := range tickers {
		if !wanted[ticker.Symbol] {
			continue
		}
		price, err := strconv.ParseFloat(ticker.Price, 64)
		if err != nil {
			continue
		}
		prices[ticker.Symbol] = price
	}

	var missing []string
	for symbol := range wanted {
		if _, ok := prices[symbol]; !ok {
			missing = append(missing, symbol)
		}
	}
	if len(missing) > 0 {
		return prices, fmt.Errorf("missing prices for symbols: %v", missing)
	}

	return prices, nil
}

// get performs a rate-limited GET with exponential backoff on transient failures
func (s *MarketDataService) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	var body []byte

	operation := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			return err
		}

		if resp.StatusCode() != http.StatusOK {
			statusErr := fmt.Errorf("binance API error: status=%d, body=%s", resp.StatusCode(), resp.String())
			// 4xx other than rate limiting will not improve on retry
			if resp.StatusCode() < 500 && resp.StatusCode() != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			s.logger.Warn().Int("status", resp.StatusCode()).Str("path", path).Msg("Retrying market data request")
			return statusErr
		}

		body = resp.Body()
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, s.opts.MaxRetries), ctx)); err != nil {
		return nil, err
	}

	return body, nil
}

func (s *MarketDataService) cached(key string) ([]domain.MarketBar, bool) {
	if s.opts.CacheTTL <= 0 {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || time.Since(entry.fetchedAt) > s.opts.CacheTTL {
		return nil, false
	}
	return entry.bars, true
}

func (s *MarketDataService) store(key string, bars []domain.MarketBar) {
	if s.opts.CacheTTL <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedBars{bars: bars, fetchedAt: time.Now()}
}

// parseKlines decodes Binance kline arrays:
// [openTime, open, high, low, close, volume, closeTime, ...]
func parseKlines(body []byte) ([]domain.MarketBar, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	bars := make([]domain.MarketBar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline %d has %d fields", i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}

		fields := make([]string, 5)
		for j := range fields {
			if err := json.Unmarshal(row[j+1], &fields[j]); err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
		}

		values, err := parseFloats(fields...)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}

		bars = append(bars, domain.MarketBar{
			Timestamp: time.UnixMilli(openTime).UTC(),
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}

	return bars, nil
}

func parseFloats(fields ...string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
