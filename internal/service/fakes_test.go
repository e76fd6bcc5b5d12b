package service

import (
	"context"
	"errors"
	"sync"

	"coinpilot/internal/domain"
)

type fakeMarket struct {
	prices map[string]float64
	bars   []domain.MarketBar
	err    error
}

func (f *fakeMarket) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]domain.MarketBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeMarket) FetchTicker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return &domain.TickerSnapshot{Symbol: symbol, Price: price}, nil
}

func (f *fakeMarket) FetchRealTimePrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]float64)
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			result[s] = p
		}
	}
	return result, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (r *recordingNotifier) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recordingNotifier) last() (domain.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return domain.Notification{}, false
	}
	return r.events[len(r.events)-1], true
}
