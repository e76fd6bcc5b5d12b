// Package memory provides in-process implementations of the domain repositories.
// They back DB-less runs and unit tests and mirror the Postgres semantics.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"coinpilot/internal/domain"
)

// SimulatedTradeStore is a map-backed SimulatedTradeRepository
type SimulatedTradeStore struct {
	mu     sync.RWMutex
	trades map[uuid.UUID]*domain.SimulatedTrade
	order  []uuid.UUID

	// FailInsert, when set, is returned by Insert instead of storing the trade
	FailInsert error
}

// NewSimulatedTradeStore creates an empty store
func NewSimulatedTradeStore() *SimulatedTradeStore {
	return &SimulatedTradeStore{
		trades: make(map[uuid.UUID]*domain.SimulatedTrade),
	}
}

// Insert stores a copy of trade
func (s *SimulatedTradeStore) Insert(ctx context.Context, trade *domain.SimulatedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		return s.FailInsert
	}

	if trade.RequestID != "" {
		for _, existing := range s.trades {
			if existing.UserKey == trade.UserKey && existing.RequestID == trade.RequestID {
				return domain.ErrDuplicateRequest
			}
		}
	}

	s.trades[trade.ID] = copyTrade(trade)
	s.order = append(s.order, trade.ID)
	return nil
}

// GetByID returns a copy of the stored trade
func (s *SimulatedTradeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SimulatedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trade, ok := s.trades[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	return copyTrade(trade), nil
}

// GetByRequestID finds a trade by its client request id
func (s *SimulatedTradeStore) GetByRequestID(ctx context.Context, userKey, requestID string) (*domain.SimulatedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, trade := range s.trades {
		if trade.UserKey == userKey && trade.RequestID == requestID {
			return copyTrade(trade), nil
		}
	}
	return nil, domain.ErrTradeNotFound
}

// Update writes the closing fields of an active trade
func (s *SimulatedTradeStore) Update(ctx context.Context, trade *domain.SimulatedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.trades[trade.ID]
	if !ok {
		return domain.ErrTradeNotFound
	}
	if !stored.IsActive() {
		return domain.ErrTradeAlreadyClosed
	}

	stored.Status = trade.Status
	stored.ExitPrice = trade.ExitPrice
	stored.RealizedPnL = trade.RealizedPnL
	stored.ClosedBy = trade.ClosedBy
	stored.ClosedAt = trade.ClosedAt
	return nil
}

// Query returns matching trades, newest first
func (s *SimulatedTradeStore) Query(ctx context.Context, filter domain.TradeFilter) ([]*domain.SimulatedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulatedTrade
	for i := len(s.order) - 1; i >= 0; i-- {
		trade := s.trades[s.order[i]]
		if filter.UserKey != "" && trade.UserKey != filter.UserKey {
			continue
		}
		if filter.Status != "" && trade.Status != filter.Status {
			continue
		}
		if filter.Symbol != "" && trade.Symbol != filter.Symbol {
			continue
		}
		if filter.ClosedSince != nil && (trade.ClosedAt == nil || trade.ClosedAt.Before(*filter.ClosedSince)) {
			continue
		}
		result = append(result, copyTrade(trade))
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}

	return result, nil
}

// ActiveUserKeys lists users holding at least one active trade
func (s *SimulatedTradeStore) ActiveUserKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, trade := range s.trades {
		if trade.IsActive() {
			seen[trade.UserKey] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func copyTrade(t *domain.SimulatedTrade) *domain.SimulatedTrade {
	c := *t
	c.StopLoss = copyPtr(t.StopLoss)
	c.TakeProfit = copyPtr(t.TakeProfit)
	c.AIConfidence = copyPtr(t.AIConfidence)
	c.ExitPrice = copyPtr(t.ExitPrice)
	c.RealizedPnL = copyPtr(t.RealizedPnL)
	c.ClosedBy = copyPtr(t.ClosedBy)
	c.ClosedAt = copyPtr(t.ClosedAt)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
