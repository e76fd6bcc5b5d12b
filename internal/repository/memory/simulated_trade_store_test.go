package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"coinpilot/internal/domain"
)

func newTrade(userKey, requestID, symbol string) *domain.SimulatedTrade {
	return &domain.SimulatedTrade{
		ID:         uuid.New(),
		UserKey:    userKey,
		RequestID:  requestID,
		Symbol:     symbol,
		Type:       domain.TradeLong,
		Amount:     1,
		EntryPrice: 100,
		Status:     domain.TradeStatusActive,
		CreatedAt:  time.Now(),
	}
}

func TestInsertRejectsDuplicateRequestID(t *testing.T) {
	ctx := context.Background()
	store := NewSimulatedTradeStore()

	if err := store.Insert(ctx, newTrade("alice", "req-1", "BTCUSDT")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := store.Insert(ctx, newTrade("alice", "req-1", "BTCUSDT"))
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	// Same request id for another user is fine
	if err := store.Insert(ctx, newTrade("bob", "req-1", "BTCUSDT")); err != nil {
		t.Fatalf("Insert for other user: %v", err)
	}
}

func TestUpdateIsOneDirectional(t *testing.T) {
	ctx := context.Background()
	store := NewSimulatedTradeStore()
	trade := newTrade("alice", "req-1", "BTCUSDT")
	_ = store.Insert(ctx, trade)

	if err := trade.Close(110, domain.ClosedByManual, time.Now()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Update(ctx, trade); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reopened := *trade
	reopened.Status = domain.TradeStatusActive
	if err := store.Update(ctx, &reopened); !errors.Is(err, domain.ErrTradeAlreadyClosed) {
		t.Fatalf("expected ErrTradeAlreadyClosed, got %v", err)
	}

	stored, _ := store.GetByID(ctx, trade.ID)
	if stored.Status != domain.TradeStatusClosed {
		t.Errorf("status = %s, want closed", stored.Status)
	}
}

func TestQueryFiltersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewSimulatedTradeStore()

	first := newTrade("alice", "a", "BTCUSDT")
	second := newTrade("alice", "b", "ETHUSDT")
	other := newTrade("bob", "c", "BTCUSDT")
	for _, tr := range []*domain.SimulatedTrade{first, second, other} {
		_ = store.Insert(ctx, tr)
	}

	trades, _ := store.Query(ctx, domain.TradeFilter{UserKey: "alice"})
	if len(trades) != 2 || trades[0].ID != second.ID || trades[1].ID != first.ID {
		t.Fatalf("unexpected query result: %+v", trades)
	}

	trades, _ = store.Query(ctx, domain.TradeFilter{Symbol: "BTCUSDT", Limit: 1})
	if len(trades) != 1 || trades[0].ID != other.ID {
		t.Fatalf("expected newest BTCUSDT trade, got %+v", trades)
	}

	keys, _ := store.ActiveUserKeys(ctx)
	if len(keys) != 2 || keys[0] != "alice" || keys[1] != "bob" {
		t.Errorf("ActiveUserKeys() = %v", keys)
	}
}

func TestReturnedTradesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSimulatedTradeStore()
	trade := newTrade("alice", "a", "BTCUSDT")
	_ = store.Insert(ctx, trade)

	got, _ := store.GetByID(ctx, trade.ID)
	got.Amount = 99

	again, _ := store.GetByID(ctx, trade.ID)
	if again.Amount != 1 {
		t.Errorf("store was mutated through returned pointer: amount = %v", again.Amount)
	}
}
