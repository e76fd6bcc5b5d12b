package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TradeFilter narrows a simulated trade query. Zero values mean "any".
type TradeFilter struct {
	UserKey     string
	Status      string
	Symbol      string
	ClosedSince *time.Time
	Limit       int
}

// SimulatedTradeRepository defines the persistence contract for simulated trades
type SimulatedTradeRepository interface {
	// Insert persists a new trade. Returns ErrDuplicateRequest when
	// (UserKey, RequestID) was already used.
	Insert(ctx context.Context, trade *SimulatedTrade) error

	// GetByID retrieves a trade by ID, ErrTradeNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (*SimulatedTrade, error)

	// GetByRequestID retrieves the trade created by a given client request id
	GetByRequestID(ctx context.Context, userKey, requestID string) (*SimulatedTrade, error)

	// Update writes the closing fields (status, exit price, realized pnl, closed_by, closed_at)
	Update(ctx context.Context, trade *SimulatedTrade) error

	// Query returns trades matching filter, newest first
	Query(ctx context.Context, filter TradeFilter) ([]*SimulatedTrade, error)

	// ActiveUserKeys lists users that currently hold at least one active trade
	ActiveUserKeys(ctx context.Context) ([]string, error)
}

// RiskSettingsRepository defines the persistence contract for user-scoped risk data
type RiskSettingsRepository interface {
	// GetSettings returns (nil, nil) when the user has no stored settings
	GetSettings(ctx context.Context, userKey string) (*RiskSettings, error)

	// PutSettings replaces the stored settings
	PutSettings(ctx context.Context, userKey string, settings RiskSettings) error

	// DeleteSettings clears stored overrides
	DeleteSettings(ctx context.Context, userKey string) error

	// GetHistory returns the stored history, newest first
	GetHistory(ctx context.Context, userKey string) ([]RiskHistoryEntry, error)

	// PutHistory replaces the stored history
	PutHistory(ctx context.Context, userKey string, history []RiskHistoryEntry) error
}
