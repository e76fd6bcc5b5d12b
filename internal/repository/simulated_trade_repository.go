package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinpilot/internal/domain"
)

const simulatedTradeColumns = `
	id, user_key, request_id, symbol, type, amount, entry_price,
	stop_loss, take_profit, status, simulation_type, strategy,
	ai_confidence, exit_price, realized_pnl, closed_by, created_at, closed_at`

// SimulatedTradeRepositoryImpl implements the SimulatedTradeRepository interface
type SimulatedTradeRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSimulatedTradeRepository creates a new SimulatedTradeRepository
func NewSimulatedTradeRepository(db *pgxpool.Pool) domain.SimulatedTradeRepository {
	return &SimulatedTradeRepositoryImpl{db: db}
}

// Insert creates a new simulated trade. (user_key, request_id) is unique.
func (r *SimulatedTradeRepositoryImpl) Insert(ctx context.Context, trade *domain.SimulatedTrade) error {
	query := `
		INSERT INTO simulated_trades (` + simulatedTradeColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		ON CONFLICT (user_key, request_id) DO NOTHING
	`

	cmdTag, err := r.db.Exec(ctx, query,
		trade.ID,
		trade.UserKey,
		trade.RequestID,
		trade.Symbol,
		trade.Type,
		trade.Amount,
		trade.EntryPrice,
		trade.StopLoss,
		trade.TakeProfit,
		trade.Status,
		trade.SimulationType,
		trade.Strategy,
		trade.AIConfidence,
		trade.ExitPrice,
		trade.RealizedPnL,
		trade.ClosedBy,
		trade.CreatedAt,
		trade.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert simulated trade: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDuplicateRequest
	}

	return nil
}

// GetByID retrieves a trade by ID
func (r *SimulatedTradeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.SimulatedTrade, error) {
	query := `SELECT ` + simulatedTradeColumns + ` FROM simulated_trades WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulated trade by ID: %w", err)
	}

	return trade, nil
}

// GetByRequestID retrieves the trade created for a client request id
func (r *SimulatedTradeRepositoryImpl) GetByRequestID(ctx context.Context, userKey, requestID string) (*domain.SimulatedTrade, error) {
	query := `SELECT ` + simulatedTradeColumns + ` FROM simulated_trades WHERE user_key = $1 AND request_id = $2`

	trade, err := scanTrade(r.db.QueryRow(ctx, query, userKey, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulated trade by request ID: %w", err)
	}

	return trade, nil
}

// Update writes the closing fields. Only active rows are updated so the
// active -> closed transition cannot be reversed.
func (r *SimulatedTradeRepositoryImpl) Update(ctx context.Context, trade *domain.SimulatedTrade) error {
	query := `
		UPDATE simulated_trades
		SET status = $1,
		    exit_price = $2,
		    realized_pnl = $3,
		    closed_by = $4,
		    closed_at = $5
		WHERE id = $6 AND status = 'active'
	`

	cmdTag, err := r.db.Exec(ctx, query,
		trade.Status,
		trade.ExitPrice,
		trade.RealizedPnL,
		trade.ClosedBy,
		trade.ClosedAt,
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update simulated trade: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTradeAlreadyClosed
	}

	return nil
}

// Query retrieves trades matching filter, newest first
func (r *SimulatedTradeRepositoryImpl) Query(ctx context.Context, filter domain.TradeFilter) ([]*domain.SimulatedTrade, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserKey != "" {
		add("user_key = $%d", filter.UserKey)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Symbol != "" {
		add("symbol = $%d", filter.Symbol)
	}
	if filter.ClosedSince != nil {
		add("closed_at >= $%d", *filter.ClosedSince)
	}

	query := `SELECT ` + simulatedTradeColumns + ` FROM simulated_trades`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulated trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.SimulatedTrade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulated trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulated trades: %w", err)
	}

	return trades, nil
}

// ActiveUserKeys lists users holding at least one active trade
func (r *SimulatedTradeRepositoryImpl) ActiveUserKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT user_key
		FROM simulated_trades
		WHERE status = 'active'
		ORDER BY user_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

func scanTrade(row pgx.Row) (*domain.SimulatedTrade, error) {
	trade := &domain.SimulatedTrade{}
	err := row.Scan(
		&trade.ID,
		&trade.UserKey,
		&trade.RequestID,
		&trade.Symbol,
		&trade.Type,
		&trade.Amount,
		&trade.EntryPrice,
		&trade.StopLoss,
		&trade.TakeProfit,
		&trade.Status,
		&trade.SimulationType,
		&trade.Strategy,
		&trade.AIConfidence,
		&trade.ExitPrice,
		&trade.RealizedPnL,
		&trade.ClosedBy,
		&trade.CreatedAt,
		&trade.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return trade, nil
}
