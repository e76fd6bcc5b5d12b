package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinpilot/internal/domain"
)

// Keys used in the user_settings table
const (
	settingKeyRisk        = "risk_settings"
	settingKeyRiskHistory = "risk_history"
)

// RiskSettingsRepositoryImpl stores risk settings and history as JSON documents keyed by user
type RiskSettingsRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewRiskSettingsRepository creates a new repository instance
func NewRiskSettingsRepository(db *pgxpool.Pool) domain.RiskSettingsRepository {
	return &RiskSettingsRepositoryImpl{db: db}
}

// GetSettings returns nil when the user has no stored settings
func (r *RiskSettingsRepositoryImpl) GetSettings(ctx context.Context, userKey string) (*domain.RiskSettings, error) {
	raw, err := r.get(ctx, userKey, settingKeyRisk)
	if err != nil || raw == nil {
		return nil, err
	}

	var settings domain.RiskSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode risk settings: %w", err)
	}

	return &settings, nil
}

// PutSettings replaces the stored settings
func (r *RiskSettingsRepositoryImpl) PutSettings(ctx context.Context, userKey string, settings domain.RiskSettings) error {
	return r.set(ctx, userKey, settingKeyRisk, settings)
}

// DeleteSettings clears stored overrides
func (r *RiskSettingsRepositoryImpl) DeleteSettings(ctx context.Context, userKey string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM user_settings
		WHERE user_key = $1 AND key = $2
	`, userKey, settingKeyRisk)
	if err != nil {
		return fmt.Errorf("failed to delete risk settings: %w", err)
	}

	return nil
}

// GetHistory returns the stored history, newest first
func (r *RiskSettingsRepositoryImpl) GetHistory(ctx context.Context, userKey string) ([]domain.RiskHistoryEntry, error) {
	raw, err := r.get(ctx, userKey, settingKeyRiskHistory)
	if err != nil || raw == nil {
		return nil, err
	}

	var history []domain.RiskHistoryEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to decode risk history: %w", err)
	}

	return history, nil
}

// PutHistory replaces the stored history
func (r *RiskSettingsRepositoryImpl) PutHistory(ctx context.Context, userKey string, history []domain.RiskHistoryEntry) error {
	if history == nil {
		history = []domain.RiskHistoryEntry{}
	}
	return r.set(ctx, userKey, settingKeyRiskHistory, history)
}

func (r *RiskSettingsRepositoryImpl) get(ctx context.Context, userKey, key string) ([]byte, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT value
		FROM user_settings
		WHERE user_key = $1 AND key = $2
	`, userKey, key).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return raw, nil
}

func (r *RiskSettingsRepositoryImpl) set(ctx context.Context, userKey, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_settings (user_key, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (user_key, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`, userKey, key, string(payload))
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}
