package memory

import (
	"context"
	"sync"

	"coinpilot/internal/domain"
)

// RiskSettingsStore is a map-backed RiskSettingsRepository
type RiskSettingsStore struct {
	mu       sync.RWMutex
	settings map[string]domain.RiskSettings
	history  map[string][]domain.RiskHistoryEntry

	// FailPut, when set, is returned by PutSettings
	FailPut error
}

// NewRiskSettingsStore creates an empty store
func NewRiskSettingsStore() *RiskSettingsStore {
	return &RiskSettingsStore{
		settings: make(map[string]domain.RiskSettings),
		history:  make(map[string][]domain.RiskHistoryEntry),
	}
}

// GetSettings returns nil when nothing is stored for userKey
func (s *RiskSettingsStore) GetSettings(ctx context.Context, userKey string) (*domain.RiskSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userKey]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

// PutSettings replaces the stored settings
func (s *RiskSettingsStore) PutSettings(ctx context.Context, userKey string, settings domain.RiskSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return s.FailPut
	}
	s.settings[userKey] = settings
	return nil
}

// DeleteSettings clears stored overrides
func (s *RiskSettingsStore) DeleteSettings(ctx context.Context, userKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.settings, userKey)
	return nil
}

// GetHistory returns a copy of the stored history
func (s *RiskSettingsStore) GetHistory(ctx context.Context, userKey string) ([]domain.RiskHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.RiskHistoryEntry(nil), s.history[userKey]...), nil
}

// PutHistory replaces the stored history
func (s *RiskSettingsStore) PutHistory(ctx context.Context, userKey string, history []domain.RiskHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[userKey] = append([]domain.RiskHistoryEntry(nil), history...)
	return nil
}
