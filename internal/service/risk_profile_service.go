package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/internal/domain"
)

// RiskProfileService manages per-user risk settings and the risk history
type RiskProfileService struct {
	repo     domain.RiskSettingsRepository
	notifier domain.Notifier
	now      func() time.Time
	logger   zerolog.Logger

	historyMu sync.Mutex
}

// NewRiskProfileService creates a new RiskProfileService
func NewRiskProfileService(repo domain.RiskSettingsRepository, notifier domain.Notifier) *RiskProfileService {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &RiskProfileService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		logger:   log.With().Str("component", "risk_profile").Logger(),
	}
}

// GetSettings returns the user's settings, persisting the defaults on first access
func (s *RiskProfileService) GetSettings(ctx context.Context, userKey string) (domain.RiskSettings, error) {
	stored, err := s.repo.GetSettings(ctx, userKey)
	if err != nil {
		return domain.RiskSettings{}, fmt.Errorf("failed to load risk settings: %w", err)
	}
	if stored != nil {
		return *stored, nil
	}

	defaults := domain.DefaultRiskSettings()
	if err := s.repo.PutSettings(ctx, userKey, defaults); err != nil {
		// Defaults are still usable even if they could not be stored
		s.logger.Warn().Err(err).Str("user", userKey).Msg("Failed to persist default risk settings")
	}
	return defaults, nil
}

// UpdateSettings replaces the user's settings wholesale
func (s *RiskProfileService) UpdateSettings(ctx context.Context, userKey string, settings domain.RiskSettings) (domain.RiskSettings, error) {
	if err := settings.Validate(); err != nil {
		return domain.RiskSettings{}, err
	}

	if err := s.repo.PutSettings(ctx, userKey, settings); err != nil {
		s.notifier.Notify(domain.Notification{
			Title:       "Risk settings not saved",
			Description: err.Error(),
			Severity:    domain.SeverityError,
		})
		return domain.RiskSettings{}, fmt.Errorf("failed to save risk settings: %w", err)
	}

	s.logger.Info().Str("user", userKey).Str("risk_level", settings.RiskLevel).Msg("Risk settings updated")
	s.notifier.Notify(domain.Notification{
		Title:       "Risk settings updated",
		Description: fmt.Sprintf("Risk level %s, sizing %s", settings.RiskLevel, settings.PositionSizeCalculation),
		Severity:    domain.SeveritySuccess,
	})
	return settings, nil
}

// ResetSettings clears stored overrides and returns the defaults. Calling it twice yields the same result.
func (s *RiskProfileService) ResetSettings(ctx context.Context, userKey string) (domain.RiskSettings, error) {
	if err := s.repo.DeleteSettings(ctx, userKey); err != nil {
		return domain.RiskSettings{}, fmt.Errorf("failed to reset risk settings: %w", err)
	}

	s.logger.Info().Str("user", userKey).Msg("Risk settings reset")
	s.notifier.Notify(domain.Notification{
		Title:       "Risk settings reset",
		Description: "Default risk profile restored",
		Severity:    domain.SeverityInfo,
	})
	return domain.DefaultRiskSettings(), nil
}

// AddHistoryEntry records a snapshot at the front of the history, evicting the oldest
// entries beyond MaxRiskHistoryEntries.
func (s *RiskProfileService) AddHistoryEntry(ctx context.Context, userKey string, metrics []domain.RiskMetric) (domain.RiskHistoryEntry, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	history, err := s.repo.GetHistory(ctx, userKey)
	if err != nil {
		return domain.RiskHistoryEntry{}, fmt.Errorf("failed to load risk history: %w", err)
	}

	entry := domain.RiskHistoryEntry{
		Date:    s.now(),
		Metrics: append([]domain.RiskMetric(nil), metrics...),
	}

	updated := make([]domain.RiskHistoryEntry, 0, len(history)+1)
	updated = append(updated, entry)
	updated = append(updated, history...)
	if len(updated) > domain.MaxRiskHistoryEntries {
		updated = updated[:domain.MaxRiskHistoryEntries]
	}

	if err := s.repo.PutHistory(ctx, userKey, updated); err != nil {
		return domain.RiskHistoryEntry{}, fmt.Errorf("failed to save risk history: %w", err)
	}
	return entry, nil
}

// GetHistory returns the risk history, newest first
func (s *RiskProfileService) GetHistory(ctx context.Context, userKey string) ([]domain.RiskHistoryEntry, error) {
	history, err := s.repo.GetHistory(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk history: %w", err)
	}
	if history == nil {
		history = []domain.RiskHistoryEntry{}
	}
	return history, nil
}

// ClearHistory removes all history entries
func (s *RiskProfileService) ClearHistory(ctx context.Context, userKey string) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if err := s.repo.PutHistory(ctx, userKey, nil); err != nil {
		return fmt.Errorf("failed to clear risk history: %w", err)
	}
	return nil
}

// SuggestPositionSize returns a position size in base units for an entry at the given price.
// The notional never exceeds MaxPositionSize. risk_based sizing falls back to percentage
// sizing when no stop distance is available.
func (s *RiskProfileService) SuggestPositionSize(settings domain.RiskSettings, balance, entry, stop float64) float64 {
	if entry <= 0 || balance <= 0 {
		return 0
	}

	var units float64
	switch settings.PositionSizeCalculation {
	case domain.SizingFixed:
		units = settings.MaxPositionSize / entry
	case domain.SizingRiskBased:
		distance := math.Abs(entry - stop)
		if stop > 0 && distance > 0 {
			units = balance * settings.RiskPerTrade() / distance
		} else {
			units = balance * settings.PortfolioAllocationLimit / 100 / entry
		}
	default:
		units = balance * settings.PortfolioAllocationLimit / 100 / entry
	}

	if maxUnits := settings.MaxPositionSize / entry; units > maxUnits {
		units = maxUnits
	}
	return units
}
