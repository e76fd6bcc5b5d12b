package domain

import "time"

// RiskLevel constants
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// Position size calculation rules
const (
	SizingFixed      = "fixed"
	SizingPercentage = "percentage"
	SizingRiskBased  = "risk_based"
)

// RiskMetric status constants
const (
	MetricLow    = "low"
	MetricMedium = "medium"
	MetricHigh   = "high"
)

// MaxRiskHistoryEntries caps the stored risk history; older entries are evicted first
const MaxRiskHistoryEntries = 30

// RiskSettings holds the user-configured risk profile
type RiskSettings struct {
	RiskLevel                string  `json:"risk_level"`
	PositionSizeCalculation  string  `json:"position_size_calculation"`
	RiskRewardTarget         float64 `json:"risk_reward_target"`
	PortfolioAllocationLimit float64 `json:"portfolio_allocation_limit"` // percent of balance
	MaxPositionSize          float64 `json:"max_position_size"`          // quote currency
	DailyLossNotification    bool    `json:"daily_loss_notification"`
	DailyLossLimit           float64 `json:"daily_loss_limit"` // quote currency, used when notifications are on
}

// DefaultRiskSettings returns the settings used on first access and after a reset
func DefaultRiskSettings() RiskSettings {
	return RiskSettings{
		RiskLevel:                RiskModerate,
		PositionSizeCalculation:  SizingPercentage,
		RiskRewardTarget:         2.0,
		PortfolioAllocationLimit: 25,
		MaxPositionSize:          1000,
		DailyLossNotification:    true,
		DailyLossLimit:           100,
	}
}

// Validate rejects malformed settings before they reach the store
func (s RiskSettings) Validate() error {
	switch s.RiskLevel {
	case RiskConservative, RiskModerate, RiskAggressive:
	default:
		return &InvalidSettingsError{Field: "risk_level", Reason: "must be conservative, moderate or aggressive"}
	}

	switch s.PositionSizeCalculation {
	case SizingFixed, SizingPercentage, SizingRiskBased:
	default:
		return &InvalidSettingsError{Field: "position_size_calculation", Reason: "must be fixed, percentage or risk_based"}
	}

	if s.RiskRewardTarget <= 0 {
		return &InvalidSettingsError{Field: "risk_reward_target", Reason: "must be positive"}
	}
	if s.PortfolioAllocationLimit <= 0 || s.PortfolioAllocationLimit > 100 {
		return &InvalidSettingsError{Field: "portfolio_allocation_limit", Reason: "must be in (0, 100]"}
	}
	if s.MaxPositionSize <= 0 {
		return &InvalidSettingsError{Field: "max_position_size", Reason: "must be positive"}
	}
	if s.DailyLossLimit < 0 {
		return &InvalidSettingsError{Field: "daily_loss_limit", Reason: "must not be negative"}
	}
	return nil
}

// RiskPerTrade is the fraction of balance put at risk per trade for the risk level
func (s RiskSettings) RiskPerTrade() float64 {
	switch s.RiskLevel {
	case RiskConservative:
		return 0.01
	case RiskAggressive:
		return 0.05
	default:
		return 0.02
	}
}

// RiskMetric is one named measurement inside a risk snapshot
type RiskMetric struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	MaxValue float64 `json:"maxValue"`
	Status   string  `json:"status"`
}

// RiskHistoryEntry is an immutable snapshot of risk metrics
type RiskHistoryEntry struct {
	Date    time.Time    `json:"date"`
	Metrics []RiskMetric `json:"metrics"`
}
