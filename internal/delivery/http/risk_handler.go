package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"coinpilot/internal/delivery/http/dto"
	"coinpilot/internal/domain"
	"coinpilot/internal/middleware"
	"coinpilot/internal/service"
)

// RiskHandler handles risk settings, history and sizing
type RiskHandler struct {
	riskProfile *service.RiskProfileService
	snapshots   *service.RiskSnapshotService
	balance     float64
}

// NewRiskHandler creates a new RiskHandler
func NewRiskHandler(riskProfile *service.RiskProfileService, snapshots *service.RiskSnapshotService, balance float64) *RiskHandler {
	return &RiskHandler{
		riskProfile: riskProfile,
		snapshots:   snapshots,
		balance:     balance,
	}
}

// GetSettings GET /api/risk/settings
func (h *RiskHandler) GetSettings(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.riskProfile.GetSettings(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get risk settings", err)
	}
	return SuccessResponse(c, settings)
}

// UpdateSettings replaces the settings wholesale
// PUT /api/risk/settings
func (h *RiskHandler) UpdateSettings(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req domain.RiskSettings
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.riskProfile.UpdateSettings(ctx, userKey, req)
	if err != nil {
		return DomainErrorResponse(c, "Failed to update risk settings", err)
	}
	return SuccessMessageResponse(c, "Risk settings updated", settings)
}

// ResetSettings POST /api/risk/settings/reset
func (h *RiskHandler) ResetSettings(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.riskProfile.ResetSettings(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to reset risk settings", err)
	}
	return SuccessMessageResponse(c, "Risk settings reset", settings)
}

// GetHistory GET /api/risk/history
func (h *RiskHandler) GetHistory(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	history, err := h.riskProfile.GetHistory(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get risk history", err)
	}
	return SuccessResponse(c, history)
}

// TakeSnapshot records the current risk metrics
// POST /api/risk/history/snapshot
func (h *RiskHandler) TakeSnapshot(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	entry, err := h.snapshots.Snapshot(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to record risk snapshot", err)
	}
	return CreatedResponse(c, entry)
}

// ClearHistory DELETE /api/risk/history
func (h *RiskHandler) ClearHistory(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.riskProfile.ClearHistory(ctx, userKey); err != nil {
		return InternalServerErrorResponse(c, "Failed to clear risk history", err)
	}
	return SuccessMessageResponse(c, "Risk history cleared", nil)
}

// SuggestPositionSize POST /api/risk/position-size
func (h *RiskHandler) SuggestPositionSize(c echo.Context) error {
	userKey, err := middleware.GetUserKey(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.PositionSizeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Entry <= 0 {
		return BadRequestResponse(c, "Entry price must be positive")
	}
	if req.Balance <= 0 {
		req.Balance = h.balance
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.riskProfile.GetSettings(ctx, userKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get risk settings", err)
	}

	units := h.riskProfile.SuggestPositionSize(settings, req.Balance, req.Entry, req.Stop)
	return SuccessResponse(c, dto.PositionSizeOutput{
		Units:    units,
		Notional: units * req.Entry,
		Rule:     settings.PositionSizeCalculation,
	})
}
