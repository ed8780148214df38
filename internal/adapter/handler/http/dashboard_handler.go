package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"go.uber.org/zap"
)

// StatsProvider computes the headline dashboard counters
type StatsProvider interface {
	Stats(ctx context.Context, accountID string) (*entity.DashboardStats, error)
}

// ThreatSeries computes threat charts
type ThreatSeries interface {
	History(ctx context.Context, accountID, mode string) ([]entity.ThreatPoint, error)
	Categories(ctx context.Context, accountID, mode string) ([]entity.CategoryCount, error)
}

// DashboardHandler serves the analytics dashboard. Every endpoint requires
// the security analytics entitlement.
type DashboardHandler struct {
	resolver EntitlementResolver
	stats    StatsProvider
	threats  ThreatSeries
	logger   *zap.Logger
}

func NewDashboardHandler(resolver EntitlementResolver, stats StatsProvider, threats ThreatSeries, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		resolver: resolver,
		stats:    stats,
		threats:  threats,
		logger:   logger,
	}
}

type threatsResponse struct {
	Mode string      `json:"mode"`
	Data interface{} `json:"data"`
}

// analyticsAccount returns the caller's account once the analytics
// entitlement is confirmed
func (h *DashboardHandler) analyticsAccount(c echo.Context) (*model.Account, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return nil, errAuthRequired
	}

	account, ent, err := h.resolver.ResolveOwner(c.Request().Context(), user.UserID)
	if err != nil {
		return nil, err
	}
	if !ent.HasSecurityAnalyticsAccess {
		return nil, domainErrors.ErrFeatureNotInPlan
	}
	return account, nil
}

// Stats handles GET /api/dashboard/stats
func (h *DashboardHandler) Stats(c echo.Context) error {
	account, err := h.analyticsAccount(c)
	if err != nil {
		return respondError(c, h.logger, err, "Dashboard stats rejected")
	}

	stats, err := h.stats.Stats(c.Request().Context(), account.ID.String())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compute dashboard stats",
			zap.String("account_id", account.ID.String()))
	}
	return c.JSON(http.StatusOK, stats)
}

// ThreatHistory handles GET /api/dashboard/threats/history
func (h *DashboardHandler) ThreatHistory(c echo.Context) error {
	account, err := h.analyticsAccount(c)
	if err != nil {
		return respondError(c, h.logger, err, "Threat history rejected")
	}

	mode := modeParam(c)
	points, err := h.threats.History(c.Request().Context(), account.ID.String(), mode)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build threat history",
			zap.String("account_id", account.ID.String()),
			zap.String("mode", mode))
	}
	return c.JSON(http.StatusOK, threatsResponse{Mode: mode, Data: points})
}

// ThreatCategories handles GET /api/dashboard/threats/categories
func (h *DashboardHandler) ThreatCategories(c echo.Context) error {
	account, err := h.analyticsAccount(c)
	if err != nil {
		return respondError(c, h.logger, err, "Threat categories rejected")
	}

	mode := modeParam(c)
	categories, err := h.threats.Categories(c.Request().Context(), account.ID.String(), mode)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build threat categories",
			zap.String("account_id", account.ID.String()),
			zap.String("mode", mode))
	}
	return c.JSON(http.StatusOK, threatsResponse{Mode: mode, Data: categories})
}

func modeParam(c echo.Context) string {
	if mode := c.QueryParam("mode"); mode != "" {
		return mode
	}
	return entity.ModeWeekly
}
