package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"go.uber.org/zap"
)

// EntitlementResolver resolves plan entitlements for a signed-in owner
type EntitlementResolver interface {
	Resolve(ctx context.Context, ownerID string) (*entity.Entitlements, error)
	ResolveOwner(ctx context.Context, ownerID string) (*model.Account, *entity.Entitlements, error)
}

type EntitlementsHandler struct {
	resolver EntitlementResolver
	logger   *zap.Logger
}

func NewEntitlementsHandler(resolver EntitlementResolver, logger *zap.Logger) *EntitlementsHandler {
	return &EntitlementsHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// GetEntitlements handles GET /api/entitlements
func (h *EntitlementsHandler) GetEntitlements(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return respondError(c, h.logger, errAuthRequired, "Entitlements requested without session")
	}

	ent, err := h.resolver.Resolve(c.Request().Context(), user.UserID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to resolve entitlements",
			zap.String("user_id", user.UserID))
	}
	return c.JSON(http.StatusOK, ent)
}
