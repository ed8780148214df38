package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	"go.uber.org/zap"
)

// Reconciler is the subset of usecase.BillingReconciler used by BillingHandler
type Reconciler interface {
	Authorize(ctx context.Context, accountID string, caller usecase.Caller) (*model.Account, error)
	Reactivate(ctx context.Context, accountID, subscriptionID string) (*usecase.ReconcileResult, error)
	CancelScheduledChange(ctx context.Context, accountID, scheduleID string) (*usecase.ReconcileResult, error)
	SyncProfile(ctx context.Context, accountID string) (*usecase.ProfileSyncResult, error)
	Resync(ctx context.Context, accountID string) (*model.Subscription, error)
	DebugSubscription(ctx context.Context, accountID string) (*usecase.SubscriptionDiagnostics, error)
	DebugCustomer(ctx context.Context, accountID string) (*usecase.CustomerDiagnostics, error)
}

type BillingHandler struct {
	reconciler Reconciler
	logger     *zap.Logger
}

func NewBillingHandler(reconciler Reconciler, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

type reactivateRequest struct {
	AccountID      string `json:"accountId" validate:"required,uuid"`
	SubscriptionID string `json:"subscriptionId"`
}

type cancelScheduledChangeRequest struct {
	AccountID  string `json:"accountId" validate:"required,uuid"`
	ScheduleID string `json:"scheduleId"`
}

type accountRequest struct {
	AccountID string `json:"accountId" validate:"required,uuid"`
}

type debugRequest struct {
	AccountID string `query:"accountId" validate:"required,uuid"`
}

type billingResponse struct {
	Success       bool                `json:"success"`
	Subscription  *model.Subscription `json:"subscription,omitempty"`
	Customer      *provider.Customer  `json:"customer,omitempty"`
	Created       bool                `json:"created,omitempty"`
	ResyncPending bool                `json:"resync_pending"`
	Message       string              `json:"message"`
}

func (r reactivateRequest) scopedAccountID() string            { return r.AccountID }
func (r cancelScheduledChangeRequest) scopedAccountID() string { return r.AccountID }
func (r accountRequest) scopedAccountID() string               { return r.AccountID }
func (r debugRequest) scopedAccountID() string                 { return r.AccountID }

type accountScoped interface {
	scopedAccountID() string
}

// authorize binds and validates req, then checks that the caller may act
// on the account it names
func (h *BillingHandler) authorize(c echo.Context, req accountScoped) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return errAuthRequired
	}
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	_, err = h.reconciler.Authorize(c.Request().Context(), req.scopedAccountID(), callerFrom(user))
	return err
}

// Reactivate handles POST /api/billing/reactivate
func (h *BillingHandler) Reactivate(c echo.Context) error {
	var req reactivateRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	result, err := h.reconciler.Reactivate(c.Request().Context(), req.AccountID, req.SubscriptionID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reactivate subscription",
			zap.String("account_id", req.AccountID))
	}

	return c.JSON(http.StatusOK, billingResponse{
		Success:       true,
		Subscription:  result.Subscription,
		ResyncPending: result.ResyncPending,
		Message:       "Subscription reactivated",
	})
}

// CancelScheduledChange handles POST /api/billing/cancel-scheduled-change
func (h *BillingHandler) CancelScheduledChange(c echo.Context) error {
	var req cancelScheduledChangeRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	result, err := h.reconciler.CancelScheduledChange(c.Request().Context(), req.AccountID, req.ScheduleID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to cancel scheduled plan change",
			zap.String("account_id", req.AccountID))
	}

	return c.JSON(http.StatusOK, billingResponse{
		Success:       true,
		Subscription:  result.Subscription,
		ResyncPending: result.ResyncPending,
		Message:       "Scheduled plan change cancelled",
	})
}

// SyncProfile handles POST /api/billing/sync-profile
func (h *BillingHandler) SyncProfile(c echo.Context) error {
	var req accountRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	result, err := h.reconciler.SyncProfile(c.Request().Context(), req.AccountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to sync billing profile",
			zap.String("account_id", req.AccountID))
	}

	return c.JSON(http.StatusOK, billingResponse{
		Success:       true,
		Customer:      result.Customer,
		Created:       result.Created,
		ResyncPending: result.ResyncPending,
		Message:       "Billing profile synced",
	})
}

// Resync handles POST /api/billing/resync
func (h *BillingHandler) Resync(c echo.Context) error {
	var req accountRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	sub, err := h.reconciler.Resync(c.Request().Context(), req.AccountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to resync subscription",
			zap.String("account_id", req.AccountID))
	}

	return c.JSON(http.StatusOK, billingResponse{
		Success:      true,
		Subscription: sub,
		Message:      "Subscription resynced",
	})
}

// DebugSubscription handles GET /api/billing/debug/subscription
func (h *BillingHandler) DebugSubscription(c echo.Context) error {
	var req debugRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	diag, err := h.reconciler.DebugSubscription(c.Request().Context(), req.AccountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to inspect subscription",
			zap.String("account_id", req.AccountID))
	}
	return c.JSON(http.StatusOK, diag)
}

// DebugCustomer handles GET /api/billing/debug/customer
func (h *BillingHandler) DebugCustomer(c echo.Context) error {
	var req debugRequest
	if err := h.authorize(c, &req); err != nil {
		return respondError(c, h.logger, err, "Billing request rejected",
			zap.String("account_id", req.AccountID))
	}

	diag, err := h.reconciler.DebugCustomer(c.Request().Context(), req.AccountID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to inspect customer",
			zap.String("account_id", req.AccountID))
	}
	return c.JSON(http.StatusOK, diag)
}
