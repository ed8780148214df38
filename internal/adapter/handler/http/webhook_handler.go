package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	"go.uber.org/zap"
)

// WebhookResyncer reloads local subscription rows after Stripe events
type WebhookResyncer interface {
	ResyncByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	ResyncBySchedule(ctx context.Context, scheduleID string) (*model.Subscription, error)
}

type WebhookHandler struct {
	resyncer      WebhookResyncer
	webhookSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(resyncer WebhookResyncer, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		resyncer:      resyncer,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook handles POST /webhook. Stripe retries on non-2xx, so only
// processor failures are reported back; everything else is acknowledged.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook signature verification failed"})
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)))

	ctx := c.Request().Context()
	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.logger.Error("Error parsing subscription", zap.String("event_id", event.ID), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}
		_, err = h.resyncer.ResyncByStripeSubscription(ctx, sub.ID)
		err = h.eventError(event, err, zap.String("subscription_id", sub.ID))

	case stripe.EventTypeSubscriptionScheduleReleased, stripe.EventTypeSubscriptionScheduleCanceled:
		var schedule stripe.SubscriptionSchedule
		if err := json.Unmarshal(event.Data.Raw, &schedule); err != nil {
			h.logger.Error("Error parsing subscription schedule", zap.String("event_id", event.ID), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}
		_, err = h.resyncer.ResyncBySchedule(ctx, schedule.ID)
		err = h.eventError(event, err, zap.String("schedule_id", schedule.ID))

	default:
		h.logger.Debug("Ignoring webhook event", zap.String("type", string(event.Type)))
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// eventError logs a resync failure and returns it only when Stripe itself
// failed and a retry could succeed
func (h *WebhookHandler) eventError(event stripe.Event, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	fields = append(fields,
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)))
	apperrors.LogError(h.logger, err, "Failed to resync from webhook", fields...)

	if apperrors.CodeOf(err) == apperrors.ErrUpstream {
		return err
	}
	return nil
}
