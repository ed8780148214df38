package usecase

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/mailshield/pkg/messaging"
	"go.uber.org/zap"
)

// Resyncer reloads the billing state named by a resync event from Stripe
type Resyncer interface {
	Resync(ctx context.Context, event ResyncEvent) error
}

// ResyncerFunc adapts a function to Resyncer
type ResyncerFunc func(ctx context.Context, event ResyncEvent) error

func (f ResyncerFunc) Resync(ctx context.Context, event ResyncEvent) error {
	return f(ctx, event)
}

// ReconcilerResyncer restores the customer id for profile events and resyncs
// the subscription row for everything else
func ReconcilerResyncer(r *BillingReconciler) Resyncer {
	return ResyncerFunc(func(ctx context.Context, event ResyncEvent) error {
		if event.Operation == ResyncOperationSyncProfile {
			_, err := r.ResyncProfile(ctx, event.AccountID, event.CustomerID)
			return err
		}
		_, err := r.Resync(ctx, event.AccountID)
		return err
	})
}

// ResyncWorker consumes billing.resync events and reruns the resync for the
// named account.
type ResyncWorker struct {
	bus      messaging.Bus
	resyncer Resyncer
	logger   *zap.Logger
}

func NewResyncWorker(bus messaging.Bus, resyncer Resyncer, logger *zap.Logger) *ResyncWorker {
	return &ResyncWorker{bus: bus, resyncer: resyncer, logger: logger}
}

// Run blocks until ctx is done or the subscription closes
func (w *ResyncWorker) Run(ctx context.Context) error {
	messages, err := w.bus.Subscribe(ctx, ResyncChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ResyncChannel, err)
	}
	w.logger.Info("Resync worker started", zap.String("channel", ResyncChannel))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *ResyncWorker) handle(ctx context.Context, msg messaging.Message) {
	var event ResyncEvent
	if err := msg.Decode(&event); err != nil {
		w.logger.Warn("Dropping malformed resync event", zap.Error(err))
		return
	}
	if event.AccountID == "" {
		w.logger.Warn("Dropping resync event without account id")
		return
	}

	if err := w.resyncer.Resync(ctx, event); err != nil {
		w.logger.Error("Resync failed",
			zap.String("account_id", event.AccountID),
			zap.String("reason", event.Reason),
			zap.String("operation", event.Operation),
			zap.Error(err))
		return
	}
	w.logger.Info("Resync completed",
		zap.String("account_id", event.AccountID),
		zap.String("operation", event.Operation))
}
