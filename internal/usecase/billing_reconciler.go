package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	"github.com/wekeepgrowing/mailshield/pkg/messaging"
	"go.uber.org/zap"
)

// ResyncChannel carries ResyncEvent messages
const ResyncChannel = "billing.resync"

// ResyncReasonWriteBackFailed marks events published after a failed local save
const ResyncReasonWriteBackFailed = "write_back_failed"

// ResyncOperationSyncProfile marks events whose Stripe customer id was not
// saved on the account
const ResyncOperationSyncProfile = "sync_profile"

// ResyncEvent asks a worker to reload an account's billing state from Stripe.
// CustomerID is set when the lost write was the account's customer id.
type ResyncEvent struct {
	AccountID  string `json:"account_id"`
	Reason     string `json:"reason"`
	Operation  string `json:"operation,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// Caller identifies who invokes a reconciliation operation. Service role
// callers may act on any account.
type Caller struct {
	UserID      string
	ServiceRole bool
}

// ReconcileResult is returned by operations that mutate Stripe first and
// write the result back locally.
type ReconcileResult struct {
	Subscription  *model.Subscription
	ResyncPending bool
}

// ProfileSyncResult is the outcome of SyncProfile
type ProfileSyncResult struct {
	Customer      *provider.Customer
	Created       bool
	ResyncPending bool
}

// SubscriptionDiagnostics compares the local row with Stripe
type SubscriptionDiagnostics struct {
	Local       *model.Subscription    `json:"local"`
	Stripe      *provider.Subscription `json:"stripe,omitempty"`
	StripeError string                 `json:"stripeError,omitempty"`
	Derived     entity.PeriodState     `json:"derived"`
	InSync      bool                   `json:"inSync"`
	Mismatches  []string               `json:"mismatches,omitempty"`
}

// CustomerDiagnostics compares the local billing profile with Stripe
type CustomerDiagnostics struct {
	Account     *model.Account           `json:"account"`
	Profile     provider.CustomerProfile `json:"profile"`
	Stripe      *provider.Customer       `json:"stripe,omitempty"`
	StripeError string                   `json:"stripeError,omitempty"`
}

// BillingReconciler keeps local subscription rows consistent with Stripe.
// Stripe is authoritative: every operation calls it first and the local
// write-back is best effort, followed by a published resync event on failure.
type BillingReconciler struct {
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	billing       provider.BillingProvider
	catalog       *PlanCatalog
	publisher     messaging.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

func NewBillingReconciler(
	accounts repository.AccountRepository,
	subscriptions repository.SubscriptionRepository,
	billing provider.BillingProvider,
	catalog *PlanCatalog,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *BillingReconciler {
	return &BillingReconciler{
		accounts:      accounts,
		subscriptions: subscriptions,
		billing:       billing,
		catalog:       catalog,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

// Authorize loads the account and checks that the caller may act on it
func (r *BillingReconciler) Authorize(ctx context.Context, accountID string, caller Caller) (*model.Account, error) {
	account, err := r.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !caller.ServiceRole && !account.OwnedBy(caller.UserID) {
		r.logger.Warn("Caller does not own account",
			zap.String("account_id", accountID),
			zap.String("user_id", caller.UserID))
		return nil, domainErrors.ErrAccountForbidden
	}
	return account, nil
}

// Reactivate clears cancel-at-period-end in Stripe and writes the returned
// status, cancel flag and period back to the local row.
func (r *BillingReconciler) Reactivate(ctx context.Context, accountID, subscriptionID string) (*ReconcileResult, error) {
	sub, err := r.loadSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stripeID, err := resolveSubscriptionID(sub, subscriptionID)
	if err != nil {
		return nil, err
	}

	remote, err := r.billing.ResumeSubscription(ctx, stripeID)
	if err != nil {
		return nil, r.processorError("reactivate", accountID, err, domainErrors.ErrSubscriptionNotFound)
	}

	sub.StripeSubscriptionID = &stripeID
	sub.Status = model.SubscriptionStatus(remote.Status)
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	applyPeriod(sub, remote)

	r.logger.Info("Subscription reactivated",
		zap.String("account_id", accountID),
		zap.String("subscription_id", stripeID),
		zap.String("status", remote.Status))

	return &ReconcileResult{
		Subscription:  sub,
		ResyncPending: r.writeBack(ctx, accountID, "reactivate", sub),
	}, nil
}

// CancelScheduledChange releases the pending Stripe schedule and clears the
// scheduled plan change locally. scheduleID falls back to the local row.
func (r *BillingReconciler) CancelScheduledChange(ctx context.Context, accountID, scheduleID string) (*ReconcileResult, error) {
	sub, err := r.loadSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if scheduleID == "" && sub.StripeScheduleID != nil {
		scheduleID = *sub.StripeScheduleID
	}
	if scheduleID == "" {
		return nil, domainErrors.ErrMissingScheduleID
	}

	if err := r.billing.ReleaseSchedule(ctx, scheduleID); err != nil {
		return nil, r.processorError("cancel scheduled change", accountID, err, domainErrors.ErrSubscriptionNotFound)
	}

	r.logger.Info("Scheduled plan change cancelled",
		zap.String("account_id", accountID),
		zap.String("schedule_id", scheduleID))

	sub.ClearScheduledChange()
	return &ReconcileResult{
		Subscription:  sub,
		ResyncPending: r.writeBack(ctx, accountID, "cancel_scheduled_change", sub),
	}, nil
}

// SyncProfile makes sure the account has a Stripe customer carrying its
// current billing profile. Repeated calls reuse the same customer. An account
// without a saved customer id first adopts a customer already tagged with it.
func (r *BillingReconciler) SyncProfile(ctx context.Context, accountID string) (*ProfileSyncResult, error) {
	account, err := r.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile := CustomerProfileFor(account)

	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		existing, err := r.billing.FindCustomerByAccount(ctx, accountID)
		switch {
		case err == nil:
			r.logger.Info("Adopting existing Stripe customer",
				zap.String("account_id", accountID),
				zap.String("customer_id", existing.ID))
			pending := !r.persistCustomerID(ctx, accountID, existing.ID)
			customer, err := r.billing.UpdateCustomer(ctx, existing.ID, profile)
			if err != nil {
				return nil, r.processorError("update customer", accountID, err, domainErrors.ErrCustomerNotFound)
			}
			return &ProfileSyncResult{Customer: customer, ResyncPending: pending}, nil
		case !errors.Is(err, provider.ErrResourceMissing):
			return nil, r.processorError("search customer", accountID, err, domainErrors.ErrCustomerNotFound)
		}

		customer, err := r.billing.CreateCustomer(ctx, profile)
		if err != nil {
			return nil, r.processorError("create customer", accountID, err, domainErrors.ErrCustomerNotFound)
		}
		return &ProfileSyncResult{
			Customer:      customer,
			Created:       true,
			ResyncPending: !r.persistCustomerID(ctx, accountID, customer.ID),
		}, nil
	}

	customer, err := r.billing.UpdateCustomer(ctx, *account.StripeCustomerID, profile)
	if err != nil {
		return nil, r.processorError("update customer", accountID, err, domainErrors.ErrCustomerNotFound)
	}

	r.logger.Info("Billing profile synced",
		zap.String("account_id", accountID),
		zap.String("customer_id", customer.ID),
		zap.Bool("business", account.IsBusiness()))
	return &ProfileSyncResult{Customer: customer}, nil
}

// persistCustomerID saves the customer id and publishes a profile resync
// when the save fails
func (r *BillingReconciler) persistCustomerID(ctx context.Context, accountID, customerID string) bool {
	if err := r.accounts.SetStripeCustomerID(ctx, accountID, customerID); err != nil {
		r.logger.Error("Failed to persist Stripe customer id",
			zap.String("account_id", accountID),
			zap.String("customer_id", customerID),
			zap.Error(err))
		r.publishResync(ctx, ResyncEvent{
			AccountID:  accountID,
			Reason:     ResyncReasonWriteBackFailed,
			Operation:  ResyncOperationSyncProfile,
			CustomerID: customerID,
		})
		return false
	}
	return true
}

// ResyncProfile restores the account's Stripe customer id. customerID is
// verified against Stripe when given; otherwise customers are searched by
// account. Accounts already linked, or with no customer in Stripe, are left
// unchanged.
func (r *BillingReconciler) ResyncProfile(ctx context.Context, accountID, customerID string) (*model.Account, error) {
	account, err := r.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.StripeCustomerID != nil && *account.StripeCustomerID != "" {
		return account, nil
	}

	customer, err := r.lookupCustomer(ctx, accountID, customerID)
	if errors.Is(err, provider.ErrResourceMissing) {
		r.logger.Info("No Stripe customer for account", zap.String("account_id", accountID))
		return account, nil
	}
	if err != nil {
		return nil, r.processorError("resync customer", accountID, err, domainErrors.ErrCustomerNotFound)
	}

	if err := r.accounts.SetStripeCustomerID(ctx, accountID, customer.ID); err != nil {
		r.logger.Error("Failed to save resynced customer id",
			zap.String("account_id", accountID),
			zap.String("customer_id", customer.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save customer id: %w", err)
	}
	account.StripeCustomerID = &customer.ID

	r.logger.Info("Stripe customer id resynced",
		zap.String("account_id", accountID),
		zap.String("customer_id", customer.ID))
	return account, nil
}

func (r *BillingReconciler) lookupCustomer(ctx context.Context, accountID, customerID string) (*provider.Customer, error) {
	if customerID != "" {
		customer, err := r.billing.GetCustomer(ctx, customerID)
		switch {
		case err == nil && customer.Metadata["account_id"] == accountID:
			return customer, nil
		case err == nil:
			r.logger.Warn("Stripe customer belongs to another account",
				zap.String("account_id", accountID),
				zap.String("customer_id", customerID))
		case !errors.Is(err, provider.ErrResourceMissing):
			return nil, err
		}
	}
	return r.billing.FindCustomerByAccount(ctx, accountID)
}

// Resync overwrites every cached subscription field with Stripe's state.
// A subscription Stripe no longer knows is marked expired.
func (r *BillingReconciler) Resync(ctx context.Context, accountID string) (*model.Subscription, error) {
	sub, err := r.loadSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return r.resyncRow(ctx, sub)
}

// ResyncByStripeSubscription resyncs the row linked to a Stripe subscription.
// Unknown subscriptions are ignored.
func (r *BillingReconciler) ResyncByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	sub, err := r.subscriptions.GetByStripeSubscriptionID(ctx, stripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		r.logger.Info("No local row for Stripe subscription",
			zap.String("subscription_id", stripeSubscriptionID))
		return nil, nil
	}
	return r.resyncRow(ctx, sub)
}

// ResyncBySchedule resyncs the row that references a Stripe schedule.
// Unknown schedules are ignored.
func (r *BillingReconciler) ResyncBySchedule(ctx context.Context, scheduleID string) (*model.Subscription, error) {
	sub, err := r.subscriptions.GetByStripeScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		r.logger.Info("No local row for Stripe schedule",
			zap.String("schedule_id", scheduleID))
		return nil, nil
	}
	return r.resyncRow(ctx, sub)
}

func (r *BillingReconciler) resyncRow(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	accountID := sub.AccountID.String()
	if sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return nil, domainErrors.ErrNotLinkedToProcessor
	}

	remote, err := r.billing.GetSubscription(ctx, *sub.StripeSubscriptionID)
	switch {
	case errors.Is(err, provider.ErrResourceMissing):
		r.logger.Warn("Stripe subscription no longer exists, expiring local row",
			zap.String("account_id", accountID),
			zap.String("subscription_id", *sub.StripeSubscriptionID))
		sub.Status = model.SubscriptionStatusExpired
		sub.CancelAtPeriodEnd = false
		sub.ClearScheduledChange()
	case err != nil:
		return nil, r.processorError("resync", accountID, err, domainErrors.ErrSubscriptionNotFound)
	default:
		r.applyRemote(sub, remote)
	}

	if err := r.subscriptions.Save(ctx, sub); err != nil {
		r.logger.Error("Failed to save resynced subscription",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	r.logger.Info("Subscription resynced from Stripe",
		zap.String("account_id", accountID),
		zap.String("status", string(sub.Status)),
		zap.String("plan", sub.PlanName))
	return sub, nil
}

// applyRemote copies every processor-owned field onto the local row
func (r *BillingReconciler) applyRemote(sub *model.Subscription, remote *provider.Subscription) {
	sub.StripeSubscriptionID = &remote.ID
	sub.Status = model.SubscriptionStatus(remote.Status)
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	applyPeriod(sub, remote)

	if plan, ok := r.catalog.ByPriceID(remote.PriceID); ok {
		sub.PlanName = plan.Name
		sub.AnalysisQuota = plan.AnalysisQuota
		sub.SetSeatPricing(int(remote.Quantity), plan.PricePerSeat)
	} else {
		if remote.PriceID != "" {
			r.logger.Warn("Stripe price not in plan catalog, keeping local plan",
				zap.String("price_id", remote.PriceID),
				zap.String("plan", sub.PlanName))
		}
		sub.SetSeatPricing(int(remote.Quantity), sub.PricePerSeat)
	}

	if remote.ScheduleID == "" {
		sub.ClearScheduledChange()
	} else {
		scheduleID := remote.ScheduleID
		sub.StripeScheduleID = &scheduleID
	}
}

// DebugSubscription reports the local row, Stripe's view and the derived
// period state. Stripe failures are reported, not returned.
func (r *BillingReconciler) DebugSubscription(ctx context.Context, accountID string) (*SubscriptionDiagnostics, error) {
	sub, err := r.loadSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}

	diag := &SubscriptionDiagnostics{Local: sub}
	cancel := sub.CancelAtPeriodEnd
	var periodEnd time.Time
	if sub.CurrentPeriodEnd != nil {
		periodEnd = *sub.CurrentPeriodEnd
	}

	if sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID != "" {
		remote, err := r.billing.GetSubscription(ctx, *sub.StripeSubscriptionID)
		if err != nil {
			diag.StripeError = err.Error()
		} else {
			diag.Stripe = remote
			cancel = remote.CancelAtPeriodEnd
			periodEnd = remote.CurrentPeriodEnd
			diag.Mismatches = compareSubscription(sub, remote)
		}
	} else {
		diag.StripeError = domainErrors.ErrNotLinkedToProcessor.Message()
	}

	diag.Derived = entity.DerivePeriodState(cancel, periodEnd, r.now())
	diag.InSync = diag.Stripe != nil && len(diag.Mismatches) == 0
	return diag, nil
}

// DebugCustomer reports the local billing profile and the Stripe customer
func (r *BillingReconciler) DebugCustomer(ctx context.Context, accountID string) (*CustomerDiagnostics, error) {
	account, err := r.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	diag := &CustomerDiagnostics{Account: account, Profile: CustomerProfileFor(account)}
	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		diag.StripeError = "account has no Stripe customer"
		return diag, nil
	}

	customer, err := r.billing.GetCustomer(ctx, *account.StripeCustomerID)
	if err != nil {
		diag.StripeError = err.Error()
		return diag, nil
	}
	diag.Stripe = customer
	return diag, nil
}

// CustomerProfileFor builds the Stripe profile of an account. Business
// accounts send company name, address and tax id; individuals only a name.
func CustomerProfileFor(account *model.Account) provider.CustomerProfile {
	profile := provider.CustomerProfile{
		AccountID: account.ID.String(),
		Email:     account.BillingEmail,
	}

	if !account.IsBusiness() {
		profile.Name = firstNonEmpty(account.FullName, account.Name)
		return profile
	}

	profile.Name = firstNonEmpty(account.CompanyName, account.Name)
	profile.TaxID = account.TaxID
	profile.Address = &provider.Address{
		Line1:      account.AddressLine1,
		Line2:      account.AddressLine2,
		City:       account.City,
		State:      account.State,
		PostalCode: account.PostalCode,
		Country:    account.Country,
	}
	return profile
}

func (r *BillingReconciler) loadAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, domainErrors.ErrAccountNotFound
	}
	return account, nil
}

func (r *BillingReconciler) loadSubscription(ctx context.Context, accountID string) (*model.Subscription, error) {
	if _, err := r.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	sub, err := r.subscriptions.GetLatestByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, domainErrors.ErrSubscriptionNotFound
	}
	return sub, nil
}

// writeBack saves the row and reports whether a resync is pending
func (r *BillingReconciler) writeBack(ctx context.Context, accountID, operation string, sub *model.Subscription) bool {
	if err := r.subscriptions.Save(ctx, sub); err != nil {
		r.logger.Error("Local write-back failed after Stripe update",
			zap.String("account_id", accountID),
			zap.String("operation", operation),
			zap.Error(err))
		r.publishResync(ctx, ResyncEvent{
			AccountID: accountID,
			Reason:    ResyncReasonWriteBackFailed,
			Operation: operation,
		})
		return true
	}
	return false
}

func (r *BillingReconciler) publishResync(ctx context.Context, event ResyncEvent) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, ResyncChannel, event); err != nil {
		r.logger.Error("Failed to publish resync event",
			zap.String("account_id", event.AccountID),
			zap.Error(err))
	}
}

// processorError maps a Stripe failure; resource_missing becomes missing
func (r *BillingReconciler) processorError(op, accountID string, err error, missing *apperrors.AppError) error {
	r.logger.Error("Stripe call failed",
		zap.String("operation", op),
		zap.String("account_id", accountID),
		zap.Error(err))
	if errors.Is(err, provider.ErrResourceMissing) {
		return missing.WithCause(err)
	}
	return domainErrors.ErrProcessorFailure.WithCause(err)
}

func resolveSubscriptionID(sub *model.Subscription, requested string) (string, error) {
	local := ""
	if sub.StripeSubscriptionID != nil {
		local = *sub.StripeSubscriptionID
	}
	switch {
	case requested == "" && local == "":
		return "", domainErrors.ErrMissingSubscriptionID
	case requested == "":
		return local, nil
	case local != "" && requested != local:
		return "", domainErrors.ErrSubscriptionMismatch
	default:
		return requested, nil
	}
}

func applyPeriod(sub *model.Subscription, remote *provider.Subscription) {
	if !remote.CurrentPeriodStart.IsZero() {
		start := remote.CurrentPeriodStart
		sub.CurrentPeriodStart = &start
	}
	if !remote.CurrentPeriodEnd.IsZero() {
		end := remote.CurrentPeriodEnd
		sub.CurrentPeriodEnd = &end
	}
}

func compareSubscription(local *model.Subscription, remote *provider.Subscription) []string {
	var mismatches []string
	if string(local.Status) != remote.Status {
		mismatches = append(mismatches, "status")
	}
	if local.CancelAtPeriodEnd != remote.CancelAtPeriodEnd {
		mismatches = append(mismatches, "cancel_at_period_end")
	}
	if local.CurrentPeriodEnd == nil || !local.CurrentPeriodEnd.Equal(remote.CurrentPeriodEnd) {
		mismatches = append(mismatches, "current_period_end")
	}
	localSchedule := ""
	if local.StripeScheduleID != nil {
		localSchedule = *local.StripeScheduleID
	}
	if localSchedule != remote.ScheduleID {
		mismatches = append(mismatches, "stripe_schedule_id")
	}
	return mismatches
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
