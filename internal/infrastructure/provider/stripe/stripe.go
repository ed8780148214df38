package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wekeepgrowing/mailshield/internal/domain/provider"
	"go.uber.org/zap"
)

// ProviderName identifies Stripe in logs and diagnostics
const ProviderName = "stripe"

// StripeProvider implements provider.BillingProvider on top of the Stripe API
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider creates a provider backed by the live Stripe API
func NewStripeProvider(secretKey string, logger *zap.Logger) *StripeProvider {
	return NewStripeProviderWithClient(client.New(secretKey, nil), logger)
}

// NewStripeProviderWithClient creates a provider using a preconfigured client
func NewStripeProviderWithClient(api *client.API, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:    api,
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return ProviderName
}

// GetSubscription retrieves a subscription from Stripe
func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, s.convertError("get subscription", err, zap.String("subscription_id", subscriptionID))
	}
	return toSubscription(sub), nil
}

// ResumeSubscription clears cancel_at_period_end and returns the updated state
func (s *StripeProvider) ResumeSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, s.convertError("resume subscription", err, zap.String("subscription_id", subscriptionID))
	}

	s.logger.Info("Resumed Stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd))
	return toSubscription(sub), nil
}

// ReleaseSchedule releases a subscription schedule. The subscription keeps its
// current phase.
func (s *StripeProvider) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	params := &stripe.SubscriptionScheduleReleaseParams{
		PreserveCancelDate: stripe.Bool(true),
	}
	params.Context = ctx

	schedule, err := s.api.SubscriptionSchedules.Release(scheduleID, params)
	if err != nil {
		return s.convertError("release schedule", err, zap.String("schedule_id", scheduleID))
	}

	s.logger.Info("Released Stripe subscription schedule",
		zap.String("schedule_id", schedule.ID),
		zap.String("status", string(schedule.Status)))
	return nil
}

// CreateCustomer creates a Stripe customer. The idempotency key is derived
// from the account so retries never create duplicates.
func (s *StripeProvider) CreateCustomer(ctx context.Context, profile provider.CustomerProfile) (*provider.Customer, error) {
	params := customerParams(profile)
	params.Context = ctx
	if taxType, ok := taxIDType(profile); ok {
		params.TaxIDData = []*stripe.CustomerTaxIDDataParams{{
			Type:  stripe.String(string(taxType)),
			Value: stripe.String(profile.TaxID),
		}}
	}
	params.SetIdempotencyKey("customer-create-" + profile.AccountID)

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return nil, s.convertError("create customer", err, zap.String("account_id", profile.AccountID))
	}

	s.logger.Info("Created Stripe customer",
		zap.String("customer_id", cust.ID),
		zap.String("account_id", profile.AccountID))
	return toCustomer(cust), nil
}

// UpdateCustomer pushes the billing profile onto an existing customer
func (s *StripeProvider) UpdateCustomer(ctx context.Context, customerID string, profile provider.CustomerProfile) (*provider.Customer, error) {
	params := customerParams(profile)
	params.Context = ctx

	cust, err := s.api.Customers.Update(customerID, params)
	if err != nil {
		return nil, s.convertError("update customer", err, zap.String("customer_id", customerID))
	}
	if err := s.ensureTaxID(ctx, customerID, profile); err != nil {
		return nil, err
	}
	return toCustomer(cust), nil
}

// FindCustomerByAccount searches customers by metadata account_id. Returns
// provider.ErrResourceMissing when none matches.
func (s *StripeProvider) FindCustomerByAccount(ctx context.Context, accountID string) (*provider.Customer, error) {
	params := &stripe.CustomerSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("metadata['account_id']:'%s'", strings.ReplaceAll(accountID, "'", `\'`))
	params.Single = true

	iter := s.api.Customers.Search(params)
	for iter.Next() {
		if cust := iter.Customer(); cust != nil && !cust.Deleted {
			return toCustomer(cust), nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, s.convertError("search customer", err, zap.String("account_id", accountID))
	}
	return nil, provider.ErrResourceMissing
}

// ensureTaxID attaches the profile's tax id unless the customer already
// carries the same value
func (s *StripeProvider) ensureTaxID(ctx context.Context, customerID string, profile provider.CustomerProfile) error {
	taxType, ok := taxIDType(profile)
	if !ok {
		return nil
	}

	listParams := &stripe.TaxIDListParams{Customer: stripe.String(customerID)}
	listParams.Context = ctx
	iter := s.api.TaxIDs.List(listParams)
	for iter.Next() {
		existing := iter.TaxID()
		if existing.Type == taxType && existing.Value == profile.TaxID {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return s.convertError("list tax ids", err, zap.String("customer_id", customerID))
	}

	params := &stripe.TaxIDParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(taxType)),
		Value:    stripe.String(profile.TaxID),
	}
	params.Context = ctx
	taxID, err := s.api.TaxIDs.New(params)
	if err != nil {
		return s.convertError("create tax id", err, zap.String("customer_id", customerID))
	}

	s.logger.Info("Attached tax id to Stripe customer",
		zap.String("customer_id", customerID),
		zap.String("tax_id", taxID.ID),
		zap.String("type", string(taxType)))
	return nil
}

// GetCustomer retrieves a customer. Deleted customers count as missing.
func (s *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, s.convertError("get customer", err, zap.String("customer_id", customerID))
	}
	if cust.Deleted {
		return nil, provider.ErrResourceMissing
	}
	return toCustomer(cust), nil
}

// convertError maps Stripe errors onto provider errors. resource_missing
// becomes provider.ErrResourceMissing so callers can match it with errors.Is.
func (s *StripeProvider) convertError(op string, err error, fields ...zap.Field) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		s.logger.Error("Stripe request failed", append(fields, zap.String("op", op), zap.Error(err))...)
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if stripeErr.Code == stripe.ErrorCodeResourceMissing {
		s.logger.Warn("Stripe resource missing", append(fields, zap.String("op", op))...)
		return fmt.Errorf("failed to %s: %w", op, provider.ErrResourceMissing)
	}

	s.logger.Error("Stripe API error", append(fields,
		zap.String("op", op),
		zap.String("code", string(stripeErr.Code)),
		zap.String("type", string(stripeErr.Type)),
		zap.Int("http_status", stripeErr.HTTPStatusCode),
		zap.String("request_id", stripeErr.RequestID))...)

	return &provider.ProviderError{
		Code:       string(stripeErr.Code),
		Message:    stripeErr.Msg,
		HTTPStatus: stripeErr.HTTPStatusCode,
		RequestID:  stripeErr.RequestID,
	}
}

func customerParams(profile provider.CustomerProfile) *stripe.CustomerParams {
	params := &stripe.CustomerParams{}
	if profile.Email != "" {
		params.Email = stripe.String(profile.Email)
	}
	if profile.Name != "" {
		params.Name = stripe.String(profile.Name)
	}
	if profile.Address != nil {
		params.Address = &stripe.AddressParams{
			Line1:      stripe.String(profile.Address.Line1),
			Line2:      stripe.String(profile.Address.Line2),
			City:       stripe.String(profile.Address.City),
			State:      stripe.String(profile.Address.State),
			PostalCode: stripe.String(profile.Address.PostalCode),
			Country:    stripe.String(profile.Address.Country),
		}
	}
	if profile.AccountID != "" {
		params.AddMetadata("account_id", profile.AccountID)
	}
	if profile.TaxID != "" {
		params.AddMetadata("tax_id", profile.TaxID)
	}
	return params
}

var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true, "DE": true, "DK": true,
	"EE": true, "ES": true, "FI": true, "FR": true, "GR": true, "HR": true, "HU": true,
	"IE": true, "IT": true, "LT": true, "LU": true, "LV": true, "MT": true, "NL": true,
	"PL": true, "PT": true, "RO": true, "SE": true, "SI": true, "SK": true,
}

var countryTaxIDTypes = map[string]stripe.TaxIDType{
	"AU": stripe.TaxIDTypeAUABN,
	"CA": stripe.TaxIDTypeCABN,
	"CH": stripe.TaxIDTypeCHVAT,
	"GB": stripe.TaxIDTypeGBVAT,
	"IN": stripe.TaxIDTypeINGST,
	"JP": stripe.TaxIDTypeJPCN,
	"KR": stripe.TaxIDTypeKRBRN,
	"NO": stripe.TaxIDTypeNOVAT,
	"US": stripe.TaxIDTypeUSEIN,
}

// taxIDType derives the Stripe tax id type from the billing country
func taxIDType(profile provider.CustomerProfile) (stripe.TaxIDType, bool) {
	if profile.TaxID == "" || profile.Address == nil {
		return "", false
	}
	country := strings.ToUpper(profile.Address.Country)
	if euCountries[country] {
		return stripe.TaxIDTypeEUVAT, true
	}
	taxType, ok := countryTaxIDTypes[country]
	return taxType, ok
}

// mapStatus converts a Stripe status to the local subscription vocabulary
func mapStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return "active"
	case stripe.SubscriptionStatusTrialing:
		return "trialing"
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncomplete:
		return "past_due"
	case stripe.SubscriptionStatusCanceled:
		return "cancelled"
	default:
		return "expired"
	}
}

func toSubscription(sub *stripe.Subscription) *provider.Subscription {
	out := &provider.Subscription{
		ID:                 sub.ID,
		Status:             mapStatus(sub.Status),
		RawStatus:          string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodStart: unixToTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixToTime(sub.CurrentPeriodEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CanceledAt > 0 {
		t := unixToTime(sub.CanceledAt)
		out.CanceledAt = &t
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.Quantity = item.Quantity
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	if sub.Schedule != nil {
		out.ScheduleID = sub.Schedule.ID
	}
	return out
}

func toCustomer(cust *stripe.Customer) *provider.Customer {
	out := &provider.Customer{
		ID:       cust.ID,
		Email:    cust.Email,
		Name:     cust.Name,
		Metadata: cust.Metadata,
		Created:  unixToTime(cust.Created),
	}
	if cust.Address != nil {
		out.Address = &provider.Address{
			Line1:      cust.Address.Line1,
			Line2:      cust.Address.Line2,
			City:       cust.Address.City,
			State:      cust.Address.State,
			PostalCode: cust.Address.PostalCode,
			Country:    cust.Address.Country,
		}
	}
	return out
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
