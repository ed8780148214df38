package provider

import (
	"context"
	"errors"
	"time"
)

// BillingProvider is the payment processor used for subscription
// reconciliation. Implementations must treat the processor as authoritative
// and return its state after every mutation.
type BillingProvider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// ResumeSubscription clears cancel-at-period-end.
	ResumeSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// ReleaseSchedule detaches a pending schedule, keeping the current plan.
	ReleaseSchedule(ctx context.Context, scheduleID string) error
	// CreateCustomer must be idempotent per account.
	CreateCustomer(ctx context.Context, profile CustomerProfile) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, profile CustomerProfile) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	// FindCustomerByAccount returns ErrResourceMissing when no customer is
	// tagged with the account id.
	FindCustomerByAccount(ctx context.Context, accountID string) (*Customer, error)
	GetProviderName() string
}

// ErrResourceMissing is returned when the processor has no such object
var ErrResourceMissing = errors.New("payment processor resource missing")

// Subscription is the processor's subscription state.
// Status is already mapped to the local vocabulary; RawStatus keeps the
// processor's own value.
type Subscription struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	Status             string     `json:"status"`
	RawStatus          string     `json:"raw_status"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	PriceID            string     `json:"price_id,omitempty"`
	Quantity           int64      `json:"quantity"`
	ScheduleID         string     `json:"schedule_id,omitempty"`
}

// Address is a postal address in processor form
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CustomerProfile is the billing profile pushed to the processor.
// Address and TaxID are only set for business accounts.
type CustomerProfile struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Address   *Address `json:"address,omitempty"`
	TaxID     string   `json:"tax_id,omitempty"`
}

// Customer is the processor's customer record
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Address  *Address          `json:"address,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Created  time.Time         `json:"created"`
}

// ProviderError is a processor failure with the processor's error code
type ProviderError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
