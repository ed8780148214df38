package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the locally cached subscription state
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusExpired
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Subscription caches the payment processor's view of an account's plan.
// The processor is authoritative for status, period and schedule fields.
type Subscription struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AccountID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"account_id"`
	PlanName             string             `gorm:"size:50;not null;default:'Free'" json:"plan_name"`
	Status               SubscriptionStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	Seats                int                `gorm:"not null;default:1" json:"seats"`
	PricePerSeat         decimal.Decimal    `gorm:"type:numeric(10,2);not null;default:0" json:"price_per_seat"`
	TotalPrice           decimal.Decimal    `gorm:"type:numeric(10,2);not null;default:0" json:"total_price"`
	AnalysisQuota        int                `gorm:"not null;default:0" json:"analysis_quota"`
	AnalysisQuotaUsed    int                `gorm:"not null;default:0" json:"analysis_quota_used"`
	EmailsLeft           int                `gorm:"column:emails_left;not null;default:0" json:"emails_left"`
	StripeSubscriptionID *string            `gorm:"size:100;index" json:"stripe_subscription_id,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	ScheduledPlanChange  *string            `gorm:"size:50" json:"scheduled_plan_change,omitempty"`
	ScheduledChangeDate  *time.Time         `json:"scheduled_change_date,omitempty"`
	StripeScheduleID     *string            `gorm:"size:100" json:"stripe_schedule_id,omitempty"`
	CreatedAt            time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"default:now()" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// ClearScheduledChange drops any pending plan change
func (s *Subscription) ClearScheduledChange() {
	s.ScheduledPlanChange = nil
	s.ScheduledChangeDate = nil
	s.StripeScheduleID = nil
}

// SetSeatPricing updates seats and recomputes the total
func (s *Subscription) SetSeatPricing(seats int, pricePerSeat decimal.Decimal) {
	if seats < 1 {
		seats = 1
	}
	s.Seats = seats
	s.PricePerSeat = pricePerSeat
	s.TotalPrice = pricePerSeat.Mul(decimal.NewFromInt(int64(seats)))
}
