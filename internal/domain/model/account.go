package model

import (
	"time"

	"github.com/google/uuid"
)

// BillingType distinguishes company accounts from personal ones
type BillingType string

const (
	BillingTypeIndividual BillingType = "individual"
	BillingTypeBusiness   BillingType = "business"
)

// Account is the billing entity owned by a Supabase auth user
type Account struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name             string      `gorm:"size:255" json:"name"`
	BillingEmail     string      `gorm:"size:255" json:"billing_email"`
	BillingType      BillingType `gorm:"size:20;not null;default:'individual'" json:"billing_type"`
	StripeCustomerID *string     `gorm:"size:100;uniqueIndex" json:"stripe_customer_id,omitempty"`
	FullName         string      `gorm:"size:255" json:"full_name"`
	CompanyName      string      `gorm:"size:255" json:"company_name"`
	TaxID            string      `gorm:"size:100" json:"tax_id"`
	AddressLine1     string      `gorm:"size:255" json:"address_line1"`
	AddressLine2     string      `gorm:"size:255" json:"address_line2"`
	City             string      `gorm:"size:100" json:"city"`
	State            string      `gorm:"size:100" json:"state"`
	PostalCode       string      `gorm:"size:20" json:"postal_code"`
	Country          string      `gorm:"size:2" json:"country"`
	CreatedAt        time.Time   `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"default:now()" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) IsBusiness() bool {
	return a.BillingType == BillingTypeBusiness
}

// OwnedBy reports whether the given auth user owns the account
func (a *Account) OwnedBy(userID string) bool {
	return a.OwnerID.String() == userID
}
