package models

import "time"

// Entitlement records that a player purchased the premium story mode.
// Rows are only ever inserted; a player has at most one.
type Entitlement struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	ExternalUserID Principal  `gorm:"type:varchar(128);uniqueIndex;not null" json:"principal"`
	Purchased      bool       `gorm:"not null;default:false" json:"purchased"`
	SessionID      string     `gorm:"type:varchar(255)" json:"session_id"`
	PurchasedAt    *time.Time `json:"purchased_at,omitempty"`

	Timestamps
}

// PurchaseSessionStatus tracks a checkout session created by this service.
type PurchaseSessionStatus string

const (
	PurchasePending   PurchaseSessionStatus = "pending"
	PurchaseCompleted PurchaseSessionStatus = "completed"
	PurchaseFailed    PurchaseSessionStatus = "failed"
)

// PurchaseSession mirrors a provider checkout session.
type PurchaseSession struct {
	ID             string                `gorm:"primaryKey;type:varchar(255)" json:"id"`
	ExternalUserID Principal             `gorm:"type:varchar(128);index;not null" json:"principal"`
	Status         PurchaseSessionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CheckoutURL    string                `gorm:"type:text" json:"url"`
	AmountCents    int64                 `json:"amount_cents"`
	Currency       string                `gorm:"type:varchar(8)" json:"currency"`
	LastCheckedAt  *time.Time            `json:"last_checked_at,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`

	Timestamps
}

// PaymentConfig is the single-row Stripe configuration.
type PaymentConfig struct {
	ID               uint   `gorm:"primaryKey" json:"-"`
	SecretKey        string `gorm:"type:text;not null" json:"-"`
	AllowedCountries string `gorm:"type:text" json:"allowed_countries"` // comma separated ISO 3166 codes

	Timestamps
}
