package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction records one successful token purchase. PaymentID is unique so
// a payment can be credited at most once.
type Transaction struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string    `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	TokensPurchased int64     `gorm:"not null" json:"tokens_purchased"`
	PaymentID       string    `gorm:"uniqueIndex;not null;type:varchar(128)" json:"payment_id"`
	AmountCents     int64     `gorm:"not null;default:0" json:"amount_cents"`
	Currency        string    `gorm:"type:varchar(8)" json:"currency"`
	Metadata        Metadata  `gorm:"type:text" json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt       time.Time `gorm:"precision:3;index" json:"created_at"` // Millisecond precision
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
