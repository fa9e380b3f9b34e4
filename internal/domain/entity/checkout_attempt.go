package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"gorm.io/gorm"
)

// CheckoutAttempt journals one submission of a pending sale.
// Orphaned attempts point at sale headers that still exist remotely without all their lines.
type CheckoutAttempt struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	CashierID         int64              `gorm:"not null;index" json:"cashier_id"`
	CashierName       string             `gorm:"size:255" json:"cashier_name,omitempty"`
	ClientID          int64              `gorm:"not null" json:"client_id"`
	SaleDate          string             `gorm:"size:10;not null" json:"sale_date"`
	Total             string             `gorm:"size:32;not null" json:"total"`
	SaleID            *int64             `gorm:"index" json:"sale_id,omitempty"`
	Status            enum.AttemptStatus `gorm:"default:0;index" json:"status"`
	Reason            string             `gorm:"size:64" json:"reason,omitempty"`
	FailedProductID   *int64             `json:"failed_product_id,omitempty"`
	FailedProductName string             `gorm:"size:255" json:"failed_product_name,omitempty"`
	LinesTotal        int                `gorm:"default:0" json:"lines_total"`
	LinesCreated      int                `gorm:"default:0" json:"lines_created"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new attempt
func (a *CheckoutAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CheckoutAttempt model
func (CheckoutAttempt) TableName() string {
	return "checkout_attempts"
}
