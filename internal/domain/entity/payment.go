package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is one row of the append-only payment log of a custom order.
// Simple rows are plain payments; ledger rows carry the advance-desk
// reference and a snapshot of the order's balance at the time of payment.
type Payment struct {
	ID               uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	OrderID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"order_id"`
	Origin           enum.PaymentOrigin `gorm:"size:20;not null;index" json:"origin"`
	Amount           decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method           string             `gorm:"size:50;not null;default:'Cash'" json:"payment_method"`
	PaymentReference *string            `gorm:"size:100" json:"payment_reference,omitempty"`
	Notes            *string            `gorm:"type:text" json:"notes,omitempty"`
	PaidAt           time.Time          `gorm:"not null" json:"payment_date"`

	// Ledger-only columns
	LedgerReference *string             `gorm:"size:50;uniqueIndex" json:"ledger_reference,omitempty"`
	CustomerName    *string             `gorm:"size:255" json:"customer_name,omitempty"`
	TotalAmount     decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"total_amount"`
	BalanceAmount   decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"balance_amount"`
	PaymentStatus   *enum.PaymentStatus `gorm:"size:30" json:"payment_status,omitempty"`
	IsCustomOrder   bool                `gorm:"not null;default:false" json:"is_custom_order"`
	CreatedBy       *uuid.UUID          `gorm:"type:uuid" json:"created_by,omitempty"`
	BranchID        *uuid.UUID          `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	MirrorOfID      *uuid.UUID          `gorm:"type:uuid;index" json:"mirror_of_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new payment row
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "order_payments"
}

// IsMirror reports whether the row restates a simple payment
func (p *Payment) IsMirror() bool {
	return p.MirrorOfID != nil
}
