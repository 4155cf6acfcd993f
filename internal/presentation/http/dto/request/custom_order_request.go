package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialRequest is one material line of a custom order
type MaterialRequest struct {
	MaterialName string           `json:"material_name" binding:"required,max=255"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit" binding:"omitempty,max=20"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
	SupplierID   *uuid.UUID       `json:"supplier_id"`
}

// CreateCustomOrderRequest represents a custom order creation request
type CreateCustomOrderRequest struct {
	CustomerName            string            `json:"customer_name" binding:"required,max=255"`
	CustomerPhone           *string           `json:"customer_phone" binding:"omitempty,max=50"`
	CustomerEmail           *string           `json:"customer_email" binding:"omitempty,email"`
	EstimatedAmount         decimal.Decimal   `json:"estimated_amount"`
	ProfitPercentage        *decimal.Decimal  `json:"profit_percentage"`
	Quantity                int               `json:"quantity" binding:"min=0"`
	AdvanceAmount           decimal.Decimal   `json:"advance_amount"`
	PaymentMethod           string            `json:"payment_method" binding:"omitempty,max=50"`
	CategoryID              *uuid.UUID        `json:"category_id"`
	SupplierID              *uuid.UUID        `json:"supplier_id"`
	BranchID                *uuid.UUID        `json:"branch_id"`
	Description             *string           `json:"description"`
	SpecialRequirements     *string           `json:"special_requirements"`
	OrderDate               *time.Time        `json:"order_date"`
	EstimatedCompletionDate *time.Time        `json:"estimated_completion_date"`
	Materials               []MaterialRequest `json:"materials" binding:"omitempty,dive"`
}

// AddMaterialsRequest appends material lines to an order
type AddMaterialsRequest struct {
	Materials []MaterialRequest `json:"materials" binding:"required,min=1,dive"`
}

// UpdateStatusRequest represents an order status change
type UpdateStatusRequest struct {
	OrderStatus   string  `json:"order_status" binding:"required"`
	SupplierNotes *string `json:"supplier_notes"`
}

// MarkPickedUpRequest represents a pickup confirmation
type MarkPickedUpRequest struct {
	PickupNotes *string `json:"pickup_notes"`
}

// RecordPaymentRequest represents a counter payment against an order
type RecordPaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method" binding:"omitempty,max=50"`
	PaymentReference *string         `json:"payment_reference" binding:"omitempty,max=100"`
	Notes            *string         `json:"notes"`
	PaymentDate      *time.Time      `json:"payment_date"`
}

// LedgerPaymentRequest represents a payment taken at the advance desk
type LedgerPaymentRequest struct {
	RecordPaymentRequest
	IsCustomOrder *bool `json:"is_custom_order"`
}

// CompletionNotificationRequest optionally names where the customer collects the piece
type CompletionNotificationRequest struct {
	PickupLocation string `json:"pickup_location" binding:"omitempty,max=255"`
}

// CustomOrderFilterRequest represents custom order list filters
type CustomOrderFilterRequest struct {
	Status   string `form:"status"`
	BranchID string `form:"branch_id"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}
