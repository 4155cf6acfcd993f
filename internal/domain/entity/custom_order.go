package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomOrder represents a bespoke jewellery order taken at a branch
type CustomOrder struct {
	ID                      uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	OrderReference          string              `gorm:"size:50;uniqueIndex;not null" json:"order_reference"`
	CustomerName            string              `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone           *string             `gorm:"size:50" json:"customer_phone,omitempty"`
	CustomerEmail           *string             `gorm:"size:255" json:"customer_email,omitempty"`
	EstimatedAmount         decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"estimated_amount"`
	ProfitPercentage        decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"profit_percentage"`
	Quantity                int                 `gorm:"not null;default:1" json:"quantity"`
	AdvanceAmount           decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"advance_amount"`
	OrderStatus             enum.OrderStatus    `gorm:"size:30;not null;default:'Pending';index" json:"order_status"`
	PaymentStatus           enum.PaymentStatus  `gorm:"size:30;not null;default:'Not Paid'" json:"payment_status"`
	CategoryID              *uuid.UUID          `gorm:"type:uuid;index" json:"category_id,omitempty"`
	SupplierID              *uuid.UUID          `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	BranchID                *uuid.UUID          `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	CreatedBy               *uuid.UUID          `gorm:"type:uuid" json:"created_by,omitempty"`
	Description             *string             `gorm:"type:text" json:"description,omitempty"`
	SpecialRequirements     *string             `gorm:"type:text" json:"special_requirements,omitempty"`
	SupplierNotes           *string             `gorm:"type:text" json:"supplier_notes,omitempty"`
	PickupNotes             *string             `gorm:"type:text" json:"pickup_notes,omitempty"`
	OrderDate               time.Time           `gorm:"not null" json:"order_date"`
	EstimatedCompletionDate *time.Time          `json:"estimated_completion_date,omitempty"`
	PickupDate              *time.Time          `json:"pickup_date,omitempty"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
	DeletedAt               gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Branch    *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Category  *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Supplier  *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Materials []Material `gorm:"foreignKey:OrderID" json:"materials,omitempty"`
	Images    []Image    `gorm:"foreignKey:OrderID" json:"images,omitempty"`
	Payments  []Payment  `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new custom order
func (o *CustomOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CustomOrder model
func (CustomOrder) TableName() string {
	return "custom_orders"
}

// CustomerPrice is the amount the customer owes for the whole order,
// markup and quantity included.
func (o *CustomOrder) CustomerPrice() decimal.Decimal {
	return pricing.CustomerPrice(o.EstimatedAmount, o.ProfitPercentage.Decimal, o.Quantity)
}

// Material is a raw material line consumed by a custom order
type Material struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	OrderID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"order_id"`
	MaterialName string              `gorm:"size:255;not null" json:"material_name"`
	Quantity     decimal.Decimal     `gorm:"type:decimal(15,3);not null" json:"quantity"`
	Unit         string              `gorm:"size:20;not null;default:'g'" json:"unit"`
	CostPerUnit  decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"cost_per_unit"`
	TotalCost    decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"total_cost"`
	SupplierID   *uuid.UUID          `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// BeforeCreate generates a UUID before creating a new material line
func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Material model
func (Material) TableName() string {
	return "custom_order_materials"
}

// Image is a reference photo uploaded for a custom order
type Image struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ImagePath    string    `gorm:"size:500;not null" json:"image_path"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new image record
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Image model
func (Image) TableName() string {
	return "custom_order_images"
}
