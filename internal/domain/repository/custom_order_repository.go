package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ErrDuplicateReference is returned when an order or ledger reference is already taken
var ErrDuplicateReference = errors.New("reference already exists")

// Transactor runs fn inside a single database transaction carried by ctx.
// Nested calls join the outer transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CustomOrderRepository defines the interface for custom order data operations
type CustomOrderRepository interface {
	Create(ctx context.Context, order *entity.CustomOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error)
	List(ctx context.Context, params *CustomOrderFilterParams) ([]entity.CustomOrder, int64, error)
	ListCompleted(ctx context.Context, includePickedUp bool, branchID *uuid.UUID) ([]entity.CustomOrder, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus, supplierNotes *string) error
	MarkPickedUp(ctx context.Context, id uuid.UUID, notes *string) error
	UpdatePaymentSummary(ctx context.Context, id uuid.UUID, advance decimal.Decimal, status enum.PaymentStatus) error
	// LatestReference returns the highest reference starting with stem, or "" when none exist
	LatestReference(ctx context.Context, stem string) (string, error)
}

// CustomOrderFilterParams contains filtering parameters for custom order queries
type CustomOrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Status     *enum.OrderStatus
	BranchID   *uuid.UUID
	Search     string
}

// PaymentTotals is the per-origin breakdown of an order's payment log
type PaymentTotals struct {
	TotalPaid   decimal.Decimal
	SimpleTotal decimal.Decimal
	SimpleCount int64
	// LedgerTotal sums custom-order ledger rows, mirrors included
	LedgerTotal      decimal.Decimal
	LedgerMinBalance decimal.NullDecimal
}

// PaymentRepository defines the interface for the unified payment log
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	CountSimple(ctx context.Context, orderID uuid.UUID) (int64, error)
	// TotalPaid sums simple rows and custom-order ledger rows that are not mirrors
	TotalPaid(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	Totals(ctx context.Context, orderID uuid.UUID) (*PaymentTotals, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error)
	// LatestLedgerReference returns the highest ledger reference starting with stem
	LatestLedgerReference(ctx context.Context, stem string) (string, error)
}

// MaterialRepository defines the interface for material line operations
type MaterialRepository interface {
	CreateBatch(ctx context.Context, materials []entity.Material) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Material, error)
}

// ImageRepository defines the interface for order image records
type ImageRepository interface {
	CreateBatch(ctx context.Context, images []entity.Image) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Image, error)
}

// EmailLogRepository defines the interface for notification audit rows
type EmailLogRepository interface {
	Create(ctx context.Context, log *entity.EmailLog) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.EmailLog, error)
}
