package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
)

// BranchRepository defines the interface for branch data operations
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Branch, error)
	List(ctx context.Context) ([]entity.Branch, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	List(ctx context.Context) ([]entity.Category, error)
	SupplierUsage(ctx context.Context) ([]CategorySupplierRow, error)
}

// CategorySupplierRow is one (category, supplier) pair of the supplier usage report.
// SupplierID is nil for categories whose orders use no supplied materials.
type CategorySupplierRow struct {
	CategoryID   uuid.UUID
	CategoryName string
	SupplierID   *uuid.UUID
	SupplierName *string
	OrderCount   int64
}

// SupplierRepository defines the interface for supplier data operations
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error)
	List(ctx context.Context) ([]entity.Supplier, error)
}
