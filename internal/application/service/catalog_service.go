package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
)

// CatalogService manages the reference data custom orders point at
type CatalogService struct {
	branches   repository.BranchRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	branches repository.BranchRepository,
	categories repository.CategoryRepository,
	suppliers repository.SupplierRepository,
) *CatalogService {
	return &CatalogService{
		branches:   branches,
		categories: categories,
		suppliers:  suppliers,
	}
}

// CreateBranchInput represents the create branch input
type CreateBranchInput struct {
	Name    string
	Address *string
	Phone   *string
}

// CreateCategoryInput represents the create category input
type CreateCategoryInput struct {
	Name        string
	Description *string
}

// CreateSupplierInput represents the create supplier input
type CreateSupplierInput struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

// SupplierUsage is one supplier line of the category report
type SupplierUsage struct {
	SupplierID   uuid.UUID `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	OrderCount   int64     `json:"order_count"`
}

// CategorySuppliers groups the suppliers whose materials went into a category's orders
type CategorySuppliers struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Suppliers    []SupplierUsage `json:"suppliers"`
}

// CreateBranch creates a new branch
func (s *CatalogService) CreateBranch(ctx context.Context, input *CreateBranchInput) (*entity.Branch, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "Branch name is required")
	}

	branch := &entity.Branch{Name: name, Address: input.Address, Phone: input.Phone}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, storageErr("insert branch", err)
	}
	return branch, nil
}

// GetBranch retrieves a branch by ID
func (s *CatalogService) GetBranch(ctx context.Context, id uuid.UUID) (*entity.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load branch", err)
	}
	if branch == nil {
		return nil, apperror.NewNotFoundError("Branch")
	}
	return branch, nil
}

// ListBranches lists all branches
func (s *CatalogService) ListBranches(ctx context.Context) ([]entity.Branch, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, storageErr("list branches", err)
	}
	return branches, nil
}

// CreateCategory creates a new category
func (s *CatalogService) CreateCategory(ctx context.Context, input *CreateCategoryInput) (*entity.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "Category name is required")
	}

	// Check if name already exists
	existing, err := s.categories.GetByName(ctx, name)
	if err != nil {
		return nil, storageErr("load category", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Category with this name already exists")
	}

	category := &entity.Category{Name: name, Description: input.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storageErr("insert category", err)
	}
	return category, nil
}

// ListCategories lists all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return categories, nil
}

// CreateSupplier creates a new supplier
func (s *CatalogService) CreateSupplier(ctx context.Context, input *CreateSupplierInput) (*entity.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "Supplier name is required")
	}

	supplier := &entity.Supplier{Name: name, Email: input.Email, Phone: input.Phone, Address: input.Address}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, storageErr("insert supplier", err)
	}
	return supplier, nil
}

// ListSuppliers lists all suppliers
func (s *CatalogService) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, storageErr("list suppliers", err)
	}
	return suppliers, nil
}

// SupplierReport lists every category with the suppliers used by its orders.
// Categories without any supplied material get an empty supplier list.
func (s *CatalogService) SupplierReport(ctx context.Context) ([]CategorySuppliers, error) {
	rows, err := s.categories.SupplierUsage(ctx)
	if err != nil {
		return nil, storageErr("build supplier report", err)
	}

	report := make([]CategorySuppliers, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.CategoryID]
		if !ok {
			report = append(report, CategorySuppliers{
				CategoryID:   row.CategoryID,
				CategoryName: row.CategoryName,
				Suppliers:    []SupplierUsage{},
			})
			i = len(report) - 1
			index[row.CategoryID] = i
		}
		if row.SupplierID == nil {
			continue
		}

		name := ""
		if row.SupplierName != nil {
			name = *row.SupplierName
		}
		report[i].Suppliers = append(report[i].Suppliers, SupplierUsage{
			SupplierID:   *row.SupplierID,
			SupplierName: name,
			OrderCount:   row.OrderCount,
		})
	}
	return report, nil
}
