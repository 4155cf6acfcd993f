package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"gorm.io/gorm"
)

type branchRepository struct {
	db *gorm.DB
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db *gorm.DB) domainRepo.BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *entity.Branch) error {
	return conn(ctx, r.db).Create(branch).Error
}

func (r *branchRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Branch, error) {
	var branch entity.Branch
	err := conn(ctx, r.db).First(&branch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &branch, err
}

func (r *branchRepository) List(ctx context.Context) ([]entity.Branch, error) {
	var branches []entity.Branch
	err := conn(ctx, r.db).Order("name ASC").Find(&branches).Error
	return branches, err
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) domainRepo.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	return conn(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	err := conn(ctx, r.db).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &category, err
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	var category entity.Category
	err := conn(ctx, r.db).First(&category, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &category, err
}

func (r *categoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	err := conn(ctx, r.db).Order("name ASC").Find(&categories).Error
	return categories, err
}

// SupplierUsage counts distinct orders per (category, supplier) through the
// suppliers of each order's materials. Categories without supplied
// materials still appear once with a nil supplier.
func (r *categoryRepository) SupplierUsage(ctx context.Context) ([]domainRepo.CategorySupplierRow, error) {
	var rows []domainRepo.CategorySupplierRow
	err := conn(ctx, r.db).Raw(`
		SELECT
			c.id AS category_id,
			c.name AS category_name,
			s.id AS supplier_id,
			s.name AS supplier_name,
			COUNT(DISTINCT co.id) AS order_count
		FROM categories c
		LEFT JOIN custom_orders co ON co.category_id = c.id AND co.deleted_at IS NULL
		LEFT JOIN custom_order_materials com ON com.order_id = co.id
		LEFT JOIN suppliers s ON s.id = com.supplier_id AND s.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.name, s.id, s.name
		ORDER BY c.name, s.name`).
		Scan(&rows).Error
	return rows, err
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *gorm.DB) domainRepo.SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *entity.Supplier) error {
	return conn(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error) {
	var supplier entity.Supplier
	err := conn(ctx, r.db).First(&supplier, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &supplier, err
}

func (r *supplierRepository) List(ctx context.Context) ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := conn(ctx, r.db).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}
