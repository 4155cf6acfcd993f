package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type customOrderRepository struct {
	db *gorm.DB
}

// NewCustomOrderRepository creates a new custom order repository
func NewCustomOrderRepository(db *gorm.DB) domainRepo.CustomOrderRepository {
	return &customOrderRepository{db: db}
}

func (r *customOrderRepository) Create(ctx context.Context, order *entity.CustomOrder) error {
	return translate(conn(ctx, r.db).Create(order).Error, domainRepo.ErrDuplicateReference)
}

func (r *customOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	var order entity.CustomOrder
	err := conn(ctx, r.db).
		Preload("Branch").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *customOrderRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	var order entity.CustomOrder
	err := conn(ctx, r.db).
		Preload("Branch").
		Preload("Category").
		Preload("Supplier").
		Preload("Materials", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Materials.Supplier").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, created_at ASC") }).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *customOrderRepository) List(ctx context.Context, params *domainRepo.CustomOrderFilterParams) ([]entity.CustomOrder, int64, error) {
	var orders []entity.CustomOrder
	var total int64

	query := conn(ctx, r.db).Model(&entity.CustomOrder{}).Scopes(BranchScope(params.BranchID))

	if params.Status != nil {
		query = query.Where("order_status = ?", *params.Status)
	}

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("order_reference LIKE ? OR customer_name LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Pagination
	if page == nil {
		page = pagination.DefaultPagination()
	}
	page.Validate()
	err := query.Offset(page.Offset()).Limit(page.PerPage).
		Preload("Branch").
		Preload("Category").
		Order("order_date DESC, created_at DESC").
		Find(&orders).Error

	return orders, total, err
}

func (r *customOrderRepository) ListCompleted(ctx context.Context, includePickedUp bool, branchID *uuid.UUID) ([]entity.CustomOrder, error) {
	var orders []entity.CustomOrder

	statuses := []enum.OrderStatus{enum.OrderStatusCompleted}
	if includePickedUp {
		statuses = append(statuses, enum.OrderStatusPickedUp)
	}

	err := conn(ctx, r.db).
		Scopes(BranchScope(branchID)).
		Where("order_status IN ?", statuses).
		Preload("Branch").
		Order("updated_at DESC").
		Find(&orders).Error

	return orders, err
}

func (r *customOrderRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&entity.CustomOrder{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *customOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus, supplierNotes *string) error {
	updates := map[string]interface{}{"order_status": status}
	if supplierNotes != nil {
		updates["supplier_notes"] = *supplierNotes
	}
	return conn(ctx, r.db).Model(&entity.CustomOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *customOrderRepository) MarkPickedUp(ctx context.Context, id uuid.UUID, notes *string) error {
	return conn(ctx, r.db).Model(&entity.CustomOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"order_status": enum.OrderStatusPickedUp,
			"pickup_date":  time.Now(),
			"pickup_notes": notes,
		}).Error
}

func (r *customOrderRepository) UpdatePaymentSummary(ctx context.Context, id uuid.UUID, advance decimal.Decimal, status enum.PaymentStatus) error {
	return conn(ctx, r.db).Model(&entity.CustomOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"advance_amount": advance,
			"payment_status": status,
		}).Error
}

// LatestReference includes soft-deleted orders since their references stay reserved
func (r *customOrderRepository) LatestReference(ctx context.Context, stem string) (string, error) {
	var refs []string
	err := conn(ctx, r.db).Unscoped().Model(&entity.CustomOrder{}).
		Where("order_reference LIKE ?", stem+"%").
		Order("LENGTH(order_reference) DESC, order_reference DESC").
		Limit(1).
		Pluck("order_reference", &refs).Error
	if err != nil || len(refs) == 0 {
		return "", err
	}
	return refs[0], nil
}
