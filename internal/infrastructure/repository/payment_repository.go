package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment log repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return translate(conn(ctx, r.db).Create(payment).Error, domainRepo.ErrDuplicateReference)
}

func (r *paymentRepository) CountSimple(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Where("order_id = ? AND origin = ?", orderID, enum.PaymentOriginSimple).
		Count(&count).Error
	return count, err
}

func (r *paymentRepository) TotalPaid(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("order_id = ?", orderID).
		Where("origin = ? OR (origin = ? AND is_custom_order = ? AND mirror_of_id IS NULL)",
			enum.PaymentOriginSimple, enum.PaymentOriginLedger, true).
		Row().Scan(&total)
	return total, err
}

func (r *paymentRepository) Totals(ctx context.Context, orderID uuid.UUID) (*domainRepo.PaymentTotals, error) {
	var (
		simpleTotal decimal.Decimal
		simpleCount int64
		ledgerTotal decimal.Decimal
		directTotal decimal.Decimal
		minBalance  decimal.NullDecimal
	)

	simple := enum.PaymentOriginSimple
	ledger := enum.PaymentOriginLedger
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Select(`COALESCE(SUM(CASE WHEN origin = ? THEN amount ELSE 0 END), 0),
			COUNT(CASE WHEN origin = ? THEN 1 END),
			COALESCE(SUM(CASE WHEN origin = ? AND is_custom_order = ? THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN origin = ? AND is_custom_order = ? AND mirror_of_id IS NULL THEN amount ELSE 0 END), 0),
			MIN(CASE WHEN origin = ? AND is_custom_order = ? THEN balance_amount END)`,
			simple, simple, ledger, true, ledger, true, ledger, true).
		Where("order_id = ?", orderID).
		Row().Scan(&simpleTotal, &simpleCount, &ledgerTotal, &directTotal, &minBalance)
	if err != nil {
		return nil, err
	}

	return &domainRepo.PaymentTotals{
		TotalPaid:        simpleTotal.Add(directTotal),
		SimpleTotal:      simpleTotal,
		SimpleCount:      simpleCount,
		LedgerTotal:      ledgerTotal,
		LedgerMinBalance: minBalance,
	}, nil
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := conn(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("paid_at ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) LatestLedgerReference(ctx context.Context, stem string) (string, error) {
	var refs []string
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Where("ledger_reference LIKE ?", stem+"%").
		Order("LENGTH(ledger_reference) DESC, ledger_reference DESC").
		Limit(1).
		Pluck("ledger_reference", &refs).Error
	if err != nil || len(refs) == 0 {
		return "", err
	}
	return refs[0], nil
}
