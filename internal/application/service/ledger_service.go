package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/pricing"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/eventbus"
	"github.com/shopspring/decimal"
)

// DefaultPaymentMethod is used when a payment arrives without one
const DefaultPaymentMethod = "Cash"

// LedgerService records payments against custom orders and keeps the
// cached totals on the order in step with the payment log.
type LedgerService struct {
	tx       repository.Transactor
	orders   repository.CustomOrderRepository
	payments repository.PaymentRepository
	events   eventbus.Publisher
	rules    config.LedgerConfig
	now      func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	tx repository.Transactor,
	orders repository.CustomOrderRepository,
	payments repository.PaymentRepository,
	events eventbus.Publisher,
	rules config.LedgerConfig,
) *LedgerService {
	return &LedgerService{
		tx:       tx,
		orders:   orders,
		payments: payments,
		events:   events,
		rules:    rules,
		now:      time.Now,
	}
}

// RecordPaymentInput represents a simple payment taken at the counter
type RecordPaymentInput struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Method    string
	Reference *string
	Notes     *string
	PaidAt    *time.Time
	CreatedBy *uuid.UUID
	BranchID  *uuid.UUID
}

// LedgerPaymentInput represents a payment entered directly at the advance desk
type LedgerPaymentInput struct {
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Method        string
	Reference     *string
	Notes         *string
	PaidAt        *time.Time
	IsCustomOrder *bool
	CreatedBy     *uuid.UUID
	BranchID      *uuid.UUID
}

// PaymentResult is returned after a payment is committed
type PaymentResult struct {
	PaymentID         uuid.UUID          `json:"payment_id"`
	LedgerReference   string             `json:"ledger_reference"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	TotalPaid         decimal.Decimal    `json:"total_paid"`
	Balance           decimal.Decimal    `json:"balance"`
	PaymentStatus     enum.PaymentStatus `json:"payment_status"`
	PaymentCount      int64              `json:"payment_count"`
	RemainingPayments int                `json:"remaining_payments"`
}

// OrderSummary is the computed money position of an order
type OrderSummary struct {
	TotalAmountWithProfit decimal.Decimal    `json:"total_amount_with_profit"`
	TotalPaid             decimal.Decimal    `json:"advance_amount"`
	Balance               decimal.Decimal    `json:"balance_amount"`
	PaymentCount          int64              `json:"payment_count"`
	RemainingPayments     int                `json:"remaining_payments"`
	PaymentStatus         enum.PaymentStatus `json:"current_payment_status"`
}

// PaymentBreakdown lists every payment row of an order with its totals
type PaymentBreakdown struct {
	OrderID        uuid.UUID        `json:"order_id"`
	OrderReference string           `json:"order_reference"`
	Payments       []entity.Payment `json:"payments"`
	OrderSummary
}

// RefreshResult reports what a status refresh changed
type RefreshResult struct {
	OrderID        uuid.UUID          `json:"order_id"`
	PreviousStatus enum.PaymentStatus `json:"previous_status"`
	PaymentStatus  enum.PaymentStatus `json:"payment_status"`
	TotalPaid      decimal.Decimal    `json:"total_paid"`
	Changed        bool               `json:"changed"`
}

// ReconcileReport summarises a reconciliation pass
type ReconcileReport struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// RecordPayment stores a simple payment, its ledger mirror and the new
// order totals in one transaction.
func (s *LedgerService) RecordPayment(ctx context.Context, input *RecordPaymentInput) (*PaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount
	}

	var result *PaymentResult
	err := retryOnDuplicate(s.rules.ReferenceRetries, func() error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			order, err := s.orders.GetByID(ctx, input.OrderID)
			if err != nil {
				return storageErr("load order", err)
			}
			if order == nil {
				return apperror.NewNotFoundError("Custom order")
			}

			result, err = s.recordPaymentTx(ctx, order, input)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventPaymentRecorded, input.OrderID.String(), result)
	return result, nil
}

// recordPaymentTx must run inside a transaction carried by ctx
func (s *LedgerService) recordPaymentTx(ctx context.Context, order *entity.CustomOrder, input *RecordPaymentInput) (*PaymentResult, error) {
	count, err := s.payments.CountSimple(ctx, order.ID)
	if err != nil {
		return nil, storageErr("count payments", err)
	}
	if count >= int64(s.rules.MaxSimplePayments) {
		return nil, apperror.NewPaymentLimitError(s.rules.MaxSimplePayments, count)
	}

	now := s.now()
	paidAt := now
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = DefaultPaymentMethod
	}
	branchID := input.BranchID
	if branchID == nil {
		branchID = order.BranchID
	}

	simple := &entity.Payment{
		OrderID:          order.ID,
		Origin:           enum.PaymentOriginSimple,
		Amount:           input.Amount,
		Method:           method,
		PaymentReference: input.Reference,
		Notes:            input.Notes,
		PaidAt:           paidAt,
		CreatedBy:        input.CreatedBy,
		BranchID:         branchID,
	}
	if err := s.payments.Create(ctx, simple); err != nil {
		return nil, storageErr("insert payment", err)
	}

	totalPaid, err := s.payments.TotalPaid(ctx, order.ID)
	if err != nil {
		return nil, storageErr("aggregate payments", err)
	}
	price := order.CustomerPrice()
	balance, status := pricing.DeriveStatus(price, totalPaid)

	ledgerRef, err := s.nextLedgerReference(ctx, now)
	if err != nil {
		return nil, err
	}

	customerName := order.CustomerName
	mirror := &entity.Payment{
		OrderID:          order.ID,
		Origin:           enum.PaymentOriginLedger,
		Amount:           input.Amount,
		Method:           method,
		PaymentReference: input.Reference,
		Notes:            input.Notes,
		PaidAt:           paidAt,
		LedgerReference:  &ledgerRef,
		CustomerName:     &customerName,
		TotalAmount:      decimal.NewNullDecimal(price),
		BalanceAmount:    decimal.NewNullDecimal(balance),
		PaymentStatus:    &status,
		IsCustomOrder:    true,
		CreatedBy:        input.CreatedBy,
		BranchID:         branchID,
		MirrorOfID:       &simple.ID,
	}
	if err := s.payments.Create(ctx, mirror); err != nil {
		return nil, storageErr("insert ledger entry", err)
	}

	if err := s.orders.UpdatePaymentSummary(ctx, order.ID, totalPaid, status); err != nil {
		return nil, storageErr("update order totals", err)
	}

	newCount := count + 1
	return &PaymentResult{
		PaymentID:         simple.ID,
		LedgerReference:   ledgerRef,
		TotalAmount:       price,
		TotalPaid:         totalPaid,
		Balance:           balance,
		PaymentStatus:     status,
		PaymentCount:      newCount,
		RemainingPayments: pricing.RemainingPayments(s.rules.MaxSimplePayments, newCount),
	}, nil
}

// RecordLedgerPayment stores a payment taken at the advance desk. It does
// not count toward the simple payment limit.
func (s *LedgerService) RecordLedgerPayment(ctx context.Context, input *LedgerPaymentInput) (*PaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount
	}

	isCustom := true
	if input.IsCustomOrder != nil {
		isCustom = *input.IsCustomOrder
	}

	var result *PaymentResult
	err := retryOnDuplicate(s.rules.ReferenceRetries, func() error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			order, err := s.orders.GetByID(ctx, input.OrderID)
			if err != nil {
				return storageErr("load order", err)
			}
			if order == nil {
				return apperror.NewNotFoundError("Custom order")
			}

			before, err := s.payments.TotalPaid(ctx, order.ID)
			if err != nil {
				return storageErr("aggregate payments", err)
			}
			totalPaid := before
			if isCustom {
				totalPaid = before.Add(input.Amount)
			}
			price := order.CustomerPrice()
			balance, status := pricing.DeriveStatus(price, totalPaid)

			now := s.now()
			paidAt := now
			if input.PaidAt != nil {
				paidAt = *input.PaidAt
			}
			method := strings.TrimSpace(input.Method)
			if method == "" {
				method = DefaultPaymentMethod
			}
			branchID := input.BranchID
			if branchID == nil {
				branchID = order.BranchID
			}

			ledgerRef, err := s.nextLedgerReference(ctx, now)
			if err != nil {
				return err
			}

			customerName := order.CustomerName
			row := &entity.Payment{
				OrderID:          order.ID,
				Origin:           enum.PaymentOriginLedger,
				Amount:           input.Amount,
				Method:           method,
				PaymentReference: input.Reference,
				Notes:            input.Notes,
				PaidAt:           paidAt,
				LedgerReference:  &ledgerRef,
				CustomerName:     &customerName,
				IsCustomOrder:    isCustom,
				CreatedBy:        input.CreatedBy,
				BranchID:         branchID,
			}
			if isCustom {
				row.TotalAmount = decimal.NewNullDecimal(price)
				row.BalanceAmount = decimal.NewNullDecimal(balance)
				row.PaymentStatus = &status
			}
			if err := s.payments.Create(ctx, row); err != nil {
				return storageErr("insert ledger entry", err)
			}

			if isCustom {
				if err := s.orders.UpdatePaymentSummary(ctx, order.ID, totalPaid, status); err != nil {
					return storageErr("update order totals", err)
				}
			}

			count, err := s.payments.CountSimple(ctx, order.ID)
			if err != nil {
				return storageErr("count payments", err)
			}

			result = &PaymentResult{
				PaymentID:         row.ID,
				LedgerReference:   ledgerRef,
				TotalAmount:       price,
				TotalPaid:         totalPaid,
				Balance:           balance,
				PaymentStatus:     status,
				PaymentCount:      count,
				RemainingPayments: pricing.RemainingPayments(s.rules.MaxSimplePayments, count),
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventLedgerPaymentRecorded, input.OrderID.String(), result)
	return result, nil
}

// TotalPaid returns the true amount paid toward an order
func (s *LedgerService) TotalPaid(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.payments.TotalPaid(ctx, orderID)
	if err != nil {
		return decimal.Zero, storageErr("aggregate payments", err)
	}
	return total, nil
}

// Summary computes the money position of order without writing anything
func (s *LedgerService) Summary(ctx context.Context, order *entity.CustomOrder) (*OrderSummary, error) {
	totals, err := s.payments.Totals(ctx, order.ID)
	if err != nil {
		return nil, storageErr("aggregate payments", err)
	}
	return s.summarize(order, totals), nil
}

func (s *LedgerService) summarize(order *entity.CustomOrder, totals *repository.PaymentTotals) *OrderSummary {
	price := order.CustomerPrice()
	return &OrderSummary{
		TotalAmountWithProfit: price,
		TotalPaid:             totals.TotalPaid,
		Balance:               price.Sub(totals.TotalPaid),
		PaymentCount:          totals.SimpleCount,
		RemainingPayments:     pricing.RemainingPayments(s.rules.MaxSimplePayments, totals.SimpleCount),
		PaymentStatus:         pricing.ReconcileStatus(snapshot(price, totals)),
	}
}

func snapshot(price decimal.Decimal, totals *repository.PaymentTotals) pricing.Snapshot {
	return pricing.Snapshot{
		Price:            price,
		TotalPaid:        totals.TotalPaid,
		SimpleTotal:      totals.SimpleTotal,
		LedgerTotal:      totals.LedgerTotal,
		LedgerMinBalance: totals.LedgerMinBalance,
	}
}

// PaymentBreakdown lists all payment rows of an order with its totals
func (s *LedgerService) PaymentBreakdown(ctx context.Context, orderID uuid.UUID) (*PaymentBreakdown, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageErr("load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Custom order")
	}

	payments, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr("list payments", err)
	}

	summary, err := s.Summary(ctx, order)
	if err != nil {
		return nil, err
	}

	return &PaymentBreakdown{
		OrderID:        order.ID,
		OrderReference: order.OrderReference,
		Payments:       payments,
		OrderSummary:   *summary,
	}, nil
}

// RefreshPaymentStatus re-derives the payment status of an order from its
// payment log and writes it back only when the stored values differ.
func (s *LedgerService) RefreshPaymentStatus(ctx context.Context, orderID uuid.UUID) (*RefreshResult, error) {
	var result *RefreshResult
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return storageErr("load order", err)
		}
		if order == nil {
			return apperror.NewNotFoundError("Custom order")
		}

		totals, err := s.payments.Totals(ctx, orderID)
		if err != nil {
			return storageErr("aggregate payments", err)
		}

		status := pricing.ReconcileStatus(snapshot(order.CustomerPrice(), totals))
		changed := status != order.PaymentStatus || !totals.TotalPaid.Equal(order.AdvanceAmount)
		if changed {
			if err := s.orders.UpdatePaymentSummary(ctx, orderID, totals.TotalPaid, status); err != nil {
				return storageErr("update order totals", err)
			}
		}

		result = &RefreshResult{
			OrderID:        orderID,
			PreviousStatus: order.PaymentStatus,
			PaymentStatus:  status,
			TotalPaid:      totals.TotalPaid,
			Changed:        changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		publish(ctx, s.events, EventPaymentStatusReconciled, orderID.String(), result)
	}
	return result, nil
}

// ReconcileAll refreshes every order. Failures are counted and logged so
// one bad order does not stop the pass.
func (s *LedgerService) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	ids, err := s.orders.ListIDs(ctx)
	if err != nil {
		return nil, storageErr("list orders", err)
	}

	report := &ReconcileReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Checked++
		res, err := s.RefreshPaymentStatus(ctx, id)
		if err != nil {
			report.Failed++
			log.Printf("Warning: failed to reconcile order %s: %v", id, err)
			continue
		}
		if res.Changed {
			report.Updated++
		}
	}

	log.Printf("Reconciliation finished: %d checked, %d updated, %d failed", report.Checked, report.Updated, report.Failed)
	return report, nil
}

func (s *LedgerService) nextLedgerReference(ctx context.Context, now time.Time) (string, error) {
	stem := pricing.ReferenceStem(pricing.LedgerReferencePrefix, now.Year())
	latest, err := s.payments.LatestLedgerReference(ctx, stem)
	if err != nil {
		return "", storageErr("allocate ledger reference", err)
	}
	return pricing.NextReference(pricing.LedgerReferencePrefix, now.Year(), latest), nil
}
