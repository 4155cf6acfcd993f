package service

import (
	"context"
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
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CustomOrderService handles custom order operations
type CustomOrderService struct {
	tx        repository.Transactor
	orders    repository.CustomOrderRepository
	payments  repository.PaymentRepository
	materials repository.MaterialRepository
	ledger    *LedgerService
	events    eventbus.Publisher
	rules     config.LedgerConfig
	now       func() time.Time
}

// NewCustomOrderService creates a new custom order service
func NewCustomOrderService(
	tx repository.Transactor,
	orders repository.CustomOrderRepository,
	payments repository.PaymentRepository,
	materials repository.MaterialRepository,
	ledger *LedgerService,
	events eventbus.Publisher,
	rules config.LedgerConfig,
) *CustomOrderService {
	return &CustomOrderService{
		tx:        tx,
		orders:    orders,
		payments:  payments,
		materials: materials,
		ledger:    ledger,
		events:    events,
		rules:     rules,
		now:       time.Now,
	}
}

// MaterialInput represents one material line of an order
type MaterialInput struct {
	MaterialName string
	Quantity     decimal.Decimal
	Unit         string
	CostPerUnit  *decimal.Decimal
	SupplierID   *uuid.UUID
}

// CreateCustomOrderInput represents the create custom order input
type CreateCustomOrderInput struct {
	CustomerName            string
	CustomerPhone           *string
	CustomerEmail           *string
	EstimatedAmount         decimal.Decimal
	ProfitPercentage        *decimal.Decimal
	Quantity                int
	AdvanceAmount           decimal.Decimal
	PaymentMethod           string
	CategoryID              *uuid.UUID
	SupplierID              *uuid.UUID
	BranchID                *uuid.UUID
	CreatedBy               *uuid.UUID
	Description             *string
	SpecialRequirements     *string
	OrderDate               *time.Time
	EstimatedCompletionDate *time.Time
	Materials               []MaterialInput
}

// OrderView is a custom order together with its computed money position.
// The summary fields shadow the cached columns of the order.
type OrderView struct {
	entity.CustomOrder
	TotalAmountWithProfit decimal.Decimal    `json:"total_amount_with_profit"`
	AdvanceAmount         decimal.Decimal    `json:"advance_amount"`
	BalanceAmount         decimal.Decimal    `json:"balance_amount"`
	PaymentCount          int64              `json:"payment_count"`
	RemainingPayments     int                `json:"remaining_payments"`
	CurrentPaymentStatus  enum.PaymentStatus `json:"current_payment_status"`
}

func newOrderView(order entity.CustomOrder, summary *OrderSummary) OrderView {
	return OrderView{
		CustomOrder:           order,
		TotalAmountWithProfit: summary.TotalAmountWithProfit,
		AdvanceAmount:         summary.TotalPaid,
		BalanceAmount:         summary.Balance,
		PaymentCount:          summary.PaymentCount,
		RemainingPayments:     summary.RemainingPayments,
		CurrentPaymentStatus:  summary.PaymentStatus,
	}
}

// CreateOrder creates a custom order and, when an advance is given, records
// it as the first payment in the same transaction.
func (s *CustomOrderService) CreateOrder(ctx context.Context, input *CreateCustomOrderInput) (*OrderView, error) {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.CustomerName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customer_name", Message: "Customer name is required"})
	}
	if !input.EstimatedAmount.IsPositive() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "estimated_amount", Message: "Estimated amount must be greater than zero"})
	}
	if input.AdvanceAmount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "advance_amount", Message: "Advance amount cannot be negative"})
	}
	if errs := validateMaterials(input.Materials); len(errs) > 0 {
		fieldErrors = append(fieldErrors, errs...)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	profit := decimal.NullDecimal{}
	if input.ProfitPercentage != nil {
		profit = decimal.NewNullDecimal(pricing.ClampProfit(*input.ProfitPercentage, decimal.NewFromInt(int64(s.profitCap()))))
	}

	var order *entity.CustomOrder
	err := retryOnDuplicate(s.rules.ReferenceRetries, func() error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			now := s.now()
			stem := pricing.ReferenceStem(pricing.OrderReferencePrefix, now.Year())
			latest, err := s.orders.LatestReference(ctx, stem)
			if err != nil {
				return storageErr("allocate order reference", err)
			}

			orderDate := now
			if input.OrderDate != nil {
				orderDate = *input.OrderDate
			}

			order = &entity.CustomOrder{
				OrderReference:          pricing.NextReference(pricing.OrderReferencePrefix, now.Year(), latest),
				CustomerName:            strings.TrimSpace(input.CustomerName),
				CustomerPhone:           input.CustomerPhone,
				CustomerEmail:           input.CustomerEmail,
				EstimatedAmount:         input.EstimatedAmount,
				ProfitPercentage:        profit,
				Quantity:                pricing.NormalizeQuantity(input.Quantity),
				AdvanceAmount:           decimal.Zero,
				OrderStatus:             enum.OrderStatusPending,
				PaymentStatus:           enum.PaymentStatusNotPaid,
				CategoryID:              input.CategoryID,
				SupplierID:              input.SupplierID,
				BranchID:                input.BranchID,
				CreatedBy:               input.CreatedBy,
				Description:             input.Description,
				SpecialRequirements:     input.SpecialRequirements,
				OrderDate:               orderDate,
				EstimatedCompletionDate: input.EstimatedCompletionDate,
			}
			if err := s.orders.Create(ctx, order); err != nil {
				return storageErr("insert order", err)
			}

			if len(input.Materials) > 0 {
				if err := s.materials.CreateBatch(ctx, buildMaterials(order.ID, input.Materials)); err != nil {
					return storageErr("insert materials", err)
				}
			}

			if input.AdvanceAmount.IsPositive() {
				notes := "Initial advance payment"
				_, err := s.ledger.recordPaymentTx(ctx, order, &RecordPaymentInput{
					OrderID:   order.ID,
					Amount:    input.AdvanceAmount,
					Method:    input.PaymentMethod,
					Notes:     &notes,
					PaidAt:    &orderDate,
					CreatedBy: input.CreatedBy,
					BranchID:  input.BranchID,
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventOrderCreated, order.ID.String(), map[string]interface{}{
		"order_reference": view.OrderReference,
		"customer_name":   view.CustomerName,
		"total_amount":    view.TotalAmountWithProfit,
		"advance_amount":  view.AdvanceAmount,
		"payment_status":  view.CurrentPaymentStatus,
	})
	return view, nil
}

// GetOrder retrieves an order with its materials, images, payments and summary
func (s *CustomOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.orders.GetWithDetails(ctx, id)
	if err != nil {
		return nil, storageErr("load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Custom order")
	}

	summary, err := s.ledger.Summary(ctx, order)
	if err != nil {
		return nil, err
	}

	view := newOrderView(*order, summary)
	return &view, nil
}

// ListOrders lists custom orders with their computed summaries. Stored
// payment status is never written back from here.
func (s *CustomOrderService) ListOrders(ctx context.Context, params *repository.CustomOrderFilterParams) (*pagination.PaginatedResult[OrderView], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	orders, total, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, storageErr("list orders", err)
	}

	views, err := s.views(ctx, orders)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(views, pag), nil
}

// ListCompleted lists orders ready for pickup, optionally with those already collected
func (s *CustomOrderService) ListCompleted(ctx context.Context, includePickedUp bool, branchID *uuid.UUID) ([]OrderView, error) {
	orders, err := s.orders.ListCompleted(ctx, includePickedUp, branchID)
	if err != nil {
		return nil, storageErr("list completed orders", err)
	}
	return s.views(ctx, orders)
}

func (s *CustomOrderService) views(ctx context.Context, orders []entity.CustomOrder) ([]OrderView, error) {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		summary, err := s.ledger.Summary(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, newOrderView(orders[i], summary))
	}
	return views, nil
}

// UpdateStatus moves an order to any known status. Picked Up has its own
// guarded operation.
func (s *CustomOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, supplierNotes *string) (*entity.CustomOrder, error) {
	parsed, err := enum.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, apperror.NewFieldError("order_status", "Invalid order status")
	}
	if parsed == enum.OrderStatusPickedUp {
		return s.MarkPickedUp(ctx, id, supplierNotes)
	}

	var previous enum.OrderStatus
	var updated *entity.CustomOrder
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return storageErr("load order", err)
		}
		if order == nil {
			return apperror.NewNotFoundError("Custom order")
		}
		previous = order.OrderStatus

		if err := s.orders.UpdateStatus(ctx, id, parsed, supplierNotes); err != nil {
			return storageErr("update order status", err)
		}

		updated, err = s.orders.GetByID(ctx, id)
		return storageErr("load order", err)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventStatusChanged, id.String(), map[string]interface{}{
		"order_reference": updated.OrderReference,
		"previous_status": previous,
		"order_status":    parsed,
	})
	return updated, nil
}

// MarkPickedUp records that the customer collected the piece. The order must
// currently be Completed.
func (s *CustomOrderService) MarkPickedUp(ctx context.Context, id uuid.UUID, notes *string) (*entity.CustomOrder, error) {
	var updated *entity.CustomOrder
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return storageErr("load order", err)
		}
		if order == nil {
			return apperror.NewNotFoundError("Custom order")
		}
		if order.OrderStatus != enum.OrderStatusCompleted {
			return apperror.NewGuardError("Order must be completed before it can be marked as picked up", order.OrderStatus.String())
		}

		if err := s.orders.MarkPickedUp(ctx, id, notes); err != nil {
			return storageErr("mark order picked up", err)
		}

		updated, err = s.orders.GetByID(ctx, id)
		return storageErr("load order", err)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, EventPickedUp, id.String(), map[string]interface{}{
		"order_reference": updated.OrderReference,
		"pickup_date":     updated.PickupDate,
	})
	return updated, nil
}

// AddMaterials appends material lines to an existing order
func (s *CustomOrderService) AddMaterials(ctx context.Context, orderID uuid.UUID, inputs []MaterialInput) ([]entity.Material, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewFieldError("materials", "At least one material is required")
	}
	if errs := validateMaterials(inputs); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	var created []entity.Material
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return storageErr("load order", err)
		}
		if order == nil {
			return apperror.NewNotFoundError("Custom order")
		}

		created = buildMaterials(orderID, inputs)
		return storageErr("insert materials", s.materials.CreateBatch(ctx, created))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CustomOrderService) profitCap() int {
	if s.rules.ProfitCap <= 0 {
		return pricing.DefaultProfitCap
	}
	return s.rules.ProfitCap
}

func validateMaterials(inputs []MaterialInput) []apperror.FieldError {
	var errs []apperror.FieldError
	for _, m := range inputs {
		if strings.TrimSpace(m.MaterialName) == "" {
			errs = append(errs, apperror.FieldError{Field: "material_name", Message: "Material name is required"})
		}
		if !m.Quantity.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: "quantity", Message: "Material quantity must be greater than zero"})
		}
		if m.CostPerUnit != nil && m.CostPerUnit.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: "cost_per_unit", Message: "Cost per unit cannot be negative"})
		}
	}
	return errs
}

func buildMaterials(orderID uuid.UUID, inputs []MaterialInput) []entity.Material {
	materials := make([]entity.Material, 0, len(inputs))
	for _, m := range inputs {
		unit := strings.TrimSpace(m.Unit)
		if unit == "" {
			unit = "g"
		}
		material := entity.Material{
			OrderID:      orderID,
			MaterialName: strings.TrimSpace(m.MaterialName),
			Quantity:     m.Quantity,
			Unit:         unit,
			SupplierID:   m.SupplierID,
		}
		if m.CostPerUnit != nil {
			material.CostPerUnit = decimal.NewNullDecimal(*m.CostPerUnit)
			material.TotalCost = decimal.NewNullDecimal(m.CostPerUnit.Mul(m.Quantity).Round(2))
		}
		materials = append(materials, material)
	}
	return materials
}
