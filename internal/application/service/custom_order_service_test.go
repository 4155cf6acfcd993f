package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleReferenceOrders hides existing references from the first lookups,
// as a concurrent writer would.
type staleReferenceOrders struct {
	repository.CustomOrderRepository
	staleCalls int32
	calls      int32
}

func (r *staleReferenceOrders) LatestReference(ctx context.Context, stem string) (string, error) {
	if atomic.AddInt32(&r.calls, 1) <= r.staleCalls {
		return "", nil
	}
	return r.CustomOrderRepository.LatestReference(ctx, stem)
}

func TestCreateOrder_AppliesPricingRules(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name         string
		estimated    string
		profit       *string
		quantity     int
		wantProfit   string
		wantQuantity int
		wantPrice    string
	}{
		{"no markup", "1000", nil, 1, "", 1, "1000"},
		{"zero markup", "1000", strPtr("0"), 3, "0", 3, "3000"},
		{"markup with quantity", "1000", strPtr("10"), 2, "10", 2, "2200"},
		{"markup above cap is clamped", "1000", strPtr("20"), 1, "15", 1, "1150"},
		{"negative markup floors at zero", "1000", strPtr("-5"), 1, "0", 1, "1000"},
		{"zero quantity means one piece", "450.75", nil, 0, "", 1, "450.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := env.createOrder(t, tt.estimated, tt.profit, tt.quantity)

			assert.Equal(t, tt.wantQuantity, order.Quantity)
			if tt.wantProfit == "" {
				assert.False(t, order.ProfitPercentage.Valid)
			} else {
				require.True(t, order.ProfitPercentage.Valid)
				assertMoney(t, tt.wantProfit, order.ProfitPercentage.Decimal)
			}
			assertMoney(t, tt.wantPrice, order.TotalAmountWithProfit)
			assertMoney(t, tt.wantPrice, order.BalanceAmount)
			assert.Equal(t, enum.OrderStatusPending, order.OrderStatus)
			assert.Equal(t, enum.PaymentStatusNotPaid, order.CurrentPaymentStatus)
		})
	}
}

func TestCreateOrder_AllocatesSequentialReferences(t *testing.T) {
	env := newTestEnv(t)

	first := env.createOrder(t, "100", nil, 1)
	second := env.createOrder(t, "100", nil, 1)

	assert.Equal(t, "CUST-2024-0001", first.OrderReference)
	assert.Equal(t, "CUST-2024-0002", second.OrderReference)
	assert.Contains(t, env.events.names(), EventOrderCreated)
}

func TestCreateOrder_RetriesOnDuplicateReference(t *testing.T) {
	stale := &staleReferenceOrders{staleCalls: 2}
	env := newTestEnv(t, func(d *testDeps) {
		stale.CustomOrderRepository = d.orders
		d.orders = stale
	})

	// First call is stale but the table is empty, so it succeeds.
	first := env.createOrder(t, "100", nil, 1)
	// Second call collides on CUST-2024-0001, then retries with fresh data.
	second := env.createOrder(t, "100", nil, 1)

	assert.Equal(t, "CUST-2024-0001", first.OrderReference)
	assert.Equal(t, "CUST-2024-0002", second.OrderReference)
	assert.Equal(t, int32(3), atomic.LoadInt32(&stale.calls))
}

func TestCreateOrder_ConflictAfterRetriesExhausted(t *testing.T) {
	stale := &staleReferenceOrders{staleCalls: 100}
	env := newTestEnv(t, func(d *testDeps) {
		stale.CustomOrderRepository = d.orders
		d.orders = stale
	})
	env.createOrder(t, "100", nil, 1)

	_, err := env.orderSvc.CreateOrder(env.ctx, &CreateCustomOrderInput{CustomerName: "Late", EstimatedAmount: dec("100")})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	var count int64
	require.NoError(t, env.db.Model(&entity.CustomOrder{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrder_WithAdvanceRecordsFirstPayment(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.orderSvc.CreateOrder(env.ctx, &CreateCustomOrderInput{
		CustomerName:     "Brian Otieno",
		CustomerEmail:    strPtr("brian@example.com"),
		EstimatedAmount:  dec("1000"),
		ProfitPercentage: ptrDec("10"),
		Quantity:         2,
		AdvanceAmount:    dec("500"),
		PaymentMethod:    "Card",
		Materials: []MaterialInput{
			{MaterialName: "18k gold", Quantity: dec("12.5"), CostPerUnit: ptrDec("60")},
		},
	})
	require.NoError(t, err)

	assertMoney(t, "2200", order.TotalAmountWithProfit)
	assertMoney(t, "500", order.AdvanceAmount)
	assertMoney(t, "1700", order.BalanceAmount)
	assert.Equal(t, int64(1), order.PaymentCount)
	assert.Equal(t, 2, order.RemainingPayments)
	assert.Equal(t, enum.PaymentStatusPartiallyPaid, order.CurrentPaymentStatus)
	assert.Len(t, order.Payments, 2)

	require.Len(t, order.Materials, 1)
	assert.Equal(t, "g", order.Materials[0].Unit)
	assertMoney(t, "750", order.Materials[0].TotalCost.Decimal)

	stored := env.storedOrder(t, order)
	assertMoney(t, "500", stored.AdvanceAmount)
	assert.Equal(t, enum.PaymentStatusPartiallyPaid, stored.PaymentStatus)
}

func TestCreateOrder_AdvanceFailureRollsBackOrder(t *testing.T) {
	env := newTestEnv(t, func(d *testDeps) {
		d.payments = failingLedgerPayments{d.payments}
	})

	_, err := env.orderSvc.CreateOrder(env.ctx, &CreateCustomOrderInput{
		CustomerName:    "Rollback",
		EstimatedAmount: dec("1000"),
		AdvanceAmount:   dec("100"),
		Materials:       []MaterialInput{{MaterialName: "silver", Quantity: dec("3")}},
	})
	require.Error(t, err)

	for _, model := range []interface{}{&entity.CustomOrder{}, &entity.Payment{}, &entity.Material{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orderSvc.CreateOrder(env.ctx, &CreateCustomOrderInput{
		CustomerName:    "  ",
		EstimatedAmount: dec("0"),
		Materials:       []MaterialInput{{MaterialName: "", Quantity: dec("0")}},
	})

	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.TypeValidation, appErr.Type)
	fields := make([]string, 0, len(appErr.Errors))
	for _, fe := range appErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"customer_name", "estimated_amount", "material_name", "quantity"}, fields)
}

func TestGetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.orderSvc.GetOrder(env.ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetOrder_HonoursStoredProfitAboveCap(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, "1000", strPtr("10"), 1)
	require.NoError(t, env.db.Model(&entity.CustomOrder{}).Where("id = ?", order.ID).Update("profit_percentage", dec("20")).Error)

	view, err := env.orderSvc.GetOrder(env.ctx, order.ID)
	require.NoError(t, err)
	assertMoney(t, "1200", view.TotalAmountWithProfit)
}

func TestListOrders_ComputesWithoutWritingBack(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, "1000", nil, 1)
	env.pay(t, order, "1000")
	env.setPaymentStatus(t, order.ID, enum.PaymentStatusNotPaid)
	env.createOrder(t, "50", nil, 1)

	result, err := env.orderSvc.ListOrders(env.ctx, &repository.CustomOrderFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Pagination.Total)

	var listed *OrderView
	for i := range result.Items {
		if result.Items[i].ID == order.ID {
			listed = &result.Items[i]
		}
	}
	require.NotNil(t, listed)
	assert.Equal(t, enum.PaymentStatusFullyPaid, listed.CurrentPaymentStatus)
	assert.Equal(t, enum.PaymentStatusNotPaid, listed.PaymentStatus)
	assert.Equal(t, enum.PaymentStatusNotPaid, env.storedOrder(t, order).PaymentStatus)
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	a := env.createOrder(t, "100", nil, 1)
	env.createOrder(t, "100", nil, 1)
	_, err := env.orderSvc.UpdateStatus(env.ctx, a.ID, "In Progress", nil)
	require.NoError(t, err)

	status := enum.OrderStatusInProgress
	result, err := env.orderSvc.ListOrders(env.ctx, &repository.CustomOrderFilterParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, a.ID, result.Items[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, "100", nil, 1)

	updated, err := env.orderSvc.UpdateStatus(env.ctx, order.ID, "Completed", strPtr("Stone set, polished"))
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCompleted, updated.OrderStatus)
	require.NotNil(t, updated.SupplierNotes)
	assert.Equal(t, "Stone set, polished", *updated.SupplierNotes)

	// Any-to-any moves are allowed outside of pickup.
	updated, err = env.orderSvc.UpdateStatus(env.ctx, order.ID, "Pending", nil)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPending, updated.OrderStatus)

	_, err = env.orderSvc.UpdateStatus(env.ctx, order.ID, "Shipped", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.orderSvc.UpdateStatus(env.ctx, uuid.New(), "Cancelled", nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Contains(t, env.events.names(), EventStatusChanged)
}

func TestMarkPickedUp_RequiresCompleted(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, "100", nil, 1)

	_, err := env.orderSvc.MarkPickedUp(env.ctx, order.ID, nil)
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.TypeGuardFailed, appErr.Type)
	assert.Equal(t, "Pending", appErr.Details["current_status"])
	assert.Nil(t, env.storedOrder(t, order).PickupDate)

	_, err = env.orderSvc.UpdateStatus(env.ctx, order.ID, "Picked Up", nil)
	assert.ErrorIs(t, err, apperror.ErrGuardFailed)

	_, err = env.orderSvc.UpdateStatus(env.ctx, order.ID, "Completed", nil)
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	updated, err := env.orderSvc.MarkPickedUp(env.ctx, order.ID, strPtr("Collected by sister"))
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPickedUp, updated.OrderStatus)
	require.NotNil(t, updated.PickupDate)
	assert.True(t, updated.PickupDate.After(before))
	require.NotNil(t, updated.PickupNotes)
	assert.Equal(t, "Collected by sister", *updated.PickupNotes)
	assert.Contains(t, env.events.names(), EventPickedUp)
}

func TestListCompleted(t *testing.T) {
	env := newTestEnv(t)
	done := env.createOrder(t, "100", nil, 1)
	collected := env.createOrder(t, "100", nil, 1)
	env.createOrder(t, "100", nil, 1)

	for _, o := range []*OrderView{done, collected} {
		_, err := env.orderSvc.UpdateStatus(env.ctx, o.ID, "Completed", nil)
		require.NoError(t, err)
	}
	_, err := env.orderSvc.MarkPickedUp(env.ctx, collected.ID, nil)
	require.NoError(t, err)

	ready, err := env.orderSvc.ListCompleted(env.ctx, false, nil)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, done.ID, ready[0].ID)

	all, err := env.orderSvc.ListCompleted(env.ctx, true, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddMaterials(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, "100", nil, 1)

	created, err := env.orderSvc.AddMaterials(env.ctx, order.ID, []MaterialInput{
		{MaterialName: "Sapphire", Quantity: dec("2"), Unit: "pcs", CostPerUnit: ptrDec("45.50")},
		{MaterialName: "Platinum", Quantity: dec("4.2")},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, uuid.Nil, created[0].ID)
	assertMoney(t, "91", created[0].TotalCost.Decimal)
	assert.False(t, created[1].TotalCost.Valid)

	stored, err := env.deps.materials.ListByOrder(env.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	_, err = env.orderSvc.AddMaterials(env.ctx, order.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.orderSvc.AddMaterials(env.ctx, uuid.New(), []MaterialInput{{MaterialName: "Gold", Quantity: dec("1")}})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
