package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/pkg/eventbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type testDeps struct {
	orders    repository.CustomOrderRepository
	payments  repository.PaymentRepository
	materials repository.MaterialRepository
	images    repository.ImageRepository
	emailLogs repository.EmailLogRepository
}

type envOption func(*testDeps)

type testEnv struct {
	ctx      context.Context
	db       *gorm.DB
	deps     testDeps
	events   *recordingPublisher
	ledger   *LedgerService
	orderSvc *CustomOrderService
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	deps := testDeps{
		orders:    infraRepo.NewCustomOrderRepository(db),
		payments:  infraRepo.NewPaymentRepository(db),
		materials: infraRepo.NewMaterialRepository(db),
		images:    infraRepo.NewImageRepository(db),
		emailLogs: infraRepo.NewEmailLogRepository(db),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	events := &recordingPublisher{}
	rules := config.DefaultLedgerConfig()
	tx := database.NewTxManager(db)

	ledger := NewLedgerService(tx, deps.orders, deps.payments, events, rules)
	ledger.now = func() time.Time { return fixedNow }
	orderSvc := NewCustomOrderService(tx, deps.orders, deps.payments, deps.materials, ledger, events, rules)
	orderSvc.now = func() time.Time { return fixedNow }

	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		deps:     deps,
		events:   events,
		ledger:   ledger,
		orderSvc: orderSvc,
	}
}

// setPaymentStatus writes the stored label directly to simulate drift
func (e *testEnv) setPaymentStatus(t *testing.T, id uuid.UUID, status enum.PaymentStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&entity.CustomOrder{}).Where("id = ?", id).Update("payment_status", status).Error)
}

func (e *testEnv) createOrder(t *testing.T, estimated string, profit *string, quantity int) *OrderView {
	t.Helper()
	input := &CreateCustomOrderInput{
		CustomerName:    "Amina Wanjiru",
		EstimatedAmount: dec(estimated),
		Quantity:        quantity,
	}
	if profit != nil {
		p := dec(*profit)
		input.ProfitPercentage = &p
	}
	order, err := e.orderSvc.CreateOrder(e.ctx, input)
	require.NoError(t, err)
	return order
}

func (e *testEnv) pay(t *testing.T, order *OrderView, amount string) *PaymentResult {
	t.Helper()
	res, err := e.ledger.RecordPayment(e.ctx, &RecordPaymentInput{OrderID: order.ID, Amount: dec(amount), Method: "M-Pesa"})
	require.NoError(t, err)
	return res
}

func (e *testEnv) paymentRows(t *testing.T, order *OrderView) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&entity.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error)
	return count
}

func (e *testEnv) storedOrder(t *testing.T, order *OrderView) *entity.CustomOrder {
	t.Helper()
	stored, err := e.deps.orders.GetByID(e.ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	return stored
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
