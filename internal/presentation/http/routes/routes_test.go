package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/presentation/http/middleware"
	"github.com/sangkips/atelier-api/pkg/email"
	"github.com/sangkips/atelier-api/pkg/eventbus"
	"github.com/sangkips/atelier-api/pkg/storage"
	"github.com/sangkips/atelier-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details map[string]any  `json:"details"`
}

type server struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	jwt    *utils.JWTManager
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteDB(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		App:    config.AppConfig{Name: "atelier-api"},
		Ledger: config.DefaultLedgerConfig(),
	}

	orders := infraRepo.NewCustomOrderRepository(db)
	payments := infraRepo.NewPaymentRepository(db)
	branches := infraRepo.NewBranchRepository(db)
	publisher := eventbus.NopPublisher{}
	tx := database.NewTxManager(db)

	ledger := service.NewLedgerService(tx, orders, payments, publisher, cfg.Ledger)
	orderSvc := service.NewCustomOrderService(tx, orders, payments, infraRepo.NewMaterialRepository(db), ledger, publisher, cfg.Ledger)
	notifications := service.NewNotificationService(orders, ledger, infraRepo.NewEmailLogRepository(db), email.NewEmailService(email.EmailConfig{ShopName: "Atelier"}))
	uploads := service.NewUploadService(orders, infraRepo.NewImageRepository(db), storage.NewImageStore(t.TempDir(), 0))
	catalog := service.NewCatalogService(branches, infraRepo.NewCategoryRepository(db), infraRepo.NewSupplierRepository(db))

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFromWindow(1000, 1))
	t.Cleanup(limiter.Close)

	jwtManager := utils.NewJWTManager(testSecret, "")
	router := Setup(&Handlers{
		CustomOrder: handler.NewCustomOrderHandler(orderSvc, ledger, notifications, uploads),
		Catalog:     handler.NewCatalogHandler(catalog),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: infraRepo.NewIdempotencyRepository(db),
		BranchRepo:      branches,
		RateLimiter:     limiter,
	})

	s := &server{t: t, db: db, router: router, jwt: jwtManager}
	s.token = s.tokenFor([]string{"staff"}, nil)
	return s
}

func (s *server) tokenFor(roles []string, branchID *uuid.UUID) string {
	s.t.Helper()
	token, err := s.jwt.GenerateAccessToken(uuid.New(), "staff@atelier.test", roles, branchID, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *server) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type orderBody struct {
	ID                    uuid.UUID       `json:"id"`
	OrderReference        string          `json:"order_reference"`
	OrderStatus           string          `json:"order_status"`
	TotalAmountWithProfit decimal.Decimal `json:"total_amount_with_profit"`
	AdvanceAmount         decimal.Decimal `json:"advance_amount"`
	BalanceAmount         decimal.Decimal `json:"balance_amount"`
	PaymentCount          int64           `json:"payment_count"`
	CurrentPaymentStatus  string          `json:"current_payment_status"`
}

func (s *server) createOrder() orderBody {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/custom-orders/create", map[string]any{
		"customer_name":     "Amina Wanjiru",
		"customer_email":    "amina@example.com",
		"estimated_amount":  "1000",
		"profit_percentage": "10",
		"quantity":          2,
	}, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var order orderBody
	decode(s.t, w, &order)
	return order
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/custom-orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.token = "not-a-token"
	w = s.do(http.MethodGet, "/api/v1/custom-orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetOrder(t *testing.T) {
	s := newServer(t)
	created := s.createOrder()

	assert.Equal(t, "Pending", created.OrderStatus)
	assert.True(t, decimal.RequireFromString("2200").Equal(created.TotalAmountWithProfit))
	assert.Equal(t, "Not Paid", created.CurrentPaymentStatus)

	w := s.do(http.MethodGet, "/api/v1/custom-orders/"+created.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got orderBody
	decode(t, w, &got)
	assert.Equal(t, created.OrderReference, got.OrderReference)

	w = s.do(http.MethodGet, "/api/v1/custom-orders/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/custom-orders/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/v1/custom-orders/create", map[string]any{
		"customer_name":    "Amina",
		"estimated_amount": "-5",
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w, nil)
	assert.False(t, env.Success)
}

func TestRecordPayment_IdempotencyAndLimit(t *testing.T) {
	s := newServer(t)
	order := s.createOrder()
	path := "/api/v1/custom-orders/" + order.ID.String() + "/payments"

	w := s.do(http.MethodPost, path, map[string]any{"amount": "500"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	key := map[string]string{middleware.IdempotencyKeyHeader: "pay-1"}
	w = s.do(http.MethodPost, path, map[string]any{"amount": "500", "payment_method": "M-Pesa"}, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := w.Body.String()

	var result service.PaymentResult
	decode(t, w, &result)
	assert.True(t, decimal.RequireFromString("1700").Equal(result.Balance))
	assert.Equal(t, "Partially Paid", string(result.PaymentStatus))
	assert.Equal(t, 2, result.RemainingPayments)

	replay := s.do(http.MethodPost, path, map[string]any{"amount": "500", "payment_method": "M-Pesa"}, key)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first, replay.Body.String())

	var simple int64
	require.NoError(t, s.db.Model(&entity.Payment{}).Where("order_id = ? AND origin = ?", order.ID, "simple").Count(&simple).Error)
	assert.Equal(t, int64(1), simple)

	for _, k := range []string{"pay-2", "pay-3"} {
		w = s.do(http.MethodPost, path, map[string]any{"amount": "100"}, map[string]string{middleware.IdempotencyKeyHeader: k})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, path, map[string]any{"amount": "100"}, map[string]string{middleware.IdempotencyKeyHeader: "pay-4"})
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w, nil)
	assert.EqualValues(t, 3, env.Details["payment_count"])

	w = s.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown struct {
		Payments     []json.RawMessage `json:"payments"`
		PaymentCount int64             `json:"payment_count"`
		TotalPaid    decimal.Decimal   `json:"advance_amount"`
	}
	decode(t, w, &breakdown)
	assert.Len(t, breakdown.Payments, 6)
	assert.Equal(t, int64(3), breakdown.PaymentCount)
	assert.True(t, decimal.RequireFromString("700").Equal(breakdown.TotalPaid))
}

func TestRecordPayment_KeyReusedOnAnotherOrder(t *testing.T) {
	s := newServer(t)
	first := s.createOrder()
	second := s.createOrder()
	key := map[string]string{middleware.IdempotencyKeyHeader: "till-1"}

	w := s.do(http.MethodPost, "/api/v1/custom-orders/"+first.ID.String()+"/payments", map[string]any{"amount": "500"}, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/custom-orders/"+second.ID.String()+"/payments", map[string]any{"amount": "900"}, key)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))

	var rows int64
	require.NoError(t, s.db.Model(&entity.Payment{}).Where("order_id = ?", second.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	s := newServer(t)
	order := s.createOrder()

	w := s.do(http.MethodPost, "/api/v1/custom-orders/"+order.ID.String()+"/payments",
		map[string]any{"amount": "0"}, map[string]string{middleware.IdempotencyKeyHeader: "zero"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusWorkflow(t *testing.T) {
	s := newServer(t)
	order := s.createOrder()
	base := "/api/v1/custom-orders/" + order.ID.String()

	w := s.do(http.MethodPut, base+"/mark-as-picked-up", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "Pending", env.Details["current_status"])

	w = s.do(http.MethodPut, base+"/status", map[string]any{"order_status": "Shipped"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, base+"/status", map[string]any{"order_status": "Completed"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/custom-orders/completed-orders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var completed []orderBody
	decode(t, w, &completed)
	require.Len(t, completed, 1)
	assert.Equal(t, order.ID, completed[0].ID)

	w = s.do(http.MethodPut, base+"/mark-as-picked-up", map[string]any{"pickup_notes": "collected by sister"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/custom-orders?status=Picked%20Up", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReconcileRequiresRole(t *testing.T) {
	s := newServer(t)
	s.createOrder()

	w := s.do(http.MethodPost, "/api/v1/custom-orders/reconcile", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.token = s.tokenFor([]string{"manager"}, nil)
	w = s.do(http.MethodPost, "/api/v1/custom-orders/reconcile", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report service.ReconcileReport
	decode(t, w, &report)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.Failed)
}

func TestBranchScoping(t *testing.T) {
	s := newServer(t)
	west := &entity.Branch{Name: "Westlands"}
	east := &entity.Branch{Name: "Eastleigh"}
	require.NoError(t, s.db.Create(west).Error)
	require.NoError(t, s.db.Create(east).Error)

	s.token = s.tokenFor([]string{"staff"}, &west.ID)
	s.createOrder()

	w := s.do(http.MethodGet, "/api/v1/custom-orders", nil, map[string]string{middleware.BranchHeader: east.ID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.token = s.tokenFor([]string{"admin"}, &west.ID)
	w = s.do(http.MethodGet, "/api/v1/custom-orders", nil, map[string]string{middleware.BranchHeader: east.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []orderBody `json:"items"`
	}
	decode(t, w, &page)
	assert.Empty(t, page.Items)

	w = s.do(http.MethodGet, "/api/v1/custom-orders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Len(t, page.Items, 1)

	w = s.do(http.MethodGet, "/api/v1/custom-orders", nil, map[string]string{middleware.BranchHeader: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrder_BodyBranchNeedsAdmin(t *testing.T) {
	s := newServer(t)
	west := &entity.Branch{Name: "Westlands"}
	east := &entity.Branch{Name: "Eastleigh"}
	require.NoError(t, s.db.Create(west).Error)
	require.NoError(t, s.db.Create(east).Error)

	body := map[string]any{
		"customer_name":    "Amina Wanjiru",
		"estimated_amount": "1000",
		"branch_id":        east.ID.String(),
	}

	s.token = s.tokenFor([]string{"staff"}, &west.ID)
	w := s.do(http.MethodPost, "/api/v1/custom-orders/create", body, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	delete(body, "branch_id")
	w = s.do(http.MethodPost, "/api/v1/custom-orders/create", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var staffOrder orderBody
	decode(t, w, &staffOrder)

	s.token = s.tokenFor([]string{"admin"}, &west.ID)
	body["branch_id"] = east.ID.String()
	w = s.do(http.MethodPost, "/api/v1/custom-orders/create", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var adminOrder orderBody
	decode(t, w, &adminOrder)

	var staffStored, adminStored entity.CustomOrder
	require.NoError(t, s.db.First(&staffStored, "id = ?", staffOrder.ID).Error)
	require.NotNil(t, staffStored.BranchID)
	assert.Equal(t, west.ID, *staffStored.BranchID)

	require.NoError(t, s.db.First(&adminStored, "id = ?", adminOrder.ID).Error)
	require.NotNil(t, adminStored.BranchID)
	assert.Equal(t, east.ID, *adminStored.BranchID)
}

func TestUploadImages(t *testing.T) {
	s := newServer(t)
	order := s.createOrder()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="images"; filename="ring.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/custom-orders/"+order.ID.String()+"/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/custom-orders/"+order.ID.String()+"/images", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var images []entity.Image
	decode(t, w, &images)
	require.Len(t, images, 1)
	assert.Equal(t, "ring.png", images[0].OriginalName)
}

func TestSendReminder_MockMode(t *testing.T) {
	s := newServer(t)
	order := s.createOrder()

	w := s.do(http.MethodPost, "/api/v1/custom-orders/"+order.ID.String()+"/send-reminder", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.NotificationResult
	decode(t, w, &result)
	assert.True(t, result.MockEmail)
	assert.Equal(t, "amina@example.com", result.RecipientEmail)

	var count int64
	require.NoError(t, s.db.WithContext(context.Background()).Model(&entity.EmailLog{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCatalogRoutes(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": "Rings"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": "Rings"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/branches", map[string]any{"name": "Westlands"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/custom-orders/categories/suppliers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report []service.CategorySuppliers
	decode(t, w, &report)
	require.Len(t, report, 1)
	assert.Empty(t, report[0].Suppliers)
}
