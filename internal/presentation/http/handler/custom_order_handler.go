package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/request"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/internal/presentation/http/middleware"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/sangkips/atelier-api/pkg/storage"
	"github.com/sangkips/atelier-api/pkg/utils"
)

// MaxImagesPerUpload caps the files accepted in one images request
const MaxImagesPerUpload = 10

// CustomOrderHandler handles custom order HTTP requests
type CustomOrderHandler struct {
	orders        *service.CustomOrderService
	ledger        *service.LedgerService
	notifications *service.NotificationService
	uploads       *service.UploadService
}

// NewCustomOrderHandler creates a new custom order handler
func NewCustomOrderHandler(
	orders *service.CustomOrderService,
	ledger *service.LedgerService,
	notifications *service.NotificationService,
	uploads *service.UploadService,
) *CustomOrderHandler {
	return &CustomOrderHandler{
		orders:        orders,
		ledger:        ledger,
		notifications: notifications,
		uploads:       uploads,
	}
}

// List handles listing custom orders
func (h *CustomOrderHandler) List(c *gin.Context) {
	var req request.CustomOrderFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.CustomOrderFilterParams{
		Pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Search:     strings.TrimSpace(req.Search),
		BranchID:   GetBranchID(c),
	}

	if req.Status != "" && !strings.EqualFold(req.Status, "all") {
		status, err := enum.ParseOrderStatus(req.Status)
		if err != nil {
			response.Error(c, apperror.NewFieldError("status", "Invalid order status"))
			return
		}
		params.Status = &status
	}

	if params.BranchID == nil {
		branchID, err := utils.ParseOptionalUUID(req.BranchID)
		if err != nil {
			response.BadRequest(c, "Invalid branch ID")
			return
		}
		params.BranchID = branchID
	}

	result, err := h.orders.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Custom orders retrieved successfully", result)
}

// Create handles creating a custom order
func (h *CustomOrderHandler) Create(c *gin.Context) {
	var req request.CreateCustomOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	branchID := GetBranchID(c)
	if req.BranchID != nil && (branchID == nil || *req.BranchID != *branchID) {
		if !hasRole(c, middleware.RoleAdmin) {
			response.Forbidden(c, "Access denied to this branch")
			return
		}
		branchID = req.BranchID
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), &service.CreateCustomOrderInput{
		CustomerName:            req.CustomerName,
		CustomerPhone:           req.CustomerPhone,
		CustomerEmail:           req.CustomerEmail,
		EstimatedAmount:         req.EstimatedAmount,
		ProfitPercentage:        req.ProfitPercentage,
		Quantity:                req.Quantity,
		AdvanceAmount:           req.AdvanceAmount,
		PaymentMethod:           req.PaymentMethod,
		CategoryID:              req.CategoryID,
		SupplierID:              req.SupplierID,
		BranchID:                branchID,
		CreatedBy:               GetUserID(c),
		Description:             req.Description,
		SpecialRequirements:     req.SpecialRequirements,
		OrderDate:               req.OrderDate,
		EstimatedCompletionDate: req.EstimatedCompletionDate,
		Materials:               toMaterialInputs(req.Materials),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Custom order created successfully", order)
}

// Get handles getting a single custom order with its payment summary
func (h *CustomOrderHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Custom order retrieved successfully", order)
}

// ListCompleted handles listing orders that are ready for pickup
func (h *CustomOrderHandler) ListCompleted(c *gin.Context) {
	includePickedUp := c.Query("include_picked_up") == "true"

	orders, err := h.orders.ListCompleted(c.Request.Context(), includePickedUp, GetBranchID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Completed orders retrieved successfully", orders)
}

// UpdateStatus handles changing the workflow status of an order
func (h *CustomOrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.OrderStatus, req.SupplierNotes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order status updated successfully", order)
}

// MarkPickedUp handles confirming that the customer collected the order
func (h *CustomOrderHandler) MarkPickedUp(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.MarkPickedUpRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	order, err := h.orders.MarkPickedUp(c.Request.Context(), id, req.PickupNotes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order marked as picked up successfully", order)
}

// RecordPayment handles adding a counter payment to an order
func (h *CustomOrderHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.ledger.RecordPayment(c.Request.Context(), &service.RecordPaymentInput{
		OrderID:   id,
		Amount:    req.Amount,
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
		Notes:     req.Notes,
		PaidAt:    req.PaymentDate,
		CreatedBy: GetUserID(c),
		BranchID:  GetBranchID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", result)
}

// RecordLedgerPayment handles a payment entered at the advance desk
func (h *CustomOrderHandler) RecordLedgerPayment(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.LedgerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.ledger.RecordLedgerPayment(c.Request.Context(), &service.LedgerPaymentInput{
		OrderID:       id,
		Amount:        req.Amount,
		Method:        req.PaymentMethod,
		Reference:     req.PaymentReference,
		Notes:         req.Notes,
		PaidAt:        req.PaymentDate,
		IsCustomOrder: req.IsCustomOrder,
		CreatedBy:     GetUserID(c),
		BranchID:      GetBranchID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Ledger payment recorded successfully", result)
}

// Payments handles listing every payment row of an order
func (h *CustomOrderHandler) Payments(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	breakdown, err := h.ledger.PaymentBreakdown(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", breakdown)
}

// RefreshPaymentStatus handles re-deriving one order's payment status
func (h *CustomOrderHandler) RefreshPaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	result, err := h.ledger.RefreshPaymentStatus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status refreshed successfully", result)
}

// Reconcile handles re-deriving the payment status of every order
func (h *CustomOrderHandler) Reconcile(c *gin.Context) {
	report, err := h.ledger.ReconcileAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment statuses reconciled", report)
}

// AddMaterials handles appending material lines to an order
func (h *CustomOrderHandler) AddMaterials(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.AddMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	materials, err := h.orders.AddMaterials(c.Request.Context(), id, toMaterialInputs(req.Materials))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Materials added successfully", materials)
}

// UploadImages handles multipart image uploads for an order
func (h *CustomOrderHandler) UploadImages(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "Invalid multipart form")
		return
	}

	files := form.File["images"]
	if len(files) > MaxImagesPerUpload {
		response.BadRequest(c, "Too many images in one request")
		return
	}

	uploads := make([]storage.Upload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "Failed to read uploaded file")
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, storage.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	images, err := h.uploads.AttachImages(c.Request.Context(), id, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Images uploaded successfully", images)
}

// Images handles listing the images attached to an order
func (h *CustomOrderHandler) Images(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	images, err := h.uploads.ListImages(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Images retrieved successfully", images)
}

// SendReminder handles emailing the customer a payment reminder
func (h *CustomOrderHandler) SendReminder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	result, err := h.notifications.SendPaymentReminder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment reminder sent successfully", result)
}

// SendCompletionNotification handles emailing the customer that the order is ready
func (h *CustomOrderHandler) SendCompletionNotification(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.CompletionNotificationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	result, err := h.notifications.SendCompletionNotification(c.Request.Context(), id, req.PickupLocation)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Completion notification sent successfully", result)
}

// EmailHistory handles listing the notification audit rows of an order
func (h *CustomOrderHandler) EmailHistory(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	logs, err := h.notifications.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Email history retrieved successfully", logs)
}

func toMaterialInputs(reqs []request.MaterialRequest) []service.MaterialInput {
	inputs := make([]service.MaterialInput, 0, len(reqs))
	for _, m := range reqs {
		inputs = append(inputs, service.MaterialInput{
			MaterialName: m.MaterialName,
			Quantity:     m.Quantity,
			Unit:         m.Unit,
			CostPerUnit:  m.CostPerUnit,
			SupplierID:   m.SupplierID,
		})
	}
	return inputs
}
