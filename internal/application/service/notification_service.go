package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/email"
	"github.com/shopspring/decimal"
)

// DefaultPickupLocation is shown when neither the request nor the branch names one
const DefaultPickupLocation = "our store"

// EmailSender delivers rendered customer emails
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (*email.SendResult, error)
	ShopName() string
}

// NotificationService sends customer emails about custom orders and keeps
// an audit row for every delivered message.
type NotificationService struct {
	orders    repository.CustomOrderRepository
	ledger    *LedgerService
	emailLogs repository.EmailLogRepository
	sender    EmailSender
	now       func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	orders repository.CustomOrderRepository,
	ledger *LedgerService,
	emailLogs repository.EmailLogRepository,
	sender EmailSender,
) *NotificationService {
	return &NotificationService{
		orders:    orders,
		ledger:    ledger,
		emailLogs: emailLogs,
		sender:    sender,
		now:       time.Now,
	}
}

// NotificationResult reports a delivered notification
type NotificationResult struct {
	OrderID        uuid.UUID       `json:"order_id"`
	EmailType      enum.EmailType  `json:"email_type"`
	RecipientEmail string          `json:"recipient_email"`
	MessageID      string          `json:"message_id,omitempty"`
	MockEmail      bool            `json:"mock_email"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Balance        decimal.Decimal `json:"balance"`
}

// SendPaymentReminder emails the customer their current balance
func (s *NotificationService) SendPaymentReminder(ctx context.Context, orderID uuid.UUID) (*NotificationResult, error) {
	order, recipient, err := s.loadRecipient(ctx, orderID)
	if err != nil {
		return nil, err
	}

	price := order.CustomerPrice()
	totalPaid, err := s.ledger.TotalPaid(ctx, orderID)
	if err != nil {
		return nil, err
	}
	balance := price.Sub(totalPaid)

	data := email.PaymentReminderData{
		ShopName:       s.sender.ShopName(),
		CustomerName:   order.CustomerName,
		OrderReference: order.OrderReference,
		OrderDate:      order.OrderDate.Format("02 Jan 2006"),
		TotalAmount:    formatMoney(price),
		PaidAmount:     formatMoney(totalPaid),
		BalanceAmount:  formatMoney(balance),
	}
	if order.EstimatedCompletionDate != nil {
		data.EstimatedCompletionDate = order.EstimatedCompletionDate.Format("02 Jan 2006")
	}

	msg, err := email.RenderPaymentReminder(recipient, data)
	if err != nil {
		return nil, apperror.NewNotificationError("Failed to prepare payment reminder", err.Error())
	}

	return s.deliver(ctx, order, enum.EmailTypePaymentReminder, msg, price, totalPaid)
}

// SendCompletionNotification tells the customer the piece is ready,
// including what is still owed.
func (s *NotificationService) SendCompletionNotification(ctx context.Context, orderID uuid.UUID, pickupLocation string) (*NotificationResult, error) {
	order, recipient, err := s.loadRecipient(ctx, orderID)
	if err != nil {
		return nil, err
	}

	price := order.CustomerPrice()
	totalPaid, err := s.ledger.TotalPaid(ctx, orderID)
	if err != nil {
		return nil, err
	}
	remaining := price.Sub(totalPaid)

	location := strings.TrimSpace(pickupLocation)
	if location == "" && order.Branch != nil {
		location = order.Branch.Name
	}
	if location == "" {
		location = DefaultPickupLocation
	}

	msg, err := email.RenderCompletionNotice(recipient, email.CompletionNoticeData{
		ShopName:         s.sender.ShopName(),
		CustomerName:     order.CustomerName,
		OrderReference:   order.OrderReference,
		PickupLocation:   location,
		TotalAmount:      formatMoney(price),
		RemainingBalance: formatMoney(remaining),
		HasBalance:       remaining.IsPositive(),
	})
	if err != nil {
		return nil, apperror.NewNotificationError("Failed to prepare completion notification", err.Error())
	}

	return s.deliver(ctx, order, enum.EmailTypeCompletionNotification, msg, price, totalPaid)
}

func (s *NotificationService) loadRecipient(ctx context.Context, orderID uuid.UUID) (*entity.CustomOrder, string, error) {
	order, err := s.orders.GetWithDetails(ctx, orderID)
	if err != nil {
		return nil, "", storageErr("load order", err)
	}
	if order == nil {
		return nil, "", apperror.NewNotFoundError("Custom order")
	}
	if order.CustomerEmail == nil || strings.TrimSpace(*order.CustomerEmail) == "" {
		return nil, "", apperror.NewFieldError("customer_email", "Customer email is required to send notifications")
	}
	return order, strings.TrimSpace(*order.CustomerEmail), nil
}

// MockEmailNote is recorded on audit rows for emails that were only logged
const MockEmailNote = "Mock email (SMTP not configured)"

func (s *NotificationService) deliver(ctx context.Context, order *entity.CustomOrder, kind enum.EmailType, msg email.Message, price, totalPaid decimal.Decimal) (*NotificationResult, error) {
	result, err := s.sender.Send(ctx, msg)
	if err != nil || result == nil || !result.Success {
		reason := "unknown error"
		switch {
		case err != nil:
			reason = err.Error()
		case result != nil && result.Error != "":
			reason = result.Error
		}
		return nil, apperror.NewNotificationError("Failed to send email", reason)
	}

	entry := &entity.EmailLog{
		OrderID:        order.ID,
		EmailType:      kind,
		RecipientEmail: msg.To,
		SentAt:         s.now(),
		Status:         enum.EmailLogStatusSent,
	}
	if result.MockEmail {
		note := MockEmailNote
		entry.Status = enum.EmailLogStatusMockSent
		entry.ErrorMessage = &note
	}
	if result.MessageID != "" {
		id := result.MessageID
		entry.MessageID = &id
	}
	if err := s.emailLogs.Create(ctx, entry); err != nil {
		log.Printf("Warning: failed to record %s email for order %s: %v", kind, order.ID, err)
	}

	return &NotificationResult{
		OrderID:        order.ID,
		EmailType:      kind,
		RecipientEmail: msg.To,
		MessageID:      result.MessageID,
		MockEmail:      result.MockEmail,
		TotalAmount:    price,
		TotalPaid:      totalPaid,
		Balance:        price.Sub(totalPaid),
	}, nil
}

// History returns the notification audit rows of an order
func (s *NotificationService) History(ctx context.Context, orderID uuid.UUID) ([]entity.EmailLog, error) {
	logs, err := s.emailLogs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr("list email logs", err)
	}
	return logs, nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
