package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	ShopName     string
}

// Message is a rendered HTML email
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// SendResult reports the outcome of a send
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	MockEmail bool   `json:"mock_email"`
	Error     string `json:"error,omitempty"`
}

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config   EmailConfig
	sendMail sendMailFunc
}

// NewEmailService creates a new email service. Without an SMTP host the
// service runs in mock mode and reports every message as mock-sent.
func NewEmailService(config EmailConfig) *EmailService {
	if config.ShopName == "" {
		config.ShopName = config.FromName
	}
	return &EmailService{config: config, sendMail: smtp.SendMail}
}

// IsMock reports whether messages are only simulated
func (s *EmailService) IsMock() bool {
	return s.config.SMTPHost == ""
}

// ShopName is the display name used in templates
func (s *EmailService) ShopName() string {
	return s.config.ShopName
}

// Send delivers msg. A failed delivery returns both an unsuccessful
// result and the error.
func (s *EmailService) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return &SendResult{Success: false, Error: err.Error()}, err
	}
	if strings.TrimSpace(msg.To) == "" {
		err := fmt.Errorf("recipient address is required")
		return &SendResult{Success: false, Error: err.Error()}, err
	}

	messageID := s.newMessageID()
	if s.IsMock() {
		return &SendResult{Success: true, MessageID: messageID, MockEmail: true}, nil
	}

	if err := s.sendEmail(msg.To, s.buildHTMLEmail(msg.To, msg.Subject, messageID, msg.HTMLBody)); err != nil {
		return &SendResult{Success: false, Error: err.Error()}, err
	}
	return &SendResult{Success: true, MessageID: messageID}, nil
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.sendMail(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *EmailService) newMessageID() string {
	domain := "localhost"
	if at := strings.LastIndex(s.config.FromEmail, "@"); at >= 0 && at < len(s.config.FromEmail)-1 {
		domain = s.config.FromEmail[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, messageID, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Message-ID: %s\r\n"+
			"Date: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
		messageID,
		time.Now().Format(time.RFC1123Z),
	)

	return []byte(headers + htmlBody)
}

// PaymentReminderData feeds the payment reminder template
type PaymentReminderData struct {
	ShopName                string
	CustomerName            string
	OrderReference          string
	OrderDate               string
	EstimatedCompletionDate string
	TotalAmount             string
	PaidAmount              string
	BalanceAmount           string
}

// CompletionNoticeData feeds the completion notification template
type CompletionNoticeData struct {
	ShopName         string
	CustomerName     string
	OrderReference   string
	PickupLocation   string
	TotalAmount      string
	RemainingBalance string
	HasBalance       bool
}

// RenderPaymentReminder builds the payment reminder email
func RenderPaymentReminder(to string, data PaymentReminderData) (Message, error) {
	body, err := render("payment_reminder", paymentReminderTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to render email template: %w", err)
	}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Payment Reminder - Custom Order %s", data.OrderReference),
		HTMLBody: body,
	}, nil
}

// RenderCompletionNotice builds the order completion email
func RenderCompletionNotice(to string, data CompletionNoticeData) (Message, error) {
	body, err := render("completion_notice", completionNoticeTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to render email template: %w", err)
	}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Your Custom Order %s is Ready for Pickup", data.OrderReference),
		HTMLBody: body,
	}, nil
}

func render(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
