package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"gorm.io/gorm"
)

// EmailLog is the audit trail of notifications sent for a custom order
type EmailLog struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"order_id"`
	EmailType      enum.EmailType      `gorm:"size:50;not null" json:"email_type"`
	RecipientEmail string              `gorm:"size:255;not null" json:"recipient_email"`
	SentAt         time.Time           `gorm:"not null" json:"sent_at"`
	Status         enum.EmailLogStatus `gorm:"size:20;not null" json:"status"`
	MessageID      *string             `gorm:"size:255" json:"message_id,omitempty"`
	ErrorMessage   *string             `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new email log
func (l *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the EmailLog model
func (EmailLog) TableName() string {
	return "email_logs"
}
