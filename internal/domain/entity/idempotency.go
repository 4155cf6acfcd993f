package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey stores processed requests to prevent duplicate payments
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_user_key;size:255;not null" json:"key"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_idempotency_user_key;not null" json:"user_id"`
	Endpoint     string    `gorm:"size:255;not null" json:"endpoint"`      // e.g. "POST /api/v1/custom-orders/<uuid>/payments"
	RequestHash  string    `gorm:"size:64;not null" json:"request_hash"`   // sha256 of the request body
	ResponseCode int       `gorm:"not null" json:"response_code"`          // HTTP status of the original response
	ResponseBody string    `gorm:"type:text" json:"response_body"`         // cached JSON body
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

// BeforeCreate generates a UUID before storing a new key
func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// Matches reports whether a retry targets the same endpoint with the same body
func (i *IdempotencyKey) Matches(endpoint, requestHash string) bool {
	return i.Endpoint == endpoint && i.RequestHash == requestHash
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
