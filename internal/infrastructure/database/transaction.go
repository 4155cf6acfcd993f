package database

import (
	"context"

	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"gorm.io/gorm"
)

// TxManager opens transactions and hands them to repositories through the context
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn in a transaction. Returning an error rolls back
// every write made through ctx; a ctx that already carries a transaction
// is reused as is.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := infraRepo.TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(infraRepo.WithTx(ctx, tx))
	})
}
