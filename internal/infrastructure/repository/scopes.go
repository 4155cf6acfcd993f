package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ctxKey string

// uniqueViolation is the postgres SQLSTATE for a unique index conflict
const uniqueViolation = "23505"

// TxKey is the context key for the active transaction
const TxKey ctxKey = "gorm_tx"

// WithTx stores an open transaction in the context
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// TxFromContext returns the transaction carried by ctx, if any
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TxKey).(*gorm.DB)
	return tx, ok && tx != nil
}

// conn resolves the handle a repository should use: the active
// transaction when there is one, the pool otherwise.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// BranchScope filters branch-owned rows when a branch is given
func BranchScope(branchID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if branchID == nil || *branchID == uuid.Nil {
			return db
		}
		return db.Where("branch_id = ?", *branchID)
	}
}

// translate maps unique-constraint violations onto ErrDuplicateReference
// so services can retry without knowing the driver.
func translate(err error, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return duplicate
	}
	return err
}
