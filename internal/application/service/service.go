package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/eventbus"
)

// Event names published after a committed change
const (
	EventOrderCreated            = "custom_order.created"
	EventPaymentRecorded         = "custom_order.payment_recorded"
	EventLedgerPaymentRecorded   = "custom_order.ledger_payment_recorded"
	EventStatusChanged           = "custom_order.status_changed"
	EventPickedUp                = "custom_order.picked_up"
	EventPaymentStatusReconciled = "custom_order.payment_status_reconciled"
)

// storageErr wraps a repository failure. Application errors and
// reference collisions pass through untouched so callers can act on them.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) || errors.Is(err, repository.ErrDuplicateReference) {
		return err
	}
	return apperror.NewStorageError(op, err)
}

// retryOnDuplicate reruns fn while it fails on a reference collision
func retryOnDuplicate(attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		err := fn()
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return err
		}
		log.Printf("Reference collision, retrying (%d/%d)", i, attempts)
	}
	return apperror.NewConflictError("Could not allocate a unique reference, please retry")
}

// publish emits an event; delivery problems are logged and never returned
func publish(ctx context.Context, pub eventbus.Publisher, name, key string, payload interface{}) {
	if pub == nil {
		return
	}
	err := pub.Publish(ctx, eventbus.Event{
		Name:       name,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		log.Printf("Warning: failed to publish %s for %s: %v", name, key, err)
	}
}
