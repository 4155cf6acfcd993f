// Command reconcile re-derives the payment status of every custom order
// from its payment log and exits.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/pkg/eventbus"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	publisher := newPublisher(cfg)

	code := run(ctx, cfg, publisher)

	if err := publisher.Close(); err != nil {
		log.Printf("Warning: failed to close event publisher: %v", err)
	}
	stop()
	os.Exit(code)
}

func newPublisher(cfg *config.Config) eventbus.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return eventbus.NopPublisher{}
	}
	kafka, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Printf("Warning: Failed to connect to Kafka, events disabled: %v", err)
		return eventbus.NopPublisher{}
	}
	return kafka
}

// run reconciles every order and returns the process exit code.
// ReconcileAll logs the summary line itself.
func run(ctx context.Context, cfg *config.Config, publisher eventbus.Publisher) int {
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return 1
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ledger := service.NewLedgerService(
		database.NewTxManager(db),
		infraRepo.NewCustomOrderRepository(db),
		infraRepo.NewPaymentRepository(db),
		publisher,
		cfg.Ledger,
	)

	report, err := ledger.ReconcileAll(ctx)
	if err != nil {
		log.Printf("Reconciliation failed: %v", err)
		return 1
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}
