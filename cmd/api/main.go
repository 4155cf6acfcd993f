package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/cache"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/presentation/http/middleware"
	"github.com/sangkips/atelier-api/internal/presentation/http/routes"
	"github.com/sangkips/atelier-api/pkg/email"
	"github.com/sangkips/atelier-api/pkg/eventbus"
	"github.com/sangkips/atelier-api/pkg/storage"
	"github.com/sangkips/atelier-api/pkg/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Initialize repositories
	orderRepo := infraRepo.NewCustomOrderRepository(db)
	paymentRepo := infraRepo.NewPaymentRepository(db)
	materialRepo := infraRepo.NewMaterialRepository(db)
	imageRepo := infraRepo.NewImageRepository(db)
	emailLogRepo := infraRepo.NewEmailLogRepository(db)
	branchRepo := infraRepo.NewBranchRepository(db)
	categoryRepo := infraRepo.NewCategoryRepository(db)
	supplierRepo := infraRepo.NewSupplierRepository(db)
	idempotencyRepo := newIdempotencyRepository(cfg, db)

	publisher := newPublisher(cfg)
	defer publisher.Close()

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		ShopName:     cfg.Email.ShopName,
	})
	if emailService.IsMock() {
		log.Println("SMTP host not configured, emails will be mock-sent")
	}

	imageStore := storage.NewImageStore(cfg.Storage.Path, cfg.Storage.UploadMaxSize)

	// Initialize services
	txManager := database.NewTxManager(db)
	ledgerService := service.NewLedgerService(txManager, orderRepo, paymentRepo, publisher, cfg.Ledger)
	orderService := service.NewCustomOrderService(txManager, orderRepo, paymentRepo, materialRepo, ledgerService, publisher, cfg.Ledger)
	notificationService := service.NewNotificationService(orderRepo, ledgerService, emailLogRepo, emailService)
	uploadService := service.NewUploadService(orderRepo, imageRepo, imageStore)
	catalogService := service.NewCatalogService(branchRepo, categoryRepo, supplierRepo)

	handlers := &routes.Handlers{
		CustomOrder: handler.NewCustomOrderHandler(orderService, ledgerService, notificationService, uploadService),
		Catalog:     handler.NewCatalogHandler(catalogService),
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFromWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Duration,
	))
	defer rateLimiter.Close()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		BranchRepo:      branchRepo,
		RateLimiter:     rateLimiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeIdempotencyKeys(ctx, idempotencyRepo)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shut down: %v", err)
	}
}

// newIdempotencyRepository prefers Redis when configured and falls back to the database
func newIdempotencyRepository(cfg *config.Config, db *gorm.DB) repository.IdempotencyRepository {
	if cfg.Redis.URL == "" {
		return infraRepo.NewIdempotencyRepository(db)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Printf("Warning: %v, storing idempotency keys in the database", err)
		return infraRepo.NewIdempotencyRepository(db)
	}

	log.Println("Idempotency keys stored in Redis")
	return cache.NewIdempotencyStore(rdb)
}

func newPublisher(cfg *config.Config) eventbus.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return eventbus.NopPublisher{}
	}

	publisher, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Printf("Warning: Failed to connect to Kafka, events disabled: %v", err)
		return eventbus.NopPublisher{}
	}

	log.Printf("Publishing domain events to Kafka topic %s", cfg.Kafka.Topic)
	return publisher
}

func purgeIdempotencyKeys(ctx context.Context, repo repository.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Printf("Warning: failed to purge idempotency keys: %v", err)
			}
		}
	}
}
