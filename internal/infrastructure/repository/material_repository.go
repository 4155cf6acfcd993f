package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"gorm.io/gorm"
)

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository creates a new material repository
func NewMaterialRepository(db *gorm.DB) domainRepo.MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) CreateBatch(ctx context.Context, materials []entity.Material) error {
	if len(materials) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&materials).Error
}

func (r *materialRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Material, error) {
	var materials []entity.Material
	err := conn(ctx, r.db).
		Preload("Supplier").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&materials).Error
	return materials, err
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *gorm.DB) domainRepo.ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) CreateBatch(ctx context.Context, images []entity.Image) error {
	if len(images) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&images).Error
}

func (r *imageRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Image, error) {
	var images []entity.Image
	err := conn(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&images).Error
	return images, err
}

type emailLogRepository struct {
	db *gorm.DB
}

// NewEmailLogRepository creates a new email log repository
func NewEmailLogRepository(db *gorm.DB) domainRepo.EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, log *entity.EmailLog) error {
	return conn(ctx, r.db).Create(log).Error
}

func (r *emailLogRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.EmailLog, error) {
	var logs []entity.EmailLog
	err := conn(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("sent_at ASC").
		Find(&logs).Error
	return logs, err
}
