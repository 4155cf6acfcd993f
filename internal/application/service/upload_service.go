package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/storage"
)

// ImageStorage persists uploaded files
type ImageStorage interface {
	Save(u storage.Upload) (*storage.StoredFile, error)
	Remove(path string) error
}

// UploadService attaches reference images to custom orders
type UploadService struct {
	orders repository.CustomOrderRepository
	images repository.ImageRepository
	store  ImageStorage
}

// NewUploadService creates a new upload service
func NewUploadService(orders repository.CustomOrderRepository, images repository.ImageRepository, store ImageStorage) *UploadService {
	return &UploadService{orders: orders, images: images, store: store}
}

// AttachImages stores every upload and records them against the order.
// Files already written are removed again when a later one is rejected.
func (s *UploadService) AttachImages(ctx context.Context, orderID uuid.UUID, uploads []storage.Upload) ([]entity.Image, error) {
	if len(uploads) == 0 {
		return nil, apperror.NewFieldError("images", "At least one image is required")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageErr("load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Custom order")
	}

	images := make([]entity.Image, 0, len(uploads))
	for _, u := range uploads {
		stored, err := s.store.Save(u)
		if err != nil {
			s.cleanup(images)
			return nil, uploadErr(u.Filename, err)
		}
		images = append(images, entity.Image{
			OrderID:      orderID,
			ImagePath:    stored.Path,
			OriginalName: stored.OriginalName,
			ContentType:  stored.ContentType,
			SizeBytes:    stored.Size,
		})
	}

	if err := s.images.CreateBatch(ctx, images); err != nil {
		s.cleanup(images)
		return nil, storageErr("insert images", err)
	}
	return images, nil
}

// ListImages returns the images recorded for an order
func (s *UploadService) ListImages(ctx context.Context, orderID uuid.UUID) ([]entity.Image, error) {
	images, err := s.images.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr("list images", err)
	}
	return images, nil
}

func (s *UploadService) cleanup(images []entity.Image) {
	for _, img := range images {
		if err := s.store.Remove(img.ImagePath); err != nil {
			log.Printf("Warning: failed to remove %s: %v", img.ImagePath, err)
		}
	}
}

func uploadErr(filename string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperror.NewUnsupportedFileTypeError(filename)
	case errors.Is(err, storage.ErrTooLarge):
		return apperror.NewFieldError("images", "File "+filename+" exceeds the maximum upload size")
	default:
		return apperror.NewStorageError("save image", err)
	}
}
