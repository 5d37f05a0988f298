package catalog

import (
	"context"
	"errors"

	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a gallery or photo does not exist.
var ErrNotFound = errors.New("catalog record not found")

// Repository reads galleries and photos.
type Repository interface {
	ListGalleries(ctx context.Context) ([]models.Gallery, error)
	GetGallery(ctx context.Context, id string) (*models.Gallery, error)
	ListPhotos(ctx context.Context, galleryID string) ([]models.Photo, error)
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListGalleries(ctx context.Context) ([]models.Gallery, error) {
	var galleries []models.Gallery
	err := r.db.WithContext(ctx).
		Order("event_date DESC").
		Order("created_at DESC").
		Find(&galleries).Error
	return galleries, err
}

func (r *gormRepository) GetGallery(ctx context.Context, id string) (*models.Gallery, error) {
	var gallery models.Gallery
	if err := r.db.WithContext(ctx).First(&gallery, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &gallery, nil
}

func (r *gormRepository) ListPhotos(ctx context.Context, galleryID string) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Order("created_at ASC").
		Order("filename ASC").
		Find(&photos).Error
	return photos, err
}

func (r *gormRepository) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.WithContext(ctx).First(&photo, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &photo, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
