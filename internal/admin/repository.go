package admin

import (
	"context"
	"errors"
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a gallery, user or setting does not exist.
var ErrNotFound = errors.New("admin record not found")

// Repository persists gallery management writes and site settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	IsAdmin(ctx context.Context, userID string) (bool, error)
	CreateGallery(ctx context.Context, gallery *models.Gallery) error
	GetGallery(ctx context.Context, id string) (*models.Gallery, error)
	RenameGallery(ctx context.Context, id, name string) error
	DeleteGallery(ctx context.Context, id string) error
	DeletePhotos(ctx context.Context, galleryID string) (int64, error)
	CreatePhotos(ctx context.Context, photos []models.Photo) error
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("is_admin").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (r *gormRepository) CreateGallery(ctx context.Context, gallery *models.Gallery) error {
	return r.db.WithContext(ctx).Create(gallery).Error
}

func (r *gormRepository) GetGallery(ctx context.Context, id string) (*models.Gallery, error) {
	var gallery models.Gallery
	if err := r.db.WithContext(ctx).First(&gallery, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &gallery, nil
}

func (r *gormRepository) RenameGallery(ctx context.Context, id, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Gallery{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) DeleteGallery(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Gallery{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) DeletePhotos(ctx context.Context, galleryID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("gallery_id = ?", galleryID).Delete(&models.Photo{})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) CreatePhotos(ctx context.Context, photos []models.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&photos).Error
}

func (r *gormRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, notFound(err)
	}
	return &setting, nil
}

func (r *gormRepository) UpsertSetting(ctx context.Context, key, value string) error {
	row := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *gormRepository) DeleteSetting(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{}).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
