package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	maxGalleryNameLen = 200
	maxPhotosPerBatch = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Storage signs uploads into the photo bucket and resolves watermark URLs.
type Storage interface {
	DefaultBucket() string
	SignedUploadURL(bucket, object, contentType string, expires time.Duration) (string, error)
	PublicURL(bucket, object string) (string, error)
}

// Service covers gallery management for site admins plus the watermark
// setting read by gallery pages.
type Service interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	CreateGallery(ctx context.Context, actorID string, input GalleryInput) (*Gallery, error)
	RenameGallery(ctx context.Context, id, name string) (*Gallery, error)
	DeleteGallery(ctx context.Context, id string) error
	PresignPhotoUpload(ctx context.Context, galleryID string, input PresignInput) (*PresignOutput, error)
	RegisterPhotos(ctx context.Context, galleryID string, inputs []PhotoInput) ([]Photo, error)
	Watermark(ctx context.Context) (*Watermark, error)
	PresignWatermarkUpload(ctx context.Context, input PresignInput) (*PresignOutput, error)
	SetWatermark(ctx context.Context, path string) (*Watermark, error)
	RemoveWatermark(ctx context.Context) error
}

type GalleryInput struct {
	Name      string
	EventDate *time.Time
}

type Gallery struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	EventDate *time.Time `json:"eventDate,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PhotoInput registers an object already uploaded through a presigned URL.
type PhotoInput struct {
	Filename    string
	StoragePath string
	DisplayName string
}

type Photo struct {
	ID          string    `json:"id"`
	GalleryID   string    `json:"galleryId"`
	Filename    string    `json:"filename"`
	DisplayName string    `json:"displayName,omitempty"`
	StoragePath string    `json:"storagePath"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Watermark is the overlay image shown on gallery previews.
type Watermark struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type ServiceParams struct {
	Repo            Repository
	Tx              txRunner
	Storage         Storage
	WatermarkBucket string
	UploadTTL       time.Duration
	Logger          *logger.Logger
}

type service struct {
	repo            Repository
	tx              txRunner
	storage         Storage
	watermarkBucket string
	uploadTTL       time.Duration
	logg            *logger.Logger
	now             func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Storage == nil || strings.TrimSpace(params.Storage.DefaultBucket()) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photo storage bucket required")
	}
	if strings.TrimSpace(params.WatermarkBucket) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "watermark bucket required")
	}
	if params.UploadTTL <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upload ttl must be positive")
	}
	return &service{
		repo:            params.Repo,
		tx:              params.Tx,
		storage:         params.Storage,
		watermarkBucket: strings.TrimSpace(params.WatermarkBucket),
		uploadTTL:       params.UploadTTL,
		logg:            params.Logger,
		now:             time.Now,
	}, nil
}

func (s *service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	ok, err := s.repo.IsAdmin(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin flag")
	}
	return ok, nil
}

func (s *service) CreateGallery(ctx context.Context, actorID string, input GalleryInput) (*Gallery, error) {
	name, err := galleryName(input.Name)
	if err != nil {
		return nil, err
	}
	row := &models.Gallery{
		ID:        uuid.NewString(),
		Name:      name,
		EventDate: input.EventDate,
	}
	if actor := strings.TrimSpace(actorID); actor != "" {
		row.CreatedBy = &actor
	}
	if err := s.repo.CreateGallery(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gallery")
	}
	s.info(ctx, "admin.gallery_created", map[string]any{"gallery_id": row.ID})
	return galleryOf(*row), nil
}

func (s *service) RenameGallery(ctx context.Context, id, name string) (*Gallery, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gallery id is required")
	}
	clean, err := galleryName(name)
	if err != nil {
		return nil, err
	}

	var out *Gallery
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.RenameGallery(ctx, id, clean); err != nil {
			return mapRepoErr(err, "gallery not found", "rename gallery")
		}
		row, err := repo.GetGallery(ctx, id)
		if err != nil {
			return mapRepoErr(err, "gallery not found", "load gallery")
		}
		out = galleryOf(*row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGallery removes the gallery and its photo rows together. Stored
// objects are left in the bucket.
func (s *service) DeleteGallery(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gallery id is required")
	}
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		n, err := repo.DeletePhotos(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gallery photos")
		}
		removed = n
		if err := repo.DeleteGallery(ctx, id); err != nil {
			return mapRepoErr(err, "gallery not found", "delete gallery")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.info(ctx, "admin.gallery_deleted", map[string]any{"gallery_id": id, "photos_removed": removed})
	return nil
}

func (s *service) PresignPhotoUpload(ctx context.Context, galleryID string, input PresignInput) (*PresignOutput, error) {
	galleryID = strings.TrimSpace(galleryID)
	if galleryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gallery id is required")
	}
	mimeType, err := validateUpload(input, maxPhotoBytes)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetGallery(ctx, galleryID); err != nil {
		return nil, mapRepoErr(err, "gallery not found", "load gallery")
	}
	now := s.now().UTC()
	objectPath, err := photoObjectPath(galleryID, now, input.FileName)
	if err != nil {
		return nil, err
	}
	return s.presign(s.storage.DefaultBucket(), objectPath, mimeType, now)
}

// RegisterPhotos inserts the photo rows for uploaded objects in one
// transaction; either every row lands or none do.
func (s *service) RegisterPhotos(ctx context.Context, galleryID string, inputs []PhotoInput) ([]Photo, error) {
	galleryID = strings.TrimSpace(galleryID)
	if galleryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gallery id is required")
	}
	if len(inputs) == 0 || len(inputs) > maxPhotosPerBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "between 1 and 200 photos per request").
			WithDetails(map[string]any{"count": len(inputs)})
	}

	rows := make([]models.Photo, 0, len(inputs))
	for i, in := range inputs {
		filename := strings.TrimSpace(in.Filename)
		storagePath := strings.TrimSpace(in.StoragePath)
		if filename == "" || !photoPathInGallery(galleryID, storagePath) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo").
				WithDetails(map[string]any{"index": i, "storagePath": storagePath})
		}
		row := models.Photo{
			ID:          uuid.NewString(),
			GalleryID:   galleryID,
			Filename:    filename,
			StoragePath: &storagePath,
		}
		if name := strings.TrimSpace(in.DisplayName); name != "" {
			row.DisplayName = &name
		}
		rows = append(rows, row)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetGallery(ctx, galleryID); err != nil {
			return mapRepoErr(err, "gallery not found", "load gallery")
		}
		if err := repo.CreatePhotos(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert photos")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Photo, 0, len(rows))
	for _, row := range rows {
		out = append(out, photoOf(row))
	}
	s.info(ctx, "admin.photos_registered", map[string]any{"gallery_id": galleryID, "count": len(out)})
	return out, nil
}

// Watermark returns nil when no watermark is configured.
func (s *service) Watermark(ctx context.Context) (*Watermark, error) {
	setting, err := s.repo.GetSetting(ctx, models.SettingWatermarkPath)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load watermark setting")
	}
	if strings.TrimSpace(setting.Value) == "" {
		return nil, nil
	}
	return s.watermarkOf(setting.Value)
}

func (s *service) PresignWatermarkUpload(ctx context.Context, input PresignInput) (*PresignOutput, error) {
	mimeType, err := validateUpload(input, maxWatermarkBytes)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.presign(s.watermarkBucket, watermarkObjectPath(now, mimeType), mimeType, now)
}

func (s *service) SetWatermark(ctx context.Context, path string) (*Watermark, error) {
	path = strings.TrimSpace(path)
	if !validWatermarkPath(path) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid watermark path")
	}
	if err := s.repo.UpsertSetting(ctx, models.SettingWatermarkPath, path); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save watermark setting")
	}
	s.info(ctx, "admin.watermark_set", map[string]any{"watermark_path": path})
	return s.watermarkOf(path)
}

// RemoveWatermark clears the setting; the object stays in the bucket.
func (s *service) RemoveWatermark(ctx context.Context) error {
	if err := s.repo.DeleteSetting(ctx, models.SettingWatermarkPath); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete watermark setting")
	}
	s.info(ctx, "admin.watermark_removed", nil)
	return nil
}

func (s *service) presign(bucket, objectPath, mimeType string, now time.Time) (*PresignOutput, error) {
	signed, err := s.storage.SignedUploadURL(bucket, objectPath, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}
	return &PresignOutput{
		Bucket:       bucket,
		StoragePath:  objectPath,
		SignedPUTURL: signed,
		ContentType:  mimeType,
		ExpiresAt:    now.Add(s.uploadTTL),
	}, nil
}

func (s *service) watermarkOf(path string) (*Watermark, error) {
	url, err := s.storage.PublicURL(s.watermarkBucket, path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve watermark url")
	}
	return &Watermark{Path: path, URL: url}, nil
}

func (s *service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	if len(fields) > 0 {
		ctx = s.logg.WithFields(ctx, fields)
	}
	s.logg.Info(ctx, msg)
}

func galleryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "gallery name is required")
	}
	if len(name) > maxGalleryNameLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "gallery name too long")
	}
	return name, nil
}

func mapRepoErr(err error, notFoundMsg, op string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func galleryOf(g models.Gallery) *Gallery {
	out := &Gallery{ID: g.ID, Name: g.Name, EventDate: g.EventDate, CreatedAt: g.CreatedAt}
	if g.CreatedBy != nil {
		out.CreatedBy = *g.CreatedBy
	}
	return out
}

func photoOf(p models.Photo) Photo {
	out := Photo{ID: p.ID, GalleryID: p.GalleryID, Filename: p.Filename, CreatedAt: p.CreatedAt}
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	if p.StoragePath != nil {
		out.StoragePath = *p.StoragePath
	}
	return out
}
