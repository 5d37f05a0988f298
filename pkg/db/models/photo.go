package models

import "time"

// Photo is a sellable image. ImageURL holds an absolute URL when known;
// otherwise StoragePath (or ImageURL itself) is an object path in the bucket.
type Photo struct {
	ID          string    `gorm:"column:id;primaryKey"`
	GalleryID   string    `gorm:"column:gallery_id;not null;index:idx_photos_gallery_id"`
	Filename    string    `gorm:"column:filename;not null"`
	DisplayName *string   `gorm:"column:display_name"`
	ImageURL    *string   `gorm:"column:image_url"`
	StoragePath *string   `gorm:"column:storage_path"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
