package models

import "time"

// SettingWatermarkPath names the watermarks-bucket object overlaid on previews.
const SettingWatermarkPath = "watermark_path"

// Setting is a site-wide key/value pair.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
