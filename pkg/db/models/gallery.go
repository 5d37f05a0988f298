package models

import "time"

// Gallery groups the photos shot at one event.
type Gallery struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	EventDate *time.Time `gorm:"column:event_date;type:date"`
	CoverURL  *string    `gorm:"column:cover_url"`
	CreatedBy *string    `gorm:"column:created_by"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
