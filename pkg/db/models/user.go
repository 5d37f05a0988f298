package models

import "time"

// User mirrors the auth provider's user id; IsAdmin unlocks gallery management.
type User struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Email     *string   `gorm:"column:email"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
