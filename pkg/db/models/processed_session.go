package models

import (
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
)

// ProcessedSession is the durable finalization record for a checkout session.
type ProcessedSession struct {
	SessionID      string            `gorm:"column:session_id;primaryKey"`
	State          enums.LedgerState `gorm:"column:state;not null;index:idx_processed_sessions_state"`
	LeaseExpiresAt *time.Time        `gorm:"column:lease_expires_at"`
	OrderNumber    *string           `gorm:"column:order_number"`
	CompletedAt    *time.Time        `gorm:"column:completed_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
