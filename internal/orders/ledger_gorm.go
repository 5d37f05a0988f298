package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/db"
	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	"gorm.io/gorm"
)

// GormLedger persists processed sessions in the processed_sessions table. The
// primary key on session_id makes the first insert the only winner.
type GormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormLedger(conn *gorm.DB) (*GormLedger, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &GormLedger{db: conn, now: time.Now}, nil
}

func (l *GormLedger) Claim(ctx context.Context, sessionID string, lease time.Duration) (ClaimStatus, error) {
	if err := requireSessionID(sessionID); err != nil {
		return ClaimBusy, err
	}
	now := l.now().UTC()
	leaseUntil := now.Add(lease)

	row := models.ProcessedSession{
		SessionID:      sessionID,
		State:          enums.LedgerStateProcessing,
		LeaseExpiresAt: &leaseUntil,
	}
	err := l.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return ClaimAcquired, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return ClaimBusy, fmt.Errorf("insert processed session: %w", err)
	}

	// take over an expired lease
	res := l.db.WithContext(ctx).
		Model(&models.ProcessedSession{}).
		Where("session_id = ? AND state = ? AND (lease_expires_at IS NULL OR lease_expires_at <= ?)",
			sessionID, enums.LedgerStateProcessing, now).
		Updates(map[string]any{"lease_expires_at": leaseUntil, "updated_at": now})
	if res.Error != nil {
		return ClaimBusy, fmt.Errorf("take over lease: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return ClaimAcquired, nil
	}

	var existing models.ProcessedSession
	if err := l.db.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// released between insert and read; the caller may retry
			return ClaimBusy, nil
		}
		return ClaimBusy, fmt.Errorf("load processed session: %w", err)
	}
	if existing.State == enums.LedgerStateDone {
		return ClaimDone, nil
	}
	return ClaimBusy, nil
}

func (l *GormLedger) Complete(ctx context.Context, sessionID, orderNumber string) error {
	now := l.now().UTC()
	res := l.db.WithContext(ctx).
		Model(&models.ProcessedSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"state":            enums.LedgerStateDone,
			"order_number":     orderNumber,
			"completed_at":     now,
			"lease_expires_at": nil,
			"updated_at":       now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete processed session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complete processed session: %s not claimed", sessionID)
	}
	return nil
}

func (l *GormLedger) Release(ctx context.Context, sessionID string) error {
	err := l.db.WithContext(ctx).
		Where("session_id = ? AND state = ?", sessionID, enums.LedgerStateProcessing).
		Delete(&models.ProcessedSession{}).Error
	if err != nil {
		return fmt.Errorf("release processed session: %w", err)
	}
	return nil
}
