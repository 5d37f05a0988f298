package orders

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/onetwoclick/rinkshots-backend/pkg/redis"
)

const (
	ledgerLease = "lease"
	ledgerDone  = "done"
)

type ledgerStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LedgerKey(state, sessionID string) string
}

// RedisLedger uses a SETNX lease key per session and a long-lived done marker
// holding the order number.
type RedisLedger struct {
	store   ledgerStore
	doneTTL time.Duration
}

func NewRedisLedger(store ledgerStore, doneTTL time.Duration) (*RedisLedger, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisLedger{store: store, doneTTL: doneTTL}, nil
}

func (l *RedisLedger) Claim(ctx context.Context, sessionID string, lease time.Duration) (ClaimStatus, error) {
	if err := requireSessionID(sessionID); err != nil {
		return ClaimBusy, err
	}
	done, err := l.isDone(ctx, sessionID)
	if err != nil {
		return ClaimBusy, err
	}
	if done {
		return ClaimDone, nil
	}

	acquired, err := l.store.SetNX(ctx, l.store.LedgerKey(ledgerLease, sessionID), time.Now().UTC().Format(time.RFC3339Nano), lease)
	if err != nil {
		return ClaimBusy, fmt.Errorf("acquire lease: %w", err)
	}
	if !acquired {
		return ClaimBusy, nil
	}

	// a holder may have completed between the first check and SETNX
	done, err = l.isDone(ctx, sessionID)
	if err != nil {
		_ = l.Release(ctx, sessionID)
		return ClaimBusy, err
	}
	if done {
		_ = l.Release(ctx, sessionID)
		return ClaimDone, nil
	}
	return ClaimAcquired, nil
}

func (l *RedisLedger) Complete(ctx context.Context, sessionID, orderNumber string) error {
	if err := l.store.Set(ctx, l.store.LedgerKey(ledgerDone, sessionID), orderNumber, l.doneTTL); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return l.Release(ctx, sessionID)
}

func (l *RedisLedger) Release(ctx context.Context, sessionID string) error {
	return l.store.Del(ctx, l.store.LedgerKey(ledgerLease, sessionID))
}

func (l *RedisLedger) isDone(ctx context.Context, sessionID string) (bool, error) {
	_, err := l.store.Get(ctx, l.store.LedgerKey(ledgerDone, sessionID))
	if err == nil {
		return true, nil
	}
	if pkgredis.IsNil(err) {
		return false, nil
	}
	return false, fmt.Errorf("read done marker: %w", err)
}
