package orders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
)

// ClaimStatus is the outcome of Ledger.Claim.
type ClaimStatus int

const (
	// ClaimAcquired means the caller owns the session until Complete or Release.
	ClaimAcquired ClaimStatus = iota
	// ClaimDone means the session was finalized before.
	ClaimDone
	// ClaimBusy means another caller holds a live lease.
	ClaimBusy
)

func (c ClaimStatus) String() string {
	switch c {
	case ClaimAcquired:
		return "acquired"
	case ClaimDone:
		return "done"
	case ClaimBusy:
		return "busy"
	default:
		return fmt.Sprintf("claim(%d)", int(c))
	}
}

// Ledger records which checkout sessions have been finalized. Claim is atomic:
// at most one caller acquires a session at a time, and a completed session is
// never acquired again. An expired lease may be taken over.
type Ledger interface {
	Claim(ctx context.Context, sessionID string, lease time.Duration) (ClaimStatus, error)
	Complete(ctx context.Context, sessionID, orderNumber string) error
	Release(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	state       enums.LedgerState
	leaseUntil  time.Time
	orderNumber string
}

// MemoryLedger keeps the ledger in process memory. Suitable for a single
// instance and for tests.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string]memoryEntry{}, now: time.Now}
}

func (l *MemoryLedger) Claim(_ context.Context, sessionID string, lease time.Duration) (ClaimStatus, error) {
	if err := requireSessionID(sessionID); err != nil {
		return ClaimBusy, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.entries[sessionID]; ok {
		if entry.state == enums.LedgerStateDone {
			return ClaimDone, nil
		}
		if now.Before(entry.leaseUntil) {
			return ClaimBusy, nil
		}
	}
	l.entries[sessionID] = memoryEntry{state: enums.LedgerStateProcessing, leaseUntil: now.Add(lease)}
	return ClaimAcquired, nil
}

func (l *MemoryLedger) Complete(_ context.Context, sessionID, orderNumber string) error {
	if err := requireSessionID(sessionID); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[sessionID] = memoryEntry{state: enums.LedgerStateDone, orderNumber: orderNumber}
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.entries[sessionID]; ok && entry.state == enums.LedgerStateProcessing {
		delete(l.entries, sessionID)
	}
	return nil
}

func requireSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id required")
	}
	return nil
}
