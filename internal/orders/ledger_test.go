package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
	pkgredis "github.com/onetwoclick/rinkshots-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// exerciseLedger runs the claim lifecycle shared by every driver. advance
// moves the driver's clock past the lease.
func exerciseLedger(t *testing.T, ledger Ledger, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()
	lease := time.Minute

	status, err := ledger.Claim(ctx, "cs_1", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, status)

	status, err = ledger.Claim(ctx, "cs_1", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimBusy, status)

	require.NoError(t, ledger.Release(ctx, "cs_1"))
	status, err = ledger.Claim(ctx, "cs_1", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, status)

	require.NoError(t, ledger.Complete(ctx, "cs_1", "ORDER-000001"))
	status, err = ledger.Claim(ctx, "cs_1", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimDone, status)

	// releasing a completed session keeps it done
	require.NoError(t, ledger.Release(ctx, "cs_1"))
	status, err = ledger.Claim(ctx, "cs_1", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimDone, status)

	status, err = ledger.Claim(ctx, "cs_2", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, status)
	advance(2 * lease)
	status, err = ledger.Claim(ctx, "cs_2", lease)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, status, "expired lease is taken over")

	_, err = ledger.Claim(ctx, " ", lease)
	require.Error(t, err)
}

func TestMemoryLedger(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := NewMemoryLedger()
	ledger.now = func() time.Time { return now }

	exerciseLedger(t, ledger, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisLedger(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	store := pkgredis.Wrap(raw)

	ledger, err := NewRedisLedger(store, 24*time.Hour)
	require.NoError(t, err)

	exerciseLedger(t, ledger, mr.FastForward)

	require.True(t, mr.Exists(store.LedgerKey(ledgerDone, "cs_1")))
	got, err := mr.Get(store.LedgerKey(ledgerDone, "cs_1"))
	require.NoError(t, err)
	require.Equal(t, "ORDER-000001", got)
	require.False(t, mr.Exists(store.LedgerKey(ledgerLease, "cs_1")))
	require.Greater(t, mr.TTL(store.LedgerKey(ledgerDone, "cs_1")), time.Duration(0))
}

func TestNewRedisLedgerRequiresStore(t *testing.T) {
	t.Parallel()
	_, err := NewRedisLedger(nil, time.Hour)
	require.Error(t, err)
}

func newSQLiteLedger(t *testing.T) (*GormLedger, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.ProcessedSession{}))

	ledger, err := NewGormLedger(conn)
	require.NoError(t, err)
	return ledger, conn
}

func TestGormLedger(t *testing.T) {
	t.Parallel()
	ledger, conn := newSQLiteLedger(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	exerciseLedger(t, ledger, func(d time.Duration) { now = now.Add(d) })

	var row models.ProcessedSession
	require.NoError(t, conn.First(&row, "session_id = ?", "cs_1").Error)
	require.Equal(t, "done", string(row.State))
	require.NotNil(t, row.OrderNumber)
	require.Equal(t, "ORDER-000001", *row.OrderNumber)
	require.NotNil(t, row.CompletedAt)
	require.Nil(t, row.LeaseExpiresAt)
}

func TestGormLedgerCompleteRequiresClaim(t *testing.T) {
	t.Parallel()
	ledger, _ := newSQLiteLedger(t)
	require.Error(t, ledger.Complete(context.Background(), "cs_never", "ORDER-1"))
}

func TestNewLedgerFromConfig(t *testing.T) {
	t.Parallel()

	ledger, err := NewLedgerFromConfig(config.LedgerConfig{Driver: "memory"}, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &MemoryLedger{}, ledger)

	_, err = NewLedgerFromConfig(config.LedgerConfig{Driver: "redis"}, nil, nil)
	require.Error(t, err)

	_, conn := newSQLiteLedger(t)
	ledger, err = NewLedgerFromConfig(config.LedgerConfig{Driver: "Postgres"}, nil, conn)
	require.NoError(t, err)
	require.IsType(t, &GormLedger{}, ledger)

	_, err = NewLedgerFromConfig(config.LedgerConfig{Driver: "etcd"}, nil, nil)
	require.ErrorContains(t, err, "unknown ledger driver")
}
