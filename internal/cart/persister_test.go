package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgredis "github.com/onetwoclick/rinkshots-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisPersister(t *testing.T, ttl time.Duration) (*RedisPersister, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	persister, err := NewRedisPersister(pkgredis.Wrap(raw), ttl)
	require.NoError(t, err)
	return persister, mr
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	persister, mr := newRedisPersister(t, time.Hour)

	items := []Item{
		{ID: "p1-digital", PhotoID: "p1", PurchaseType: enums.PurchaseTypeDigital, Price: digitalPrice, Quantity: 1, DisplayName: "Photo 1"},
		{ID: "p2-print-standard_print", PhotoID: "p2", PurchaseType: enums.PurchaseTypePrint, Price: printPrice, Quantity: 2, Options: &Options{Type: "standard_print"}},
	}
	require.NoError(t, persister.Save(ctx, "user:a@example.com", items))
	require.True(t, mr.Exists("rk:cart:user:a@example.com"))
	require.Equal(t, time.Hour, mr.TTL("rk:cart:user:a@example.com"))

	loaded, err := persister.Load(ctx, "user:a@example.com")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "p2-print-standard_print", loaded[1].ID)
	require.True(t, loaded[1].Price.Equal(printPrice))
	require.Equal(t, "standard_print", loaded[1].Options.Type)

	require.NoError(t, persister.Delete(ctx, "user:a@example.com"))
	loaded, err = persister.Load(ctx, "user:a@example.com")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestRedisPersisterMissingKey(t *testing.T) {
	persister, _ := newRedisPersister(t, 0)

	loaded, err := persister.Load(context.Background(), "guest:none")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestRedisPersisterMalformed(t *testing.T) {
	persister, mr := newRedisPersister(t, 0)
	require.NoError(t, mr.Set("rk:cart:guest:x", "not-json"))

	_, err := persister.Load(context.Background(), "guest:x")
	require.ErrorIs(t, err, ErrMalformedCart)

	require.NoError(t, mr.Set("rk:cart:guest:y", `[{"cartItemId":"p1-digital","photoId":"p1","purchaseType":"digital","price":"4","quantity":0}]`))
	_, err = persister.Load(context.Background(), "guest:y")
	require.ErrorIs(t, err, ErrMalformedCart)
}

func TestRedisPersisterUnavailable(t *testing.T) {
	persister, mr := newRedisPersister(t, 0)
	mr.Close()

	_, err := persister.Load(context.Background(), "guest:x")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMalformedCart))
}

func TestDecodeItemsRejectsDuplicates(t *testing.T) {
	raw := []byte(`[
		{"cartItemId":"p1-digital","photoId":"p1","purchaseType":"digital","price":"4","quantity":1},
		{"cartItemId":"p1-digital","photoId":"p1","purchaseType":"digital","price":"4","quantity":2}
	]`)
	_, err := decodeItems(raw)
	require.ErrorIs(t, err, ErrMalformedCart)
}

func TestNewRedisPersisterRequiresStore(t *testing.T) {
	_, err := NewRedisPersister(nil, time.Minute)
	require.Error(t, err)
}
