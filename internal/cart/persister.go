package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/onetwoclick/rinkshots-backend/pkg/redis"
)

// Persister stores carts by owner key. Load returns (nil, nil) when nothing is
// saved and ErrMalformedCart when the saved data cannot be decoded.
type Persister interface {
	Load(ctx context.Context, ownerKey string) ([]Item, error)
	Save(ctx context.Context, ownerKey string, items []Item) error
	Delete(ctx context.Context, ownerKey string) error
}

func encodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func decodeItems(raw []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if !item.valid() {
			return nil, fmt.Errorf("%w: invalid item %q", ErrMalformedCart, item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", ErrMalformedCart, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerKey string) string
}

// RedisPersister keeps each cart as a JSON list under rk:cart:<ownerKey>.
type RedisPersister struct {
	store redisStore
	ttl   time.Duration
}

func NewRedisPersister(store redisStore, ttl time.Duration) (*RedisPersister, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisPersister{store: store, ttl: ttl}, nil
}

func (p *RedisPersister) Load(ctx context.Context, ownerKey string) ([]Item, error) {
	raw, err := p.store.Get(ctx, p.store.CartKey(ownerKey))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeItems([]byte(raw))
}

// Save refreshes the TTL on every write.
func (p *RedisPersister) Save(ctx context.Context, ownerKey string, items []Item) error {
	payload, err := encodeItems(items)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.store.CartKey(ownerKey), payload, p.ttl)
}

func (p *RedisPersister) Delete(ctx context.Context, ownerKey string) error {
	return p.store.Del(ctx, p.store.CartKey(ownerKey))
}

// MemoryPersister keeps encoded carts in process memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: map[string][]byte{}}
}

func (p *MemoryPersister) Load(_ context.Context, ownerKey string) ([]Item, error) {
	p.mu.Lock()
	raw, ok := p.data[ownerKey]
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeItems(raw)
}

func (p *MemoryPersister) Save(_ context.Context, ownerKey string, items []Item) error {
	payload, err := encodeItems(items)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.data[ownerKey] = payload
	p.mu.Unlock()
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, ownerKey string) error {
	p.mu.Lock()
	delete(p.data, ownerKey)
	p.mu.Unlock()
	return nil
}
