package cart

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/onetwoclick/rinkshots-backend/pkg/metrics"
)

type photoLoader interface {
	GetPhoto(ctx context.Context, id string) (*catalog.PhotoDTO, error)
}

// Service exposes owner-scoped cart operations for the HTTP layer.
type Service interface {
	Open(ctx context.Context, ownerKey string) (*Store, error)
	Get(ctx context.Context, ownerKey string) (*Snapshot, error)
	AddItem(ctx context.Context, ownerKey string, input AddItemInput) (*Snapshot, Notice, error)
	UpdateQuantity(ctx context.Context, ownerKey, itemID string, quantity int) (*Snapshot, Notice, error)
	RemoveItem(ctx context.Context, ownerKey, itemID string) (*Snapshot, Notice, error)
	Clear(ctx context.Context, ownerKey string, notify bool) (*Snapshot, Notice, error)
	MergeGuest(ctx context.Context, guestKey, userKey string) (*Snapshot, Notice, error)
}

// AddItemInput is the client payload for adding a photo. Prices come from the PriceList.
type AddItemInput struct {
	PhotoID      string
	PurchaseType string
	Options      *Options
}

// Snapshot is the cart as returned to clients.
type Snapshot struct {
	OwnerKey string `json:"ownerKey"`
	Items    []Item `json:"items"`
	Totals
}

type ServiceParams struct {
	Persister Persister
	Photos    photoLoader
	Prices    PriceList
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
}

type service struct {
	persister Persister
	photos    photoLoader
	prices    PriceList
	logg      *logger.Logger
	metrics   *metrics.CartMetrics

	// serializes read-modify-write per owner within this process; owners
	// hash onto a fixed set of stripes so guest keys never accumulate
	locks [lockStripes]sync.Mutex
}

const lockStripes = 64

func NewService(params ServiceParams) (Service, error) {
	if params.Persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart persister required")
	}
	if params.Photos == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photo loader required")
	}
	if !params.Prices.Digital.IsPositive() || !params.Prices.Print.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "price list must be positive")
	}
	return &service{
		persister: params.Persister,
		photos:    params.Photos,
		prices:    params.Prices,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// Open returns a store loaded with ownerKey's saved cart.
func (s *service) Open(ctx context.Context, ownerKey string) (*Store, error) {
	store, err := NewStore(s.persister, WithLogger(s.logg), WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	if err := store.SwitchOwner(ctx, ownerKey); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *service) Get(ctx context.Context, ownerKey string) (*Snapshot, error) {
	store, err := s.Open(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return snapshotOf(store), nil
}

func (s *service) AddItem(ctx context.Context, ownerKey string, input AddItemInput) (*Snapshot, Notice, error) {
	purchaseType, err := enums.ParsePurchaseType(input.PurchaseType)
	if err != nil {
		return nil, Notice{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase type")
	}
	price, err := s.prices.PriceFor(purchaseType)
	if err != nil {
		return nil, Notice{}, err
	}
	photoID := strings.TrimSpace(input.PhotoID)
	if photoID == "" {
		return nil, Notice{}, pkgerrors.New(pkgerrors.CodeValidation, "photoId is required")
	}
	photo, err := s.photos.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, Notice{}, err
	}

	return s.mutate(ctx, ownerKey, func(store *Store) (Notice, error) {
		return store.AddItem(ctx, Photo{
			ID:          photo.ID,
			DisplayName: photo.DisplayName,
			ImageURL:    photo.ImageURL,
		}, purchaseType, price, input.Options)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, ownerKey, itemID string, quantity int) (*Snapshot, Notice, error) {
	return s.mutate(ctx, ownerKey, func(store *Store) (Notice, error) {
		return store.UpdateQuantity(ctx, itemID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, ownerKey, itemID string) (*Snapshot, Notice, error) {
	return s.mutate(ctx, ownerKey, func(store *Store) (Notice, error) {
		return store.RemoveItem(ctx, itemID)
	})
}

func (s *service) Clear(ctx context.Context, ownerKey string, notify bool) (*Snapshot, Notice, error) {
	return s.mutate(ctx, ownerKey, func(store *Store) (Notice, error) {
		return store.Clear(ctx, notify)
	})
}

// MergeGuest folds the guest cart into the user's cart and deletes the guest
// cart. The user cart is written before the guest cart is removed.
func (s *service) MergeGuest(ctx context.Context, guestKey, userKey string) (*Snapshot, Notice, error) {
	if strings.TrimSpace(guestKey) == "" || strings.TrimSpace(userKey) == "" {
		return nil, Notice{}, pkgerrors.New(pkgerrors.CodeValidation, "guest and user owner keys are required")
	}
	if guestKey == userKey {
		snap, err := s.Get(ctx, userKey)
		return snap, Notice{}, err
	}

	unlock := s.lock(guestKey, userKey)
	defer unlock()

	guest, err := s.Open(ctx, guestKey)
	if err != nil {
		return nil, Notice{}, err
	}
	guestItems := guest.Items()

	snap, notice, err := s.mutateLocked(ctx, userKey, func(store *Store) (Notice, error) {
		return store.Merge(ctx, guestItems)
	})
	if err != nil {
		return nil, Notice{}, err
	}

	if err := s.persister.Delete(ctx, guestKey); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOwnerKey(ctx, guestKey), "cart.merge: guest cart not deleted: "+err.Error())
		}
	}
	return snap, notice, nil
}

func (s *service) mutate(ctx context.Context, ownerKey string, fn func(*Store) (Notice, error)) (*Snapshot, Notice, error) {
	unlock := s.lock(ownerKey)
	defer unlock()
	return s.mutateLocked(ctx, ownerKey, fn)
}

func (s *service) mutateLocked(ctx context.Context, ownerKey string, fn func(*Store) (Notice, error)) (*Snapshot, Notice, error) {
	store, err := s.Open(ctx, ownerKey)
	if err != nil {
		return nil, Notice{}, err
	}
	notice, err := fn(store)
	if err != nil {
		return nil, Notice{}, err
	}
	return snapshotOf(store), notice, nil
}

// lock acquires the stripes for the given owners in index order, taking each
// stripe once even when owners share it.
func (s *service) lock(ownerKeys ...string) func() {
	var held [lockStripes]bool
	for _, key := range ownerKeys {
		held[stripeOf(key)] = true
	}
	for i := range held {
		if held[i] {
			s.locks[i].Lock()
		}
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			if held[i] {
				s.locks[i].Unlock()
			}
		}
	}
}

func stripeOf(ownerKey string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerKey))
	return int(h.Sum32() % lockStripes)
}

func snapshotOf(store *Store) *Snapshot {
	return &Snapshot{
		OwnerKey: store.OwnerKey(),
		Items:    store.Items(),
		Totals:   store.Totals(),
	}
}
