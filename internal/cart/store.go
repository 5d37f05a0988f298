package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/onetwoclick/rinkshots-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Store holds the cart of one owner key. Every mutation is written through the
// Persister before it becomes visible; a failed write leaves the store unchanged.
type Store struct {
	mu        sync.Mutex
	ownerKey  string
	items     []Item
	persister Persister
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

func WithLogger(logg *logger.Logger) StoreOption {
	return func(s *Store) { s.logg = logg }
}

func WithMetrics(m *metrics.CartMetrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns an empty store with no owner. Call SwitchOwner to load a cart.
func NewStore(persister Persister, opts ...StoreOption) (*Store, error) {
	if persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart persister required")
	}
	s := &Store{persister: persister}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) OwnerKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerKey
}

// Items returns a copy of the current rows in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Totals recomputes count and total from the current items.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.items)
}

// SwitchOwner loads the cart saved under ownerKey, replacing the in-memory
// state. Nothing is written for the previous owner. Undecodable saved data
// is logged and the cart starts empty.
func (s *Store) SwitchOwner(ctx context.Context, ownerKey string) error {
	ownerKey = strings.TrimSpace(ownerKey)
	if ownerKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}

	items, err := s.persister.Load(ctx, ownerKey)
	if err != nil {
		if !errors.Is(err, ErrMalformedCart) {
			s.mu.Lock()
			s.ownerKey, s.items = ownerKey, nil
			s.mu.Unlock()
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOwnerKey(ctx, ownerKey), "cart.load_reset: "+err.Error())
		}
		s.metrics.IncLoadReset()
		items = nil
	}

	s.mu.Lock()
	s.ownerKey = ownerKey
	s.items = items
	s.mu.Unlock()
	return nil
}

// AddItem adds one unit of photo as purchaseType at price. A row with the
// same derived id gets its quantity incremented; other fields stay as they were.
func (s *Store) AddItem(ctx context.Context, photo Photo, purchaseType enums.PurchaseType, price decimal.Decimal, opts *Options) (Notice, error) {
	photoID := strings.TrimSpace(photo.ID)
	if photoID == "" {
		return Notice{}, pkgerrors.New(pkgerrors.CodeValidation, "photo id is required")
	}
	if !purchaseType.IsValid() {
		return Notice{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase type").
			WithDetails(map[string]any{"purchaseType": purchaseType.String()})
	}
	if !price.IsPositive() {
		return Notice{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive").
			WithDetails(map[string]any{"price": price.String()})
	}

	if err := opts.Validate(); err != nil {
		return Notice{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid options")
	}
	opts = opts.normalized()
	id := ItemID(photoID, purchaseType, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwner(); err != nil {
		return Notice{}, err
	}

	next := cloneItems(s.items)
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity++
			if err := s.commit(ctx, next, "add"); err != nil {
				return Notice{}, err
			}
			return newNotice(NoticeQuantityUpdated, id), nil
		}
	}

	next = append(next, Item{
		ID:           id,
		PhotoID:      photoID,
		PurchaseType: purchaseType,
		Price:        price,
		Quantity:     1,
		ImageURL:     photo.ImageURL,
		DisplayName:  photo.DisplayName,
		Options:      opts,
	})
	if err := s.commit(ctx, next, "add"); err != nil {
		return Notice{}, err
	}
	return newNotice(NoticeItemAdded, id), nil
}

// RemoveItem drops the row; absent ids are a no-op with an empty notice.
func (s *Store) RemoveItem(ctx context.Context, itemID string) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwner(); err != nil {
		return Notice{}, err
	}
	return s.removeLocked(ctx, itemID)
}

// UpdateQuantity sets the quantity of a row; anything below 1 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwner(); err != nil {
		return Notice{}, err
	}
	if quantity < 1 {
		return s.removeLocked(ctx, itemID)
	}

	idx := s.indexLocked(itemID)
	if idx < 0 {
		return Notice{}, nil
	}
	if s.items[idx].Quantity == quantity {
		return newNotice(NoticeQuantityUpdated, itemID), nil
	}
	next := cloneItems(s.items)
	next[idx].Quantity = quantity
	if err := s.commit(ctx, next, "update_quantity"); err != nil {
		return Notice{}, err
	}
	return newNotice(NoticeQuantityUpdated, itemID), nil
}

// Clear empties the cart. With notify=false the returned notice is empty, as
// after a completed payment.
func (s *Store) Clear(ctx context.Context, notify bool) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwner(); err != nil {
		return Notice{}, err
	}
	if err := s.commit(ctx, []Item{}, "clear"); err != nil {
		return Notice{}, err
	}
	if !notify {
		return Notice{}, nil
	}
	return newNotice(NoticeCartCleared, ""), nil
}

// Merge folds items into the cart: matching ids add their quantities, new ids
// are appended.
func (s *Store) Merge(ctx context.Context, items []Item) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwner(); err != nil {
		return Notice{}, err
	}
	if len(items) == 0 {
		return Notice{}, nil
	}

	next := cloneItems(s.items)
	index := make(map[string]int, len(next))
	for i, item := range next {
		index[item.ID] = i
	}
	for _, item := range cloneItems(items) {
		if !item.valid() {
			continue
		}
		if i, ok := index[item.ID]; ok {
			next[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(next)
		next = append(next, item)
	}
	if err := s.commit(ctx, next, "merge"); err != nil {
		return Notice{}, err
	}
	return newNotice(NoticeCartMerged, ""), nil
}

func (s *Store) removeLocked(ctx context.Context, itemID string) (Notice, error) {
	idx := s.indexLocked(itemID)
	if idx < 0 {
		return Notice{}, nil
	}
	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.commit(ctx, cloneItems(next), "remove"); err != nil {
		return Notice{}, err
	}
	return newNotice(NoticeItemRemoved, itemID), nil
}

func (s *Store) indexLocked(itemID string) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) requireOwner() error {
	if s.ownerKey == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "cart owner not set")
	}
	return nil
}

func (s *Store) commit(ctx context.Context, next []Item, op string) error {
	if err := s.persister.Save(ctx, s.ownerKey, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	s.items = next
	s.metrics.IncMutation(op)
	return nil
}
