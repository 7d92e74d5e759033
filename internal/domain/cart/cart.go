// Package cart owns the shopping cart state: mutation operations, totals,
// and the persistence round-trip through the key-value store.
package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitronics/storefront/internal/domain/catalog"
	"github.com/vitronics/storefront/pkg/kvstore"
)

// Item is a cart line. Price is a snapshot taken when the item was added, so
// later catalog reloads never reprice a cart.
type Item struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// LineTotal returns price multiplied by quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Lookup resolves a product id to its current catalog entry.
// catalog.Loader satisfies this.
type Lookup interface {
	Find(id int64) (catalog.Product, bool)
}

// Totals summarizes a cart. GrandTotal is always recomputed from the items,
// never cached.
type Totals struct {
	ItemCount  int
	GrandTotal decimal.Decimal
}

// Store owns a single cart. Every mutation persists the new state to the
// key-value store before returning, inside the same critical section, so no
// later operation can observe memory and storage out of sync.
type Store struct {
	kv     kvstore.Store
	key    string
	lookup Lookup
	lg     *zap.Logger

	mu    sync.Mutex
	items []Item

	onChange []func()
}

// NewStore creates a cart Store persisting under the given key.
func NewStore(kv kvstore.Store, key string, lookup Lookup, lg *zap.Logger) *Store {
	return &Store{kv: kv, key: key, lookup: lookup, lg: lg}
}

// OnChange registers fn to run after every successful mutation. Register
// subscribers before the store is shared between goroutines.
func (s *Store) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// Restore rehydrates the cart from the key-value store. An absent or
// unparseable entry yields an empty cart; Restore never fails the caller.
func (s *Store) Restore(ctx context.Context) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.lg.Warn("cart restore failed, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	if !ok {
		return
	}

	items, err := decodeItems([]byte(raw))
	if err != nil {
		s.lg.Warn("stored cart is corrupt, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Add puts the product with the given id into the cart, incrementing the
// quantity when it is already present. An unknown id is logged and ignored:
// the returned ok is false and the cart is untouched. On success the added
// or incremented line is returned.
func (s *Store) Add(ctx context.Context, productID int64) (Item, bool, error) {
	p, found := s.lookup.Find(productID)
	if !found {
		s.lg.Warn("add to cart: unknown product", zap.Int64("product_id", productID))
		return Item{}, false, nil
	}

	s.mu.Lock()
	var line Item
	if i := s.indexLocked(productID); i >= 0 {
		s.items[i].Quantity++
		line = s.items[i]
	} else {
		line = Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image(),
			Quantity: 1,
		}
		s.items = append(s.items, line)
	}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return Item{}, false, err
	}
	s.notify()
	return line, true, nil
}

// SetQuantity sets the quantity of the matching line, clamping to a minimum
// of 1. A missing line is a no-op.
func (s *Store) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	i := s.indexLocked(itemID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.items[i].Quantity = quantity
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Increment raises the quantity of the matching line by one.
func (s *Store) Increment(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	i := s.indexLocked(itemID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.items[i].Quantity++
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Decrement lowers the quantity of the matching line by one. Quantity never
// drops below 1: decrementing a line at 1 is a no-op.
func (s *Store) Decrement(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	i := s.indexLocked(itemID)
	if i < 0 || s.items[i].Quantity <= 1 {
		s.mu.Unlock()
		return nil
	}
	s.items[i].Quantity--
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Remove deletes the matching line. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	i := s.indexLocked(itemID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Clear empties the cart. Used after a completed or cancelled checkout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Totals recomputes the item count and grand total from the current lines.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Totals{GrandTotal: decimal.Zero}
	for _, it := range s.items {
		t.ItemCount += it.Quantity
		t.GrandTotal = t.GrandTotal.Add(it.LineTotal())
	}
	return t
}

// indexLocked returns the position of the line with the given id, or -1.
// Caller must hold s.mu.
func (s *Store) indexLocked(id int64) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the serialized cart to the key-value store.
// Caller must hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.kv.Set(ctx, s.key, string(encodeItems(s.items))); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	return nil
}

func (s *Store) notify() {
	for _, fn := range s.onChange {
		fn()
	}
}
