package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CartModel owns the cart of one page instance and writes every change
// through to the store before returning.
type CartModel struct {
	mu        sync.Mutex
	store     store.Store
	key       string
	log       logrus.FieldLogger
	cart      domain.Cart
	hydration HydrationFallback
	changes   Notifier[domain.Cart]
}

func NewCartModel(st store.Store, key string, log logrus.FieldLogger) *CartModel {
	return &CartModel{
		store:     st,
		key:       key,
		log:       log,
		hydration: FallbackAbsent,
	}
}

// LoadCartModel creates a model and hydrates it from the store.
func LoadCartModel(ctx context.Context, st store.Store, key string, log logrus.FieldLogger) *CartModel {
	m := NewCartModel(st, key, log)
	m.Reload(ctx)
	return m
}

// Reload replaces the in-memory cart with what the store holds. Missing or
// corrupt data yields an empty cart; the store is left as it is.
func (m *CartModel) Reload(ctx context.Context) domain.Cart {
	data, found, err := m.store.Get(ctx, m.key)
	cart, fallback := hydrateCart(data, found, err)

	log := logger.FromContext(ctx, m.log).WithField("key", m.key)
	switch fallback {
	case FallbackUnreadable:
		log.WithError(err).Warn("cart store read failed, starting with an empty cart")
	case FallbackCorrupt:
		log.Warn("stored cart is corrupt, starting with an empty cart")
	}

	m.mu.Lock()
	m.cart = cart
	m.hydration = fallback
	snapshot := m.cart.Clone()
	m.mu.Unlock()

	m.changes.notify(snapshot)
	return snapshot
}

func hydrateCart(data []byte, found bool, readErr error) (domain.Cart, HydrationFallback) {
	if readErr != nil {
		return domain.Cart{}, FallbackUnreadable
	}
	if !found {
		return domain.Cart{}, FallbackAbsent
	}
	cart, err := domain.DecodeCart(data)
	if err != nil {
		return domain.Cart{}, FallbackCorrupt
	}
	return cart, Hydrated
}

// Hydration reports how the last Reload went.
func (m *CartModel) Hydration() HydrationFallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hydration
}

// Cart returns a copy of the current cart.
func (m *CartModel) Cart() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

func (m *CartModel) Subtotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Subtotal()
}

func (m *CartModel) TotalQuantity() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.TotalQuantity()
}

// Subscribe registers fn to receive the cart after every change.
func (m *CartModel) Subscribe(fn func(domain.Cart)) func() {
	return m.changes.Subscribe(fn)
}

// AddItem increments the line for p, or appends a new line with quantity 1
// priced at p.Price. Prices are taken as given.
func (m *CartModel) AddItem(ctx context.Context, p domain.Product) (domain.Cart, error) {
	var rangeErr error
	cart, err := m.mutate(ctx, "add item", func(c *domain.Cart) bool {
		if i := c.Find(p.ID); i >= 0 {
			if c.Items[i].Quantity == math.MaxInt {
				rangeErr = ErrQuantityRange
				return false
			}
			c.Items[i].Quantity++
			return true
		}
		c.Items = append(c.Items, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  1,
		})
		return true
	})
	if rangeErr != nil {
		return cart, rangeErr
	}
	return cart, err
}

// ChangeQuantity adds delta to the line for productID and drops the line
// once its quantity is zero or below. Unknown products are a no-op. A
// delta that would overflow the quantity changes nothing and returns
// ErrQuantityRange.
func (m *CartModel) ChangeQuantity(ctx context.Context, productID int64, delta int) (domain.Cart, error) {
	var rangeErr error
	cart, err := m.mutate(ctx, "change quantity", func(c *domain.Cart) bool {
		i := c.Find(productID)
		if i < 0 {
			return false
		}
		if delta > 0 && c.Items[i].Quantity > math.MaxInt-delta {
			rangeErr = ErrQuantityRange
			return false
		}
		qty := c.Items[i].Quantity + delta
		if qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
		c.Items[i].Quantity = qty
		return true
	})
	if rangeErr != nil {
		return cart, rangeErr
	}
	return cart, err
}

// Clear empties the cart. Only a confirmed checkout calls it.
func (m *CartModel) Clear(ctx context.Context) (domain.Cart, error) {
	return m.mutate(ctx, "clear", func(c *domain.Cart) bool {
		c.Items = nil
		return true
	})
}

// mutate applies fn to a copy of the cart, persists the copy and only then
// swaps it in. On a failed write the in-memory cart is left untouched.
func (m *CartModel) mutate(ctx context.Context, op string, fn func(*domain.Cart) bool) (domain.Cart, error) {
	m.mu.Lock()
	next := m.cart.Clone()
	if !fn(&next) {
		m.mu.Unlock()
		return next, nil
	}

	if err := m.persist(ctx, next); err != nil {
		current := m.cart.Clone()
		m.mu.Unlock()
		logger.FromContext(ctx, m.log).WithError(err).WithField("op", op).Error("failed to persist cart")
		return current, err
	}
	m.cart = next
	snapshot := next.Clone()
	m.mu.Unlock()

	m.changes.notify(snapshot)
	return snapshot, nil
}

func (m *CartModel) persist(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := m.store.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("%w: cart: %w", ErrPersist, err)
	}
	return nil
}
