// Package memory provides in-process implementations of the storage ports,
// used when no database or Redis is configured.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/order"
)

var (
	_ cart.Store       = (*CartStore)(nil)
	_ order.Repository = (*OrderRepository)(nil)
)

// CartStore keeps cart snapshots in a map.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string][]cart.Line
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string][]cart.Line)}
}

// Load returns cart.ErrNoSnapshot when key has no snapshot.
func (s *CartStore) Load(_ context.Context, key string) ([]cart.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines, ok := s.carts[key]
	if !ok {
		return nil, cart.ErrNoSnapshot
	}
	return slices.Clone(lines), nil
}

func (s *CartStore) Save(_ context.Context, key string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = slices.Clone(lines)
	return nil
}

func (s *CartStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}

// OrderRepository keeps orders in a map keyed by id.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]order.Order)}
}

// Create stores a copy of o. Ids must be unique.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return errors.Errorf("order %q already exists", o.ID)
	}
	stored := *o
	stored.Items = slices.Clone(o.Items)
	r.orders[o.ID] = stored
	return nil
}

// GetByID returns order.ErrNotFound for unknown ids.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}
