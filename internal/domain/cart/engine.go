// Package cart implements the cart engine: the single owner of a shopping
// cart's lines and the totals derived from them.
//
// All mutations go through an Engine and are serialized. Each mutation builds
// a fresh immutable State and publishes it atomically, so readers never block
// and never see a partially applied update.
package cart

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/xenking/troli-storefront/internal/domain/product"
)

// Observer receives the post-mutation snapshot after every cart change.
// Observers run synchronously in mutation order and must not call back into
// the Engine that notified them.
type Observer func(State)

// Option configures an Engine.
type Option func(e *Engine)

// WithLines seeds the engine with previously persisted lines. Duplicate
// product lines are merged and non-positive quantities dropped.
func WithLines(lines []Line) Option {
	return func(e *Engine) {
		e.current.Store(newState(normalize(lines)))
	}
}

// Engine owns one cart. It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	current   atomic.Pointer[State]
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn Observer
}

// New creates an empty cart engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	e.current.Store(emptyState)
	for _, o := range opts {
		o(e)
	}
	return e
}

// State returns the latest snapshot. It never blocks on writers.
func (e *Engine) State() State {
	return *e.current.Load()
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (e *Engine) Subscribe(fn Observer) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.observers = append(e.observers, observer{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.observers = slices.DeleteFunc(e.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

// Add puts one unit of p into the cart. An existing line is incremented;
// otherwise a new line is appended. Stock is not checked here.
func (e *Engine) Add(p product.Product) State {
	return e.AddN(p, 1)
}

// AddN adds n units of p as a single update. n <= 0 leaves the cart unchanged.
// The line quantity saturates at MaxQuantity.
func (e *Engine) AddN(p product.Product, n int) State {
	if n <= 0 {
		return e.State()
	}
	return e.mutate(func(lines []Line) ([]Line, bool) {
		if i := indexOf(lines, p.ID); i >= 0 {
			q := addQuantity(lines[i].Quantity, n)
			if q == lines[i].Quantity {
				return lines, false
			}
			lines[i].Quantity = q
			return lines, true
		}
		return append(lines, Line{Product: p, Quantity: min(n, MaxQuantity)}), true
	})
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op.
func (e *Engine) Remove(productID string) State {
	return e.mutate(func(lines []Line) ([]Line, bool) {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines, false
		}
		return slices.Delete(lines, i, i+1), true
	})
}

// UpdateQuantity sets the absolute quantity of productID's line. A quantity
// of zero or below removes the line; one above MaxQuantity is clamped.
// Unknown products are ignored.
func (e *Engine) UpdateQuantity(productID string, quantity int) State {
	if quantity <= 0 {
		return e.Remove(productID)
	}
	quantity = min(quantity, MaxQuantity)
	return e.mutate(func(lines []Line) ([]Line, bool) {
		i := indexOf(lines, productID)
		if i < 0 || lines[i].Quantity == quantity {
			return lines, false
		}
		lines[i].Quantity = quantity
		return lines, true
	})
}

// Clear removes every line.
func (e *Engine) Clear() State {
	return e.mutate(func(lines []Line) ([]Line, bool) {
		return nil, len(lines) > 0
	})
}

// mutate applies fn to a private copy of the current lines. When fn reports
// a change, the new snapshot is published and observers are notified before
// the lock is released, so notifications arrive in mutation order.
func (e *Engine) mutate(fn func(lines []Line) ([]Line, bool)) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.current.Load()
	lines, changed := fn(cur.Lines())
	if !changed {
		return *cur
	}

	next := newState(lines)
	e.current.Store(next)
	for _, o := range e.observers {
		o.fn(*next)
	}
	return *next
}
