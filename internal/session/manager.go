// Package session keeps one cart and checkout flow per browsing session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/checkout"
	"github.com/xenking/troli-storefront/internal/domain/product"
)

// saveTimeout bounds a single snapshot write triggered by a cart mutation.
const saveTimeout = 2 * time.Second

// Session is the per-visitor state: a cart and the current checkout flow.
type Session struct {
	ID   string
	Cart *cart.Engine

	mu          sync.Mutex
	flow        *checkout.Flow
	lastSeen    time.Time
	unsubscribe func()
}

// Manager owns every live session. Sessions idle longer than the TTL are
// dropped by Sweep; their cart snapshot stays in the Store.
type Manager struct {
	store    cart.Store
	products product.Repository
	checkout *checkout.Service
	ttl      time.Duration
	lg       *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Cart changes are persisted to store, and
// restored snapshots are re-read against products.
func NewManager(
	store cart.Store,
	products product.Repository,
	svc *checkout.Service,
	ttl time.Duration,
	lg *zap.Logger,
) *Manager {
	return &Manager{
		store:    store,
		products: products,
		checkout: svc,
		ttl:      ttl,
		lg:       lg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it when it is not live. A new
// session restores its cart from the Store when a snapshot exists, with each
// line carrying the current catalog record. An empty id allocates a fresh one.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.touch(m.now())
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	lines, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, cart.ErrNoSnapshot):
		lines = nil
	case err != nil:
		return nil, errors.Wrapf(err, "load cart %s", id)
	}
	if lines, err = m.refresh(ctx, lines); err != nil {
		return nil, errors.Wrapf(err, "refresh cart %s", id)
	}

	created := &Session{
		ID:       id,
		Cart:     cart.New(cart.WithLines(lines)),
		lastSeen: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have created it while the store was queried.
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		return s, nil
	}
	created.unsubscribe = created.Cart.Subscribe(m.persist(id))
	m.sessions[id] = created
	return created, nil
}

// Checkout returns the session's checkout flow, starting a new one when there
// is none yet or the previous one completed.
func (m *Manager) Checkout(s *Session) *checkout.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil || s.flow.State() == checkout.Confirmed {
		s.flow = m.checkout.NewFlow(s.ID, s.Cart)
	}
	return s.flow
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and reports how many
// were dropped.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.seen()) <= m.ttl {
			continue
		}
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		delete(m.sessions, id)
		n++
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				m.lg.Debug("Swept idle sessions", zap.Int("count", n), zap.Int("live", m.Len()))
			}
		}
	}
}

// refresh swaps the product stored with each line for the catalog's current
// record. Lines whose product left the catalog are dropped.
func (m *Manager) refresh(ctx context.Context, lines []cart.Line) ([]cart.Line, error) {
	if len(lines) == 0 {
		return lines, nil
	}
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.Product.ID
	}
	current, err := m.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}

	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.Product.ID]
		if !ok {
			m.lg.Debug("Dropping line for removed product", zap.String("product", l.Product.ID))
			continue
		}
		l.Product = p
		out = append(out, l)
	}
	return out, nil
}

// persist writes every post-mutation snapshot to the Store. It runs inside
// the engine's notification, so writes reach the Store in mutation order.
func (m *Manager) persist(id string) cart.Observer {
	return func(st cart.State) {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		var err error
		if st.IsEmpty() {
			err = m.store.Delete(ctx, id)
		} else {
			err = m.store.Save(ctx, id, st.Lines())
		}
		if err != nil {
			m.lg.Warn("Failed to persist cart",
				zap.String("session", id),
				zap.Int("items", st.ItemCount()),
				zap.Error(err),
			)
		}
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
