package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/checkout"
	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/internal/domain/product"
	"github.com/xenking/troli-storefront/internal/storage/memory"
)

type instantProcessor struct{}

func (instantProcessor) Process(context.Context, *order.Order) error { return nil }

type failingStore struct {
	loadErr error
	saveErr error

	mu    sync.Mutex
	saves int
}

func (f *failingStore) Load(context.Context, string) ([]cart.Line, error) {
	return nil, f.loadErr
}

func (f *failingStore) Save(context.Context, string, []cart.Line) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return f.saveErr
}

func (f *failingStore) Delete(context.Context, string) error { return f.saveErr }

// stubProducts serves whatever products it holds; err fails every call.
type stubProducts struct {
	mu       sync.Mutex
	products map[string]product.Product
	err      error
}

func newStubProducts(ids ...string) *stubProducts {
	s := &stubProducts{products: make(map[string]product.Product)}
	for _, id := range ids {
		s.products[id] = testProduct(id)
	}
	return s
}

func (s *stubProducts) set(p product.Product) {
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
}

func (s *stubProducts) remove(id string) {
	s.mu.Lock()
	delete(s.products, id)
	s.mu.Unlock()
}

func (s *stubProducts) List(context.Context) ([]product.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *stubProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestManager(t *testing.T, store cart.Store) (*Manager, *time.Time) {
	t.Helper()
	return newTestManagerWithProducts(t, store, newStubProducts("1", "2", "3"))
}

func newTestManagerWithProducts(t *testing.T, store cart.Store, products product.Repository) (*Manager, *time.Time) {
	t.Helper()
	svc := checkout.NewService(instantProcessor{}, memory.NewOrderRepository())
	m := NewManager(store, products, svc, 30*time.Minute, zap.NewNop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func testProduct(id string) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(10),
		Category: product.CategoryBooks,
		InStock:  true,
	}
}

func TestManager_GetCreatesAndReuses(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, memory.NewCartStore())

	s1, err := m.Get(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, s1.ID)

	s2, err := m.Get(ctx, s1.ID)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	other, err := m.Get(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, other.ID)
	assert.Equal(t, 2, m.Len())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, memory.NewCartStore())

	a, err := m.Get(ctx, "a")
	require.NoError(t, err)
	b, err := m.Get(ctx, "b")
	require.NoError(t, err)

	a.Cart.Add(testProduct("1"))
	assert.Equal(t, 1, a.Cart.State().ItemCount())
	assert.True(t, b.Cart.State().IsEmpty())
}

func TestManager_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCartStore()
	m, now := newTestManager(t, store)

	s, err := m.Get(ctx, "visitor")
	require.NoError(t, err)
	s.Cart.AddN(testProduct("1"), 3)
	s.Cart.Add(testProduct("2"))

	lines, err := store.Load(ctx, "visitor")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)

	// Expire the session; the snapshot survives.
	*now = now.Add(31 * time.Minute)
	assert.Equal(t, 1, m.Sweep(*now))
	assert.Zero(t, m.Len())

	restored, err := m.Get(ctx, "visitor")
	require.NoError(t, err)
	assert.NotSame(t, s, restored)
	assert.Equal(t, 4, restored.Cart.State().ItemCount())

	// The swept engine no longer writes to the store.
	s.Cart.Clear()
	lines, err = store.Load(ctx, "visitor")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	// Clearing the live cart deletes the snapshot.
	restored.Cart.Clear()
	_, err = store.Load(ctx, "visitor")
	require.ErrorIs(t, err, cart.ErrNoSnapshot)
}

func TestManager_RestoreUsesCurrentProducts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCartStore()
	products := newStubProducts("1", "2", "3")
	m, now := newTestManagerWithProducts(t, store, products)

	s, err := m.Get(ctx, "visitor")
	require.NoError(t, err)
	s.Cart.AddN(testProduct("1"), 2)
	s.Cart.Add(testProduct("2"))
	s.Cart.Add(testProduct("3"))

	repriced := testProduct("1")
	repriced.Price = decimal.NewFromInt(25)
	products.set(repriced)
	products.remove("2")

	*now = now.Add(31 * time.Minute)
	require.Equal(t, 1, m.Sweep(*now))

	restored, err := m.Get(ctx, "visitor")
	require.NoError(t, err)
	st := restored.Cart.State()
	require.Equal(t, 2, st.Len())

	line, ok := st.Line("1")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, decimal.NewFromInt(25).Equal(line.Product.Price))
	_, ok = st.Line("2")
	assert.False(t, ok)
	assert.Equal(t, 3, st.ItemCount())
	// 2 × 25 + 1 × 10.
	assert.True(t, decimal.NewFromInt(60).Equal(st.Total()))
}

func TestManager_RestoreProductError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCartStore()
	require.NoError(t, store.Save(ctx, "visitor", []cart.Line{{Product: testProduct("1"), Quantity: 1}}))

	products := newStubProducts("1")
	products.err = errors.New("catalog down")
	m, _ := newTestManagerWithProducts(t, store, products)

	_, err := m.Get(ctx, "visitor")
	require.ErrorContains(t, err, "catalog down")
	assert.Zero(t, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	m, now := newTestManager(t, memory.NewCartStore())

	_, err := m.Get(ctx, "old")
	require.NoError(t, err)

	*now = now.Add(20 * time.Minute)
	_, err = m.Get(ctx, "fresh")
	require.NoError(t, err)

	*now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, m.Sweep(*now))
	assert.Equal(t, 1, m.Len())

	// Touching a session keeps it alive.
	_, err = m.Get(ctx, "fresh")
	require.NoError(t, err)
	*now = now.Add(29 * time.Minute)
	assert.Zero(t, m.Sweep(*now))
}

func TestManager_LoadError(t *testing.T) {
	m, _ := newTestManager(t, &failingStore{loadErr: errors.New("redis down")})

	_, err := m.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestManager_SaveErrorDoesNotBlockMutation(t *testing.T) {
	store := &failingStore{loadErr: cart.ErrNoSnapshot, saveErr: errors.New("redis down")}
	m, _ := newTestManager(t, store)

	s, err := m.Get(context.Background(), "x")
	require.NoError(t, err)

	st := s.Cart.Add(testProduct("1"))
	assert.Equal(t, 1, st.ItemCount())
	assert.Equal(t, 1, store.saves)
}

func TestManager_Checkout(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, memory.NewCartStore())

	s, err := m.Get(ctx, "x")
	require.NoError(t, err)

	f := m.Checkout(s)
	assert.Same(t, f, m.Checkout(s), "flow is reused while in progress")

	s.Cart.Add(testProduct("1"))
	require.NoError(t, f.Enter())
	_, err = f.Submit(ctx, checkout.Form{
		Name: "n", Email: "e", Address: "a", City: "c", ZipCode: "z",
	})
	require.NoError(t, err)
	require.Equal(t, checkout.Confirmed, f.State())

	next := m.Checkout(s)
	assert.NotSame(t, f, next)
	assert.ErrorIs(t, next.Enter(), checkout.ErrEmptyCart)
}

func TestManager_Run(t *testing.T) {
	m, _ := newTestManager(t, memory.NewCartStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
