// Package checkout implements the checkout flow that turns a cart into a
// confirmed order.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/order"
)

// Sentinel errors returned by Flow.
var (
	ErrEmptyCart  = fmt.Errorf("cart is empty")
	ErrProcessing = fmt.Errorf("checkout is already processing")
	ErrCompleted  = fmt.Errorf("checkout already completed")
)

// State is the stage a checkout flow is in.
type State int

const (
	// Editing means the form is open for input.
	Editing State = iota
	// Blocked means the cart was empty on entry; the caller should send the
	// shopper back to the cart.
	Blocked
	// Validating is held while a submission's form is checked.
	Validating
	// Processing means a submission passed validation and payment is in
	// flight.
	Processing
	// Confirmed is terminal: the order exists and the cart was cleared.
	Confirmed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Blocked:
		return "blocked"
	case Validating:
		return "validating"
	case Processing:
		return "processing"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Service creates checkout flows and holds their shared dependencies.
type Service struct {
	processor Processor
	orders    order.Repository
	now       func() time.Time
	newID     func() string
}

// NewService creates a checkout Service.
func NewService(processor Processor, orders order.Repository) *Service {
	return &Service{
		processor: processor,
		orders:    orders,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// NewFlow starts a checkout for the given session cart. The flow starts in
// Editing; call Enter before showing the form.
func (s *Service) NewFlow(sessionID string, c *cart.Engine) *Flow {
	return &Flow{
		svc:       s,
		sessionID: sessionID,
		cart:      c,
		state:     Editing,
	}
}

// Flow is a single checkout attempt bound to one cart.
type Flow struct {
	svc       *Service
	sessionID string
	cart      *cart.Engine

	mu    sync.Mutex
	state State
	form  Form
	order *order.Order
}

// State returns the current stage.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form returns the last submitted form values. They survive failed
// validation so the shopper does not retype them.
func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Order returns the confirmed order, or nil before confirmation.
func (f *Flow) Order() *order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Enter evaluates the empty-cart gate. It runs on every entry, not just the
// first, so a cart emptied in another view blocks re-entry.
func (f *Flow) Enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case Confirmed:
		return ErrCompleted
	case Processing:
		return nil
	}
	if f.cart.State().IsEmpty() {
		f.state = Blocked
		return ErrEmptyCart
	}
	f.state = Editing
	return nil
}

// Submit validates the form and, on success, processes payment, records the
// order and clears the cart exactly once. Concurrent or repeated submissions
// are rejected with ErrProcessing or ErrCompleted. The processing step runs
// to completion even if ctx is cancelled.
func (f *Flow) Submit(ctx context.Context, form Form) (*order.Order, error) {
	f.mu.Lock()
	switch f.state {
	case Processing:
		f.mu.Unlock()
		return nil, ErrProcessing
	case Confirmed:
		f.mu.Unlock()
		return nil, ErrCompleted
	}
	f.form = form

	snapshot := f.cart.State()
	if snapshot.IsEmpty() {
		f.state = Blocked
		f.mu.Unlock()
		return nil, ErrEmptyCart
	}
	f.state = Validating
	if err := form.Validate(); err != nil {
		f.state = Editing
		f.mu.Unlock()
		return nil, err
	}
	f.state = Processing
	f.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	o := f.svc.newOrder(f.sessionID, form, snapshot)

	if err := f.svc.processor.Process(ctx, o); err != nil {
		f.setState(Editing)
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if err := f.svc.orders.Create(ctx, o); err != nil {
		f.setState(Editing)
		return nil, fmt.Errorf("create order: %w", err)
	}

	f.cart.Clear()

	f.mu.Lock()
	f.state = Confirmed
	f.order = o
	f.mu.Unlock()

	return o, nil
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// newOrder snapshots the cart into an order. Money amounts are rounded to
// cents.
func (s *Service) newOrder(sessionID string, form Form, snapshot cart.State) *order.Order {
	lines := snapshot.Lines()
	items := make([]order.Item, len(lines))
	for i, l := range lines {
		items[i] = order.Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
		}
	}

	sum := snapshot.Summary()
	subtotal := sum.Subtotal.Round(2)
	tax := sum.Tax.Round(2)
	shipping := sum.Shipping.Round(2)

	return &order.Order{
		ID:        s.newID(),
		SessionID: sessionID,
		Customer: order.Customer{
			Name:    form.Name,
			Email:   form.Email,
			Address: form.Address,
			City:    form.City,
			ZipCode: form.ZipCode,
		},
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     decimal.Sum(subtotal, tax, shipping),
		CreatedAt: s.now().UTC(),
	}
}
