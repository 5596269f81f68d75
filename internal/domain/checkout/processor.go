package checkout

import (
	"context"
	"time"

	"github.com/xenking/troli-storefront/internal/domain/order"
)

// SimulatedDelay is how long SimulatedProcessor pretends to talk to a payment
// provider.
const SimulatedDelay = 2 * time.Second

// Processor settles payment for an order before it is confirmed. It is the
// seam where a real payment call replaces the simulation.
type Processor interface {
	Process(ctx context.Context, o *order.Order) error
}

// SimulatedProcessor waits for a fixed delay and always succeeds. The wait
// is not cancellable.
type SimulatedProcessor struct {
	Delay time.Duration

	sleep func(time.Duration)
}

var _ Processor = (*SimulatedProcessor)(nil)

// NewSimulatedProcessor returns a processor that waits SimulatedDelay.
func NewSimulatedProcessor() *SimulatedProcessor {
	return &SimulatedProcessor{Delay: SimulatedDelay}
}

// Process blocks for the configured delay and returns nil.
func (p *SimulatedProcessor) Process(_ context.Context, _ *order.Order) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if p.Delay > 0 {
		sleep(p.Delay)
	}
	return nil
}
