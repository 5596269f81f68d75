package handler

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	cartMutations metric.Int64Counter
	checkouts     metric.Int64Counter
	processing    metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	if m.cartMutations, err = meter.Int64Counter("troli.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "cart mutations counter")
	}
	if m.checkouts, err = meter.Int64Counter("troli.checkout.submissions",
		metric.WithDescription("Checkout submissions by result"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout counter")
	}
	if m.processing, err = meter.Float64Histogram("troli.checkout.processing.duration",
		metric.WithDescription("Time spent processing a valid checkout"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, errors.Wrap(err, "processing histogram")
	}
	return &m, nil
}

func (m *metrics) cartMutation(ctx context.Context, op string) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *metrics) checkout(ctx context.Context, result string) {
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metrics) processed(ctx context.Context, d time.Duration, result string) {
	m.processing.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("result", result)))
}
