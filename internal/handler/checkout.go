package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/domain/checkout"
)

// getCheckout enters the checkout view. An empty cart redirects to the cart.
func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	flow := h.sessions.Checkout(s)
	if err := flow.Enter(); err != nil {
		h.fail(w, r, err)
		return
	}

	state := flow.State()
	form := flow.Form()
	snapshot := s.Cart.State()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("state", func(e *jx.Encoder) { e.Str(state.String()) })
			e.Field("form", func(e *jx.Encoder) { encodeForm(e, form) })
			e.Field("cart", func(e *jx.Encoder) { h.encodeCart(e, snapshot) })
		})
	})
}

// submitCheckout validates the shipping form and places the order.
func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var (
			v   string
			err error
		)
		switch checkout.Field(key) {
		case checkout.FieldName:
			v, err = d.Str()
			form.Name = v
		case checkout.FieldEmail:
			v, err = d.Str()
			form.Email = v
		case checkout.FieldAddress:
			v, err = d.Str()
			form.Address = v
		case checkout.FieldCity:
			v, err = d.Str()
			form.City = v
		case checkout.FieldZipCode:
			v, err = d.Str()
			form.ZipCode = v
		default:
			return d.Skip()
		}
		if err != nil {
			return badRequest("%s: %v", key, err)
		}
		return nil
	}); err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "checkout.Submit",
		trace.WithAttributes(attribute.String("session.id", s.ID)),
	)
	start := time.Now()
	o, err := h.sessions.Checkout(s).Submit(ctx, form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		h.metrics.checkout(ctx, checkoutResult(err))
		h.fail(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	span.End()
	h.metrics.processed(ctx, time.Since(start), "confirmed")
	h.metrics.checkout(ctx, "confirmed")

	zctx.From(ctx).Info("Checkout confirmed",
		zap.String("order_id", o.ID),
		zap.Int("items", o.ItemCount()),
		zap.String("total", o.Total.StringFixed(2)),
	)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
			e.Field("status", func(e *jx.Encoder) { e.Str(checkout.Confirmed.String()) })
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, o) })
		})
	})
}

func checkoutResult(err error) string {
	var validation *checkout.ValidationError
	switch {
	case errors.As(err, &validation):
		return "invalid"
	case errors.Is(err, checkout.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, checkout.ErrProcessing):
		return "processing"
	case errors.Is(err, checkout.ErrCompleted):
		return "completed"
	default:
		return "failed"
	}
}
