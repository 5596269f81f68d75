package handler

import (
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/troli-storefront/internal/catalog"
	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/checkout"
	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/internal/domain/product"
)

// imageURL resolves a relative image path against the configured base.
func (h *Handler) imageURL(image string) string {
	if h.cfg.ImageBaseURL == "" || image == "" {
		return image
	}
	if u, err := url.Parse(image); err == nil && u.IsAbs() {
		return image
	}
	return strings.TrimRight(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(image, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	p.Image = h.imageURL(p.Image)
	catalog.EncodeProduct(e, p)
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, p)
		}
	})
}

func encodeSummary(e *jx.Encoder, s cart.Summary) {
	e.Field("subtotal", func(e *jx.Encoder) { catalog.EncodeCents(e, s.Subtotal) })
	e.Field("tax", func(e *jx.Encoder) { catalog.EncodeCents(e, s.Tax) })
	e.Field("shipping", func(e *jx.Encoder) { catalog.EncodeCents(e, s.Shipping) })
	e.Field("total", func(e *jx.Encoder) { catalog.EncodeCents(e, s.GrandTotal) })
}

func (h *Handler) encodeCart(e *jx.Encoder, s cart.State) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range s.Lines() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, l.Product) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { catalog.EncodeCents(e, l.Subtotal()) })
					})
				}
			})
		})
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount()) })
		encodeSummary(e, s.Summary())
	})
}

func encodeForm(e *jx.Encoder, f checkout.Form) {
	e.Obj(func(e *jx.Encoder) {
		for _, field := range checkout.RequiredFields {
			e.Field(string(field), func(e *jx.Encoder) { e.Str(f.Value(field)) })
		}
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(checkout.Confirmed.String()) })
		e.Field("customer", func(e *jx.Encoder) {
			encodeForm(e, checkout.Form{
				Name:    o.Customer.Name,
				Email:   o.Customer.Email,
				Address: o.Customer.Address,
				City:    o.Customer.City,
				ZipCode: o.Customer.ZipCode,
			})
		})
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("unitPrice", func(e *jx.Encoder) { catalog.EncodeMoney(e, it.UnitPrice) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					})
				}
			})
		})
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(o.ItemCount()) })
		e.Field("subtotal", func(e *jx.Encoder) { catalog.EncodeCents(e, o.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { catalog.EncodeCents(e, o.Tax) })
		e.Field("shipping", func(e *jx.Encoder) { catalog.EncodeCents(e, o.Shipping) })
		e.Field("total", func(e *jx.Encoder) { catalog.EncodeCents(e, o.Total) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
	})
}
