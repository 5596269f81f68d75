package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/troli-storefront/internal/domain/product"
)

// listProducts returns the catalog, optionally narrowed by ?category=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	category, err := product.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"))
		return
	}
	products = product.Filter(products, category)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("category", func(e *jx.Encoder) { e.Str(string(category)) })
			e.Field("count", func(e *jx.Encoder) { e.Int(len(products)) })
			e.Field("products", func(e *jx.Encoder) { h.encodeProducts(e, products) })
		})
	})
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"))
		return
	}
	featured := product.Featured(products, product.FeaturedCount)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, featured) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "get product"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, *p) })
}
