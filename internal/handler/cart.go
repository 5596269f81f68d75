package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/product"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, s.Cart.State())
}

// addCartItem adds quantity units (default 1) of an in-stock product.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  = 1
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case productID == "":
		h.fail(w, r, badRequest("productId is required"))
		return
	case quantity < 1:
		h.fail(w, r, badRequest("quantity must be at least 1, got %d", quantity))
		return
	case quantity > cart.MaxQuantity:
		h.fail(w, r, badRequest("quantity must be at most %d, got %d", cart.MaxQuantity, quantity))
		return
	}

	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "get product"))
		return
	}
	if !p.InStock {
		h.fail(w, r, errors.Wrapf(product.ErrOutOfStock, "add %s", p.ID))
		return
	}

	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	state := s.Cart.AddN(*p, quantity)
	h.metrics.cartMutation(r.Context(), "add")

	h.writeCart(w, http.StatusOK, state)
}

// updateCartItem sets the absolute quantity of a line. Zero or below removes
// it.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		quantity    int
		hasQuantity bool
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		hasQuantity = true
		var err error
		quantity, err = d.Int()
		return err
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	switch {
	case !hasQuantity:
		h.fail(w, r, badRequest("quantity is required"))
		return
	case quantity > cart.MaxQuantity:
		h.fail(w, r, badRequest("quantity must be at most %d, got %d", cart.MaxQuantity, quantity))
		return
	}

	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	state := s.Cart.UpdateQuantity(r.PathValue("id"), quantity)
	h.metrics.cartMutation(r.Context(), "update")

	h.writeCart(w, http.StatusOK, state)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	state := s.Cart.Remove(r.PathValue("id"))
	h.metrics.cartMutation(r.Context(), "remove")

	h.writeCart(w, http.StatusOK, state)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, s cart.State) {
	writeJSON(w, status, func(e *jx.Encoder) { h.encodeCart(e, s) })
}
