package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/troli-storefront/internal/domain/order"
)

// getOrder returns a confirmed order. Orders placed by other sessions are
// reported as not found.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "get order"))
		return
	}
	if o.SessionID != s.ID {
		h.fail(w, r, order.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}
