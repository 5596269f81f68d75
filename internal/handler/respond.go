package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/domain/checkout"
	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/internal/domain/product"
	"github.com/xenking/troli-storefront/internal/session"
)

// maxBodyBytes caps request bodies; every request payload is a small object.
const maxBodyBytes = 64 << 10

// cartPath is where the empty-cart checkout gate sends the client.
const cartPath = "/api/cart"

// badRequestError marks malformed input.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// writeJSON encodes the body produced by fn with the given status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// fail maps domain errors to HTTP responses. Unrecognised errors are logged
// and reported as 500 without details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq     *badRequestError
		validation *checkout.ValidationError
	)
	switch {
	case errors.As(err, &badReq):
		writeError(w, http.StatusBadRequest, badReq.msg)
	case errors.Is(err, product.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, product.ErrNotFound.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, order.ErrNotFound.Error())
	case errors.Is(err, product.ErrOutOfStock):
		writeError(w, http.StatusConflict, product.ErrOutOfStock.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.Is(err, checkout.ErrProcessing), errors.Is(err, checkout.ErrCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		w.Header().Set("Location", cartPath)
		writeError(w, http.StatusSeeOther, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// session resolves the caller's session from the cookie, creating one when
// the cookie is missing, malformed or unknown, and refreshes the cookie.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		id = c.Value
	}
	if _, err := uuid.Parse(id); err != nil {
		id = ""
	}

	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(h.cfg.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// decodeBody parses a JSON object body, calling fn for each key.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(data) == 0 {
		return badRequest("request body is empty")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		var badReq *badRequestError
		if errors.As(err, &badReq) {
			return badReq
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
