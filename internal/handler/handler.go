// Package handler exposes the storefront over a JSON HTTP API.
package handler

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/internal/domain/product"
	"github.com/xenking/troli-storefront/internal/session"
)

const instrumentationName = "github.com/xenking/troli-storefront/internal/handler"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute URLs are returned unchanged.
	ImageBaseURL string

	// CookieName names the session cookie.
	CookieName string
	// CookieTTL is the session cookie lifetime.
	CookieTTL time.Duration
	// CookieSecure marks the session cookie HTTPS-only.
	CookieSecure bool
}

// Handler serves the product, cart, checkout and order endpoints.
type Handler struct {
	cfg      Config
	products product.Repository
	sessions *session.Manager
	orders   order.Repository

	tracer  trace.Tracer
	metrics *metrics
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	sessions *session.Manager,
	orders order.Repository,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Handler, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = "troli_session"
	}
	m, err := newMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:      cfg,
		products: products,
		sessions: sessions,
		orders:   orders,
		tracer:   tp.Tracer(instrumentationName),
		metrics:  m,
	}, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/featured", h.featuredProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)

	mux.HandleFunc("GET /api/checkout", h.getCheckout)
	mux.HandleFunc("POST /api/checkout", h.submitCheckout)

	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
}
