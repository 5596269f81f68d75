package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/pkg/health"
)

type instantProcessor struct{}

func (instantProcessor) Process(context.Context, *order.Order) error { return nil }

func testConfig() *Config {
	return &Config{
		Addr: defaultAddr,
		Session: SessionConfig{
			CookieName:    "troli_session",
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
			SnapshotTTL:   time.Hour,
		},
		RateLimit: RateLimitConfig{RPS: 1000, Burst: 1000},
		CORS:      CORSConfig{Origins: []string{"*"}, AllowCredentials: true},
	}
}

type testServer struct {
	*httptest.Server
	health *health.Health
	client *http.Client
}

// startServer assembles the full middleware stack on in-memory storage.
func startServer(t *testing.T, cfg *Config) *testServer {
	t.Helper()
	ctx := context.Background()
	lg := zap.NewNop()

	hs := health.New()
	st, err := openStorage(ctx, lg, cfg, hs)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	svc, err := newService(cfg, lg, st, hs, instantProcessor{},
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	srv := httptest.NewServer(svc.handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{
		Server: srv,
		health: hs,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.URL+path, r)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthEndpoints(t *testing.T) {
	s := startServer(t, testConfig())

	resp, _ := s.do(t, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.health.SetReady(true)
	resp, body := s.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestRequestID(t *testing.T) {
	s := startServer(t, testConfig())

	resp, _ := s.do(t, http.MethodGet, "/livez", "", nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = s.do(t, http.MethodGet, "/livez", "", http.Header{"X-Request-Id": {"custom-request-id-12345"}})
	assert.Equal(t, "custom-request-id-12345", resp.Header.Get("X-Request-ID"))
}

func TestCORS_Preflight(t *testing.T) {
	s := startServer(t, testConfig())

	resp, _ := s.do(t, http.MethodOptions, "/api/cart/items", "", http.Header{
		"Origin":                        {"https://shop.example.com"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://shop.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = RateLimitConfig{RPS: 0.001, Burst: 2}
	s := startServer(t, cfg)

	for range 2 {
		resp, _ := s.do(t, http.MethodGet, "/api/products", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, body := s.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, string(body), "rate limit exceeded")
}

func TestStorefrontFlow(t *testing.T) {
	s := startServer(t, testConfig())

	resp, body := s.do(t, http.MethodGet, "/api/products?category=Apparel", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Count    int `json:"count"`
		Products []struct {
			ID      string `json:"id"`
			InStock bool   `json:"inStock"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 5, list.Count)

	// Checkout is gated until the cart has something in it.
	resp, _ = s.do(t, http.MethodGet, "/api/checkout", "", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/cart", resp.Header.Get("Location"))

	resp, _ = s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"15"}`, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"12","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/checkout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"state":"editing"`)

	resp, body = s.do(t, http.MethodPost, "/api/checkout",
		`{"name":"Ada","email":"ada@example.com","address":"1 Loop Rd","city":"London","zipCode":"N1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var placed struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.Equal(t, "confirmed", placed.Status)

	resp, body = s.do(t, http.MethodGet, "/api/orders/"+placed.OrderID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var o struct {
		Total json.Number `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &o))
	// 2 × 79.00 plus 8% tax.
	assert.Equal(t, "170.64", o.Total.String())

	resp, body = s.do(t, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"itemCount":0`)
}
