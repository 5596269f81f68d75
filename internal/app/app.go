package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/troli-storefront/internal/domain/checkout"
	"github.com/xenking/troli-storefront/internal/handler"
	"github.com/xenking/troli-storefront/internal/session"
	"github.com/xenking/troli-storefront/pkg/health"
	"github.com/xenking/troli-storefront/pkg/httpmiddleware"
)

const (
	serviceName         = "troli-api"
	healthCheckInterval = 10 * time.Second
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	hs := health.New()
	hs.Register(health.Liveness, health.Check{Name: "goroutines", Func: health.GoroutineCountCheck(10000)})
	hs.Register(health.Liveness, health.Check{Name: "gc_pause", Func: health.GCMaxPauseCheck(time.Second)})

	st, err := openStorage(ctx, lg, cfg, hs)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := newService(cfg, lg, st, hs, checkout.NewSimulatedProcessor(), m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Checkout holds the request for the simulated payment delay.
		WriteTimeout:   checkout.SimulatedDelay + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        svc.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hs.Run(gctx, healthCheckInterval) })
	g.Go(func() error { return svc.sessions.Run(gctx, cfg.Session.SweepInterval) })
	g.Go(func() error { return svc.limiter.Run(gctx) })
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		hs.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	hs.SetReady(true)
	return g.Wait()
}

// service is the assembled HTTP stack plus the background loops it needs.
type service struct {
	handler  http.Handler
	sessions *session.Manager
	limiter  *httpmiddleware.RateLimiter
}

func newService(
	cfg *Config,
	lg *zap.Logger,
	st *storage,
	hs *health.Health,
	processor checkout.Processor,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*service, error) {
	// Domain services.
	checkoutSvc := checkout.NewService(processor, st.orders)
	sessions := session.NewManager(st.carts, st.products, checkoutSvc, cfg.Session.TTL, lg.Named("session"))

	// HTTP handlers.
	h, err := handler.NewHandler(
		handler.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			CookieName:   cfg.Session.CookieName,
			CookieTTL:    cfg.Session.SnapshotTTL,
			CookieSecure: cfg.Session.Secure,
		},
		st.products,
		sessions,
		st.orders,
		tp,
		mp,
	)
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", hs.LiveEndpoint)
	mux.HandleFunc("GET /readyz", hs.ReadyEndpoint)
	h.Register(mux)

	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})

	return &service{
		handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Location"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument(serviceName, tp, mp),
			httpmiddleware.LogRequests(),
		),
		sessions: sessions,
		limiter:  limiter,
	}, nil
}
