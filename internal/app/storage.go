package app

import (
	"context"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/troli-storefront/internal/catalog"
	"github.com/xenking/troli-storefront/internal/domain/cart"
	"github.com/xenking/troli-storefront/internal/domain/order"
	"github.com/xenking/troli-storefront/internal/domain/product"
	"github.com/xenking/troli-storefront/internal/storage/memory"
	"github.com/xenking/troli-storefront/internal/storage/postgres"
	"github.com/xenking/troli-storefront/internal/storage/redis"
	"github.com/xenking/troli-storefront/pkg/health"
)

// storage bundles the repositories selected by configuration.
type storage struct {
	products product.Repository
	orders   order.Repository
	carts    cart.Store

	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage connects the configured backends and registers their readiness
// checks. Without PostgreSQL the embedded catalog and in-memory orders are
// used; without Redis cart snapshots stay in memory.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config, hs *health.Health) (_ *storage, rerr error) {
	s := &storage{}
	defer func() {
		if rerr != nil {
			s.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		s.closers = append(s.closers, pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}

		products := postgres.NewProductRepository(pool)
		if cfg.SeedCatalog {
			if err := seedIfEmpty(ctx, lg, products); err != nil {
				return nil, errors.Wrap(err, "seed catalog")
			}
		}
		s.products = products
		s.orders = postgres.NewOrderRepository(pool)

		hs.Register(health.Readiness, health.Check{Name: "postgres", Func: health.PingCheck(pool)})
		lg.Info("Using PostgreSQL catalog and orders")
	} else {
		static, err := catalog.Default()
		if err != nil {
			return nil, errors.Wrap(err, "load embedded catalog")
		}
		s.products = static
		s.orders = memory.NewOrderRepository()
		lg.Info("Using embedded catalog and in-memory orders")
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				lg.Warn("Failed to close redis client", zap.Error(err))
			}
		})
		s.carts = redis.NewCartStore(client, redis.DefaultPrefix, cfg.Session.SnapshotTTL)

		hs.Register(health.Readiness, health.Check{Name: "redis", Func: redisPing(client)})
		lg.Info("Using Redis cart snapshots", zap.Duration("ttl", cfg.Session.SnapshotTTL))
	} else {
		s.carts = memory.NewCartStore()
	}

	return s, nil
}

func redisPing(client goredis.UniversalClient) health.CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// seedIfEmpty loads the embedded catalog into an empty products table.
func seedIfEmpty(ctx context.Context, lg *zap.Logger, repo *postgres.ProductRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(existing) > 0 {
		return nil
	}

	static, err := catalog.Default()
	if err != nil {
		return errors.Wrap(err, "load embedded catalog")
	}
	products, err := static.List(ctx)
	if err != nil {
		return err
	}
	if err := repo.Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	lg.Info("Seeded catalog", zap.Int("products", len(products)))
	return nil
}
