package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/troli-storefront/internal/catalog"
	"github.com/xenking/troli-storefront/internal/domain/product"
	"github.com/xenking/troli-storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate the catalog files without writing")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = out.Write([]byte("usage: seed-db [flags] [products.json[.gz] ...]\n\n" +
			"Without files the embedded catalog is loaded. Later files override\n" +
			"products with the same id.\n\n"))
		flag.PrintDefaults()
	}
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args(), dryRun); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, dryRun bool) error {
	products, err := loadProducts(ctx, files)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	slog.Info("catalog loaded", slog.Int("count", len(products)))

	if dryRun {
		for _, p := range products {
			slog.Info("product", slog.String("id", p.ID), slog.String("name", p.Name),
				slog.String("category", string(p.Category)), slog.Bool("in_stock", p.InStock))
		}
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

// loadProducts decodes the given files in parallel and merges them in
// argument order. With no files the embedded catalog is returned.
func loadProducts(ctx context.Context, files []string) ([]product.Product, error) {
	if len(files) == 0 {
		static, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		return static.List(ctx)
	}

	parsed := make([][]product.Product, len(files))
	var g errgroup.Group
	g.SetLimit(4)
	for i, path := range files {
		g.Go(func() error {
			slog.Info("reading products file", slog.String("path", path))
			products, err := catalog.LoadFile(path)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			parsed[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(parsed...), nil
}

// merge concatenates catalogs. A product id seen again replaces the earlier
// record in place, so catalog order follows first appearance.
func merge(catalogs ...[]product.Product) []product.Product {
	var (
		out   []product.Product
		index = make(map[string]int)
	)
	for _, products := range catalogs {
		for _, p := range products {
			if i, ok := index[p.ID]; ok {
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}
