// Command kart-seed writes the catalog store from one or more product files.
//
// Input files use the catalog record format and may be gzip-compressed. They
// are read concurrently and merged in argument order; a product id repeated in
// a later file replaces the earlier record.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-console/internal/app"
	"github.com/xenking/kart-console/internal/domain/product"
	"github.com/xenking/kart-console/internal/storage/file"
)

func main() {
	var (
		storage   app.StorageConfig
		resetCart bool
		logLevel  string
	)

	flag.StringVar(&storage.Backend, "backend", app.BackendFile, "storage backend: file or postgres")
	flag.StringVar(&storage.CatalogPath, "catalog-path", "products.json", "catalog file to write (file backend)")
	flag.StringVar(&storage.CartPath, "cart-path", "cart.json", "cart file to reset (file backend)")
	flag.StringVar(&storage.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&resetCart, "reset-cart", false, "empty the cart store after seeding")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] products.json [more.json.gz ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if storage.DatabaseURL == "" {
		storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	lg, err := app.NewLogger(app.LogConfig{Level: logLevel, Output: "stderr"})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "kart-seed:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = zctx.Base(ctx, lg)

	err = run(ctx, storage, flag.Args(), resetCart)
	cancel()
	if err != nil {
		lg.Error("Seed failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}

	lg.Info("Seed completed successfully")
	_ = lg.Sync()
}

func run(ctx context.Context, storage app.StorageConfig, inputs []string, resetCart bool) error {
	records, err := readInputs(ctx, inputs)
	if err != nil {
		return errors.Wrap(err, "read inputs")
	}

	stores, err := app.OpenStores(ctx, storage)
	if err != nil {
		return errors.Wrap(err, "open stores")
	}
	defer stores.Close()

	if err := stores.Products.Save(ctx, records); err != nil {
		return errors.Wrap(err, "save catalog")
	}
	zctx.From(ctx).Info("Catalog written", zap.Int("products", len(records)))

	if resetCart {
		if err := stores.Carts.Save(ctx, nil); err != nil {
			return errors.Wrap(err, "reset cart")
		}
		zctx.From(ctx).Info("Cart reset")
	}
	return nil
}

// readInputs parses every input file concurrently and merges the results.
func readInputs(ctx context.Context, inputs []string) ([]product.Record, error) {
	batches := make([][]product.Record, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range inputs {
		g.Go(func() error {
			data, err := file.ReadFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			records, err := file.DecodeCatalog(data)
			if err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}

			zctx.From(ctx).Info("Parsed products file",
				zap.String("path", path),
				zap.Int("count", len(records)),
			)
			batches[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(batches), nil
}

// merge concatenates batches, replacing earlier records that share an id
// while keeping their original position.
func merge(batches [][]product.Record) []product.Record {
	index := make(map[string]int)
	var out []product.Record
	for _, batch := range batches {
		for _, r := range batch {
			if i, ok := index[r.ID]; ok {
				out[i] = r
				continue
			}
			index[r.ID] = len(out)
			out = append(out, r)
		}
	}
	return out
}
