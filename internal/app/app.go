package app

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-console/internal/console"
	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
	"github.com/xenking/kart-console/internal/storage/file"
	"github.com/xenking/kart-console/internal/storage/postgres"
)

// Stores bundles the catalog and cart repositories of one backend.
type Stores struct {
	Products product.Repository
	Carts    cart.Repository

	close func()
}

// Close releases backend resources.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores creates the repositories for the configured backend. The
// PostgreSQL backend applies the embedded schema before returning.
func OpenStores(ctx context.Context, cfg StorageConfig) (*Stores, error) {
	lg := zctx.From(ctx)

	switch cfg.Backend {
	case BackendFile:
		lg.Info("Using file storage",
			zap.String("catalog", cfg.CatalogPath),
			zap.String("cart", cfg.CartPath),
		)
		return &Stores{
			Products: file.NewCatalogRepository(cfg.CatalogPath),
			Carts:    file.NewCartRepository(cfg.CartPath),
		}, nil
	case BackendPostgres:
		lg.Info("Using PostgreSQL storage")
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &Stores{
			Products: postgres.NewCatalogRepository(pool),
			Carts:    postgres.NewCartRepository(pool),
			close:    pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Run loads the catalog and the cart and serves the menu on in/out until the
// user exits. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, cfg *Config, in io.Reader, out io.Writer) error {
	ctx = zctx.Base(ctx, lg)

	stores, err := OpenStores(ctx, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open stores")
	}
	defer stores.Close()

	manager, err := cart.Open(ctx, stores.Products, stores.Carts)
	if err != nil {
		return errors.Wrap(err, "open cart")
	}
	lg.Info("Cart loaded", zap.Int("lines", manager.Len()))

	c, err := console.New(manager, in, out)
	if err != nil {
		return errors.Wrap(err, "create console")
	}
	if err := c.Run(ctx); err != nil {
		return errors.Wrap(err, "console")
	}

	lg.Info("Session finished", zap.Int("lines", manager.Len()))
	return nil
}
