package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-console/internal/domain/product"
)

const (
	listProductsSQL = `SELECT kind, id, name, price, quantity_available, weight, download_link
		FROM products ORDER BY position`

	deleteProductsSQL = `DELETE FROM products`

	insertProductSQL = `INSERT INTO products
		(id, position, kind, name, price, quantity_available, weight, download_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			quantity_available = EXCLUDED.quantity_available,
			weight = EXCLUDED.weight,
			download_link = EXCLUDED.download_link`
)

var _ product.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements product.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Load returns all product records in the order they were saved.
func (r *CatalogRepository) Load(ctx context.Context) ([]product.Record, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return records, nil
}

// Save replaces the whole catalog in a single transaction. Duplicate ids keep
// the last record.
func (r *CatalogRepository) Save(ctx context.Context, records []product.Record) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteProductsSQL); err != nil {
			return fmt.Errorf("clearing products: %w", err)
		}

		batch := &pgx.Batch{}
		for i, p := range records {
			batch.Queue(insertProductSQL,
				p.ID, i, string(p.Kind), p.Name, p.Price, p.QuantityAvailable, p.Weight, p.DownloadLink,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting products: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Record, error) {
	var (
		p    product.Record
		kind string
	)
	err := row.Scan(&kind, &p.ID, &p.Name, &p.Price, &p.QuantityAvailable, &p.Weight, &p.DownloadLink)
	p.Kind = product.Kind(kind)
	return p, err
}
