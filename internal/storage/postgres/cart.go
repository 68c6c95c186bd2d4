package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-console/internal/domain/cart"
)

const (
	listCartItemsSQL   = `SELECT product_id, quantity FROM cart_items ORDER BY position`
	deleteCartItemsSQL = `DELETE FROM cart_items`
	insertCartItemSQL  = `INSERT INTO cart_items (product_id, position, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET position = EXCLUDED.position, quantity = EXCLUDED.quantity`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load returns all cart records in the order they were saved.
func (r *CartRepository) Load(ctx context.Context) ([]cart.Record, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cart.Record])
	if err != nil {
		return nil, fmt.Errorf("scanning cart items: %w", err)
	}
	return records, nil
}

// Save rewrites every cart row in a single transaction.
func (r *CartRepository) Save(ctx context.Context, records []cart.Record) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteCartItemsSQL); err != nil {
			return fmt.Errorf("clearing cart items: %w", err)
		}

		batch := &pgx.Batch{}
		for i, item := range records {
			batch.Queue(insertCartItemSQL, item.ProductID, i, item.Quantity)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting cart items: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}
