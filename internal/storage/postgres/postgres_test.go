//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "kart",
				"POSTGRES_PASSWORD": "kart",
				"POSTGRES_DB":       "kart",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = container.Terminate(context.Background()) }()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://kart:kart@%s:%s/kart?sslmode=disable", host, port.Port())
	pool, err = NewPool(ctx, url)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer pool.Close()

	if err := RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	return m.Run()
}

func TestCatalogRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(pool)

	records := []product.Record{
		{Kind: product.KindDigital, ID: "P3", Name: "E-book", Price: decimal.RequireFromString("9.99"), QuantityAvailable: 100, DownloadLink: "dl"},
		{ID: "P1", Name: "Widget", Price: decimal.NewFromInt(100), QuantityAvailable: 10},
		{Kind: product.KindPhysical, ID: "P2", Name: "Chair", Price: decimal.RequireFromString("25.50"), QuantityAvailable: 4, Weight: decimal.RequireFromString("7.25")},
	}
	require.NoError(t, repo.Save(ctx, records))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := range records {
		assert.Equal(t, records[i].ID, got[i].ID)
		assert.Equal(t, records[i].Kind, got[i].Kind)
		assert.True(t, records[i].Price.Equal(got[i].Price))
		assert.True(t, records[i].Weight.Equal(got[i].Weight))
		assert.Equal(t, records[i].DownloadLink, got[i].DownloadLink)
	}
}

func TestCartRepository_FullRewrite(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository(pool)

	require.NoError(t, repo.Save(ctx, []cart.Record{{ProductID: "P1", Quantity: 3}, {ProductID: "P2", Quantity: 1}}))
	require.NoError(t, repo.Save(ctx, []cart.Record{{ProductID: "P2", Quantity: 2}}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []cart.Record{{ProductID: "P2", Quantity: 2}}, got)
}

func TestManager_OnPostgres(t *testing.T) {
	ctx := context.Background()
	products := NewCatalogRepository(pool)
	carts := NewCartRepository(pool)

	require.NoError(t, products.Save(ctx, []product.Record{
		{ID: "P1", Name: "Widget", Price: decimal.NewFromInt(100), QuantityAvailable: 10},
	}))
	require.NoError(t, carts.Save(ctx, []cart.Record{{ProductID: "GONE", Quantity: 1}}))

	m, err := cart.Open(ctx, products, carts)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())

	ok, err := m.AddItem(ctx, "P1", 3)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := carts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []cart.Record{{ProductID: "P1", Quantity: 3}}, got)

	// Reservations are not written back to the catalog.
	stored, err := products.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 10, stored[0].QuantityAvailable)
}
