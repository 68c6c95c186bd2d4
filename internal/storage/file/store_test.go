package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testRecords() []product.Record {
	return []product.Record{
		{ID: "P1", Name: "Widget", Price: d("100"), QuantityAvailable: 10},
		{Kind: product.KindPhysical, ID: "P2", Name: "Chair", Price: d("25.5"), QuantityAvailable: 4, Weight: d("7.25")},
		{Kind: product.KindDigital, ID: "P3", Name: "E-book", Price: d("9.99"), QuantityAvailable: 100, DownloadLink: "https://example.com/e"},
	}
}

func assertRecordsEqual(t *testing.T, want, got []product.Record) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price of %s", want[i].ID)
		assert.Equal(t, want[i].QuantityAvailable, got[i].QuantityAvailable)
		assert.True(t, want[i].Weight.Equal(got[i].Weight), "weight of %s", want[i].ID)
		assert.Equal(t, want[i].DownloadLink, got[i].DownloadLink)
	}
}

func TestCatalogRepository_RoundTrip(t *testing.T) {
	for _, name := range []string{"products.json", "products.json.gz"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewCatalogRepository(filepath.Join(t.TempDir(), name))

			require.NoError(t, repo.Save(ctx, testRecords()))

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assertRecordsEqual(t, testRecords(), got)
		})
	}
}

func TestCartRepository_RoundTrip(t *testing.T) {
	for _, name := range []string{"cart.json", "cart.json.gz"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewCartRepository(filepath.Join(t.TempDir(), name))
			records := []cart.Record{{ProductID: "P1", Quantity: 3}, {ProductID: "P3", Quantity: 1}}

			require.NoError(t, repo.Save(ctx, records))
			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, records, got)

			// Saving again fully replaces the previous document.
			require.NoError(t, repo.Save(ctx, nil))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestRepositories_MissingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	products, err := NewCatalogRepository(filepath.Join(dir, "none.json")).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	lines, err := NewCartRepository(filepath.Join(dir, "none.json.gz")).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartRepository_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewCartRepository(filepath.Join(dir, "cart.json"))

	require.NoError(t, repo.Save(context.Background(), []cart.Record{{ProductID: "P1", Quantity: 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cart.json", entries[0].Name())
}

func TestCartRepository_Load_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"product_id": "P1", "quantity": "many"}]`), 0o600))

	_, err := NewCartRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cart")
}

func TestWriteFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WriteFile(ctx, filepath.Join(t.TempDir(), "x.json"), []byte("[]"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteFile_KeepsExistingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	require.NoError(t, os.Chmod(path, 0o644))

	require.NoError(t, WriteFile(context.Background(), path, []byte(`[{"product_id": "P1", "quantity": 1}]`)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
