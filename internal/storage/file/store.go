// Package file stores the catalog and the cart as JSON documents on disk.
//
// Paths ending in ".gz" are gzip-compressed. Every save rewrites the whole
// document through a temporary file that is renamed over the target, so a
// crash mid-write leaves the previous document intact.
package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
)

var (
	_ product.Repository = (*CatalogRepository)(nil)
	_ cart.Repository    = (*CartRepository)(nil)
)

// CatalogRepository implements product.Repository backed by a JSON file.
type CatalogRepository struct {
	path string
}

// NewCatalogRepository returns a CatalogRepository for the file at path.
func NewCatalogRepository(path string) *CatalogRepository {
	return &CatalogRepository{path: path}
}

// Load reads every product record. A missing file yields no records.
func (r *CatalogRepository) Load(ctx context.Context) ([]product.Record, error) {
	data, err := ReadFile(ctx, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read catalog")
	}
	return DecodeCatalog(data)
}

// Save rewrites the catalog file.
func (r *CatalogRepository) Save(ctx context.Context, records []product.Record) error {
	if err := WriteFile(ctx, r.path, EncodeCatalog(records)); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	return nil
}

// CartRepository implements cart.Repository backed by a JSON file.
type CartRepository struct {
	path string
}

// NewCartRepository returns a CartRepository for the file at path.
func NewCartRepository(path string) *CartRepository {
	return &CartRepository{path: path}
}

// Load reads every cart record. A missing file yields no records.
func (r *CartRepository) Load(ctx context.Context) ([]cart.Record, error) {
	data, err := ReadFile(ctx, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read cart")
	}
	return DecodeCart(data)
}

// Save rewrites the cart file.
func (r *CartRepository) Save(ctx context.Context, records []cart.Record) error {
	if err := WriteFile(ctx, r.path, EncodeCart(records)); err != nil {
		return errors.Wrap(err, "write cart")
	}
	return nil
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// ReadFile returns the contents of path, decompressing ".gz" files. Errors for
// a missing file wrap os.ErrNotExist.
func ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rd io.Reader = f
	if compressed(path) {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		rd = gz
	}

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// WriteFile replaces path with data, compressing ".gz" files. The data is
// written to a temporary file in the same directory and renamed into place;
// an existing file's permissions are preserved.
func WriteFile(ctx context.Context, path string, data []byte) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", path)
	}
	defer func() {
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	// Keep the permissions of the file being replaced.
	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "chmod %s", tmp.Name())
		}
	}

	if compressed(path) {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return errors.Wrapf(err, "compress %s", path)
		}
		if err := gz.Close(); err != nil {
			return errors.Wrapf(err, "compress %s", path)
		}
		data = buf.Bytes()
	}

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp.Name())
	}
	return nil
}
