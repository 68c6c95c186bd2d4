package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-console/internal/domain/product"
)

// Record is the persisted form of a cart line. Product details are resolved
// through the catalog on load and never stored with the line.
type Record struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository loads and stores the cart as a list of records.
type Repository interface {
	// Load returns every stored record in store order. A store that does not
	// exist yet yields no records and no error.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the stored cart with records.
	Save(ctx context.Context, records []Record) error
}

// LineItem pairs a catalog product with the quantity reserved for it.
type LineItem struct {
	product  product.Product
	quantity int
}

// NewLineItem creates a line for p. A negative quantity is ignored and
// leaves the line empty.
func NewLineItem(p product.Product, quantity int) *LineItem {
	l := &LineItem{product: p}
	l.SetQuantity(quantity)
	return l
}

// Product returns the catalog product the line refers to.
func (l *LineItem) Product() product.Product { return l.product }

// Quantity returns the reserved quantity.
func (l *LineItem) Quantity() int { return l.quantity }

// SetQuantity overwrites the reserved quantity. Negative values are refused.
func (l *LineItem) SetQuantity(v int) bool {
	if v < 0 {
		return false
	}
	l.quantity = v
	return true
}

// Subtotal returns price * quantity.
func (l *LineItem) Subtotal() decimal.Decimal {
	return l.product.Price().Mul(decimal.NewFromInt(int64(l.quantity)))
}

func (l *LineItem) Record() Record {
	return Record{ProductID: l.product.ID(), Quantity: l.quantity}
}

// Describe renders the line for the cart view.
func (l *LineItem) Describe() string {
	return fmt.Sprintf("%s x%d @ %s = %s",
		l.product.Name(),
		l.quantity,
		product.FormatPrice(l.product.Price()),
		product.FormatPrice(l.Subtotal()),
	)
}
