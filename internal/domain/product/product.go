package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. All kinds share the pricing and stock behaviour
// of Base and differ only in how they are serialized and described.
type Product interface {
	ID() string
	Name() string
	Price() decimal.Decimal
	Available() int

	// DecreaseQuantity reserves n units. It reports false and leaves stock
	// untouched unless 0 < n <= Available().
	DecreaseQuantity(n int) bool
	// IncreaseQuantity returns n units to stock. Non-positive n is ignored.
	IncreaseQuantity(n int)
	// SetQuantityAvailable overwrites stock. Negative values are ignored.
	SetQuantityAvailable(v int)

	Record() Record
	Describe() string
}

// Repository loads and stores the catalog as a list of records.
type Repository interface {
	// Load returns every stored record in store order. A store that does not
	// exist yet yields no records and no error.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the stored catalog with records.
	Save(ctx context.Context, records []Record) error
}

var (
	_ Product = (*Base)(nil)
	_ Product = (*Physical)(nil)
	_ Product = (*Digital)(nil)
)

// Base is a plain product without kind-specific attributes.
type Base struct {
	id        string
	name      string
	price     decimal.Decimal
	available int
}

// New creates a base product. A negative available quantity is ignored and
// leaves the product out of stock.
func New(id, name string, price decimal.Decimal, available int) *Base {
	p := &Base{id: id, name: name, price: price}
	p.SetQuantityAvailable(available)
	return p
}

func (p *Base) ID() string             { return p.id }
func (p *Base) Name() string           { return p.name }
func (p *Base) Price() decimal.Decimal { return p.price }
func (p *Base) Available() int         { return p.available }

func (p *Base) DecreaseQuantity(n int) bool {
	if n <= 0 || n > p.available {
		return false
	}
	p.available -= n
	return true
}

func (p *Base) IncreaseQuantity(n int) {
	if n > 0 {
		p.available += n
	}
}

func (p *Base) SetQuantityAvailable(v int) {
	if v >= 0 {
		p.available = v
	}
}

func (p *Base) Record() Record {
	return Record{
		ID:                p.id,
		Name:              p.name,
		Price:             p.price,
		QuantityAvailable: p.available,
	}
}

func (p *Base) Describe() string {
	return fmt.Sprintf("[%s] %s - %s (%d available)", p.id, p.name, FormatPrice(p.price), p.available)
}

// Physical is a shippable product with a weight in kilograms.
type Physical struct {
	Base
	Weight decimal.Decimal
}

// NewPhysical creates a physical product.
func NewPhysical(id, name string, price decimal.Decimal, available int, weight decimal.Decimal) *Physical {
	return &Physical{Base: *New(id, name, price, available), Weight: weight}
}

func (p *Physical) Record() Record {
	r := p.Base.Record()
	r.Kind = KindPhysical
	r.Weight = p.Weight
	return r
}

func (p *Physical) Describe() string {
	return fmt.Sprintf("%s - Weight: %skg", p.Base.Describe(), p.Weight.String())
}

// Digital is a downloadable product.
type Digital struct {
	Base
	DownloadLink string
}

// NewDigital creates a digital product.
func NewDigital(id, name string, price decimal.Decimal, available int, downloadLink string) *Digital {
	return &Digital{Base: *New(id, name, price, available), DownloadLink: downloadLink}
}

func (p *Digital) Record() Record {
	r := p.Base.Record()
	r.Kind = KindDigital
	r.DownloadLink = p.DownloadLink
	return r
}

func (p *Digital) Describe() string {
	return fmt.Sprintf("%s - Download: %s", p.Base.Describe(), p.DownloadLink)
}

// FormatPrice renders an amount as dollars with two decimal places.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
