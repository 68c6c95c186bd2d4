package product

import "github.com/shopspring/decimal"

// Kind tags a stored record with the product variant it was serialized from.
type Kind string

const (
	// KindBase is the zero tag; stores omit it.
	KindBase     Kind = ""
	KindPhysical Kind = "physical"
	KindDigital  Kind = "digital"
)

// Record is the persisted form of a catalog entry. Weight is only meaningful
// for KindPhysical and DownloadLink only for KindDigital.
type Record struct {
	Kind              Kind
	ID                string
	Name              string
	Price             decimal.Decimal
	QuantityAvailable int
	Weight            decimal.Decimal
	DownloadLink      string
}

var constructors = map[Kind]func(r Record) Product{
	KindPhysical: func(r Record) Product {
		return NewPhysical(r.ID, r.Name, r.Price, r.QuantityAvailable, r.Weight)
	},
	KindDigital: func(r Record) Product {
		return NewDigital(r.ID, r.Name, r.Price, r.QuantityAvailable, r.DownloadLink)
	},
}

// FromRecord builds the product variant named by r.Kind. Records with a
// missing or unknown kind become base products.
func FromRecord(r Record) Product {
	if build, ok := constructors[r.Kind]; ok {
		return build(r)
	}
	return New(r.ID, r.Name, r.Price, r.QuantityAvailable)
}
