package file

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
)

// Catalog and cart record field names.
const (
	fieldType              = "type"
	fieldProductID         = "product_id"
	fieldName              = "name"
	fieldPrice             = "price"
	fieldQuantityAvailable = "quantity_available"
	fieldWeight            = "weight"
	fieldDownloadLink      = "download_link"
	fieldQuantity          = "quantity"
)

// ErrInvalidRecord is returned when a stored record is structurally valid JSON
// but cannot describe a product or cart line.
var ErrInvalidRecord = errors.New("invalid record")

// DecodeCatalog parses a JSON array of product records. Empty input decodes
// to no records; unknown fields are skipped and null fields count as absent.
func DecodeCatalog(data []byte) ([]product.Record, error) {
	var records []product.Record
	err := decodeArray(data, func(d *jx.Decoder) error {
		r, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product record %d", len(records))
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return records, nil
}

// DecodeCart parses a JSON array of cart line records.
func DecodeCart(data []byte) ([]cart.Record, error) {
	var records []cart.Record
	err := decodeArray(data, func(d *jx.Decoder) error {
		r, err := decodeLine(d)
		if err != nil {
			return errors.Wrapf(err, "cart record %d", len(records))
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return records, nil
}

// EncodeCatalog renders product records as an indented JSON array. The type
// tag is omitted for base products.
func EncodeCatalog(records []product.Record) []byte {
	e := newEncoder()
	e.ArrStart()
	for _, r := range records {
		e.ObjStart()
		if r.Kind != product.KindBase {
			e.FieldStart(fieldType)
			e.Str(string(r.Kind))
		}
		e.FieldStart(fieldProductID)
		e.Str(r.ID)
		e.FieldStart(fieldName)
		e.Str(r.Name)
		e.FieldStart(fieldPrice)
		encodeDecimal(e, r.Price)
		e.FieldStart(fieldQuantityAvailable)
		e.Int(r.QuantityAvailable)
		switch r.Kind {
		case product.KindPhysical:
			e.FieldStart(fieldWeight)
			encodeDecimal(e, r.Weight)
		case product.KindDigital:
			e.FieldStart(fieldDownloadLink)
			e.Str(r.DownloadLink)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// EncodeCart renders cart line records as an indented JSON array.
func EncodeCart(records []cart.Record) []byte {
	e := newEncoder()
	e.ArrStart()
	for _, r := range records {
		e.ObjStart()
		e.FieldStart(fieldProductID)
		e.Str(r.ProductID)
		e.FieldStart(fieldQuantity)
		e.Int(r.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func newEncoder() *jx.Encoder {
	e := &jx.Encoder{}
	e.SetIdent(2)
	return e
}

func decodeArray(data []byte, fn func(d *jx.Decoder) error) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return jx.DecodeBytes(data).Arr(fn)
}

func decodeProduct(d *jx.Decoder) (product.Record, error) {
	var r product.Record
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		var err error
		switch string(key) {
		case fieldType:
			var kind string
			kind, err = d.Str()
			r.Kind = product.Kind(kind)
		case fieldProductID:
			r.ID, err = d.Str()
		case fieldName:
			r.Name, err = d.Str()
		case fieldPrice:
			r.Price, err = decodeDecimal(d)
		case fieldQuantityAvailable:
			r.QuantityAvailable, err = d.Int()
		case fieldWeight:
			r.Weight, err = decodeDecimal(d)
		case fieldDownloadLink:
			r.DownloadLink, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return r, err
	}

	switch {
	case r.ID == "":
		return r, errors.Wrapf(ErrInvalidRecord, "missing %s", fieldProductID)
	case r.Price.IsNegative():
		return r, errors.Wrapf(ErrInvalidRecord, "product %s: negative price", r.ID)
	case r.QuantityAvailable < 0:
		return r, errors.Wrapf(ErrInvalidRecord, "product %s: negative %s", r.ID, fieldQuantityAvailable)
	}
	return r, nil
}

func decodeLine(d *jx.Decoder) (cart.Record, error) {
	var r cart.Record
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		var err error
		switch string(key) {
		case fieldProductID:
			r.ProductID, err = d.Str()
		case fieldQuantity:
			r.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return r, err
	}
	switch {
	case r.ProductID == "":
		return r, errors.Wrapf(ErrInvalidRecord, "missing %s", fieldProductID)
	case r.Quantity < 0:
		return r, errors.Wrapf(ErrInvalidRecord, "line %s: negative %s", r.ProductID, fieldQuantity)
	}
	return r, nil
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}

	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(n))
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}
