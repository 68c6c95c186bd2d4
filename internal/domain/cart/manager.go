package cart

import (
	"context"
	"iter"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-console/internal/domain/product"
)

const tracerName = "github.com/xenking/kart-console/internal/domain/cart"

// Option configures a Manager.
type Option func(*Manager)

// WithTracerProvider sets the provider used for mutation spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracer = tp.Tracer(tracerName)
	}
}

// Manager owns the catalog and the cart and keeps product stock in step with
// the quantities reserved by cart lines.
//
// Validation failures are reported as false with no state change. A non-nil
// error is only returned for storage faults; when saving the cart fails the
// in-memory mutation has already been applied.
//
// The catalog store is read once and never written: stock changes caused by
// reservations live only in memory.
type Manager struct {
	products product.Repository
	carts    Repository
	tracer   trace.Tracer

	catalog      map[string]product.Product
	catalogOrder []string
	lines        map[string]*LineItem
	lineOrder    []string
}

// NewManager creates a Manager with an empty catalog and cart. Call
// LoadCatalog and LoadCart, or use Open.
func NewManager(products product.Repository, carts Repository, opts ...Option) *Manager {
	m := &Manager{
		products: products,
		carts:    carts,
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
		catalog:  make(map[string]product.Product),
		lines:    make(map[string]*LineItem),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a Manager and loads the catalog followed by the cart.
func Open(ctx context.Context, products product.Repository, carts Repository, opts ...Option) (*Manager, error) {
	m := NewManager(products, carts, opts...)
	if err := m.LoadCatalog(ctx); err != nil {
		return nil, err
	}
	if err := m.LoadCart(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadCatalog replaces the catalog with the stored product records, building
// each product from its kind tag.
func (m *Manager) LoadCatalog(ctx context.Context) error {
	records, err := m.products.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	catalog := make(map[string]product.Product, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if _, seen := catalog[r.ID]; !seen {
			order = append(order, r.ID)
		}
		catalog[r.ID] = product.FromRecord(r)
	}
	m.catalog, m.catalogOrder = catalog, order

	zctx.From(ctx).Debug("Catalog loaded", zap.Int("products", len(order)))
	return nil
}

// LoadCart replaces the cart with the stored line records. Records naming a
// product missing from the catalog are skipped. Loading does not touch stock.
func (m *Manager) LoadCart(ctx context.Context) error {
	records, err := m.carts.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	lg := zctx.From(ctx)
	lines := make(map[string]*LineItem, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		p, ok := m.catalog[r.ProductID]
		if !ok {
			lg.Debug("Skipping cart record for unknown product", zap.String("product_id", r.ProductID))
			continue
		}
		if _, seen := lines[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		lines[r.ProductID] = NewLineItem(p, r.Quantity)
	}
	m.lines, m.lineOrder = lines, order

	lg.Debug("Cart loaded", zap.Int("lines", len(order)), zap.Int("skipped", len(records)-len(order)))
	return nil
}

// AddItem reserves quantity units of the product and adds them to its cart
// line, creating the line on first add. It fails when the product is unknown,
// quantity is negative, or stock is insufficient. Adding zero units succeeds
// without touching stock.
func (m *Manager) AddItem(ctx context.Context, productID string, quantity int) (bool, error) {
	ctx, span := m.startSpan(ctx, "cart.AddItem", productID, attribute.Int("cart.quantity", quantity))
	defer span.End()

	p, ok := m.catalog[productID]
	if !ok {
		return m.reject(ctx, span, "product not found")
	}
	if quantity < 0 || p.Available() < quantity {
		return m.reject(ctx, span, "invalid quantity")
	}
	if quantity > 0 {
		p.DecreaseQuantity(quantity)
	}

	if l, ok := m.lines[productID]; ok {
		l.SetQuantity(l.Quantity() + quantity)
	} else {
		m.lines[productID] = NewLineItem(p, quantity)
		m.lineOrder = append(m.lineOrder, productID)
	}

	return m.commit(ctx, span)
}

// RemoveItem deletes the product's cart line and returns its whole reserved
// quantity to stock.
func (m *Manager) RemoveItem(ctx context.Context, productID string) (bool, error) {
	ctx, span := m.startSpan(ctx, "cart.RemoveItem", productID)
	defer span.End()

	l, ok := m.lines[productID]
	if !ok {
		return m.reject(ctx, span, "line not found")
	}

	l.Product().IncreaseQuantity(l.Quantity())
	delete(m.lines, productID)
	if i := slices.Index(m.lineOrder, productID); i >= 0 {
		m.lineOrder = slices.Delete(m.lineOrder, i, i+1)
	}

	return m.commit(ctx, span)
}

// UpdateQuantity sets the product's line to quantity, reserving or releasing
// the difference. Growing a line needs enough stock for the difference.
// Setting the current quantity again is reported as a failure.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) (bool, error) {
	ctx, span := m.startSpan(ctx, "cart.UpdateQuantity", productID, attribute.Int("cart.quantity", quantity))
	defer span.End()

	l, ok := m.lines[productID]
	if !ok {
		return m.reject(ctx, span, "line not found")
	}
	if quantity < 0 {
		return m.reject(ctx, span, "invalid quantity")
	}

	diff := quantity - l.Quantity()
	switch {
	case diff > 0:
		if !l.Product().DecreaseQuantity(diff) {
			return m.reject(ctx, span, "insufficient stock")
		}
	case diff < 0:
		l.Product().IncreaseQuantity(-diff)
	default:
		return m.reject(ctx, span, "quantity unchanged")
	}
	l.SetQuantity(quantity)

	return m.commit(ctx, span)
}

// Total returns the sum of all line subtotals.
func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ListProducts yields a description of every catalog product in store order.
func (m *Manager) ListProducts() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range m.catalogOrder {
			if !yield(m.catalog[id].Describe()) {
				return
			}
		}
	}
}

// ListCart yields a description of every cart line in the order lines were
// first added.
func (m *Manager) ListCart() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range m.lineOrder {
			if !yield(m.lines[id].Describe()) {
				return
			}
		}
	}
}

// Product returns the catalog product with the given id.
func (m *Manager) Product(id string) (product.Product, bool) {
	p, ok := m.catalog[id]
	return p, ok
}

// Line returns the cart line for the given product id.
func (m *Manager) Line(id string) (*LineItem, bool) {
	l, ok := m.lines[id]
	return l, ok
}

// Len returns the number of cart lines.
func (m *Manager) Len() int { return len(m.lines) }

// IsEmpty reports whether the cart has no lines.
func (m *Manager) IsEmpty() bool { return len(m.lines) == 0 }

func (m *Manager) startSpan(ctx context.Context, name, productID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("cart.product_id", productID))
	return m.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (m *Manager) reject(ctx context.Context, span trace.Span, reason string) (bool, error) {
	span.SetAttributes(attribute.String("cart.rejected", reason))
	zctx.From(ctx).Debug("Cart operation rejected", zap.String("reason", reason))
	return false, nil
}

// commit rewrites the whole cart store from the current lines.
func (m *Manager) commit(ctx context.Context, span trace.Span) (bool, error) {
	records := make([]Record, 0, len(m.lineOrder))
	for _, id := range m.lineOrder {
		records = append(records, m.lines[id].Record())
	}
	if err := m.carts.Save(ctx, records); err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "save cart")
	}
	return true, nil
}
