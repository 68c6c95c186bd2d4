// Package console implements the interactive text menu over a cart.Manager.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/kart-console/internal/domain/cart"
	"github.com/xenking/kart-console/internal/domain/product"
)

const meterName = "github.com/xenking/kart-console/internal/console"

const menu = `
===== Shopping Cart =====
1. List products
2. Add item to cart
3. View cart
4. Update item quantity
5. Remove item from cart
6. Checkout
7. Exit`

// Option configures a Console.
type Option func(*options)

type options struct {
	meterProvider metric.MeterProvider
	newReference  func() string
}

// WithMeterProvider sets the provider for the action counter. The global
// provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithReferenceGenerator overrides how checkout references are generated.
func WithReferenceGenerator(fn func() string) Option {
	return func(o *options) {
		o.newReference = fn
	}
}

// Console reads menu choices from an input stream, applies them to the
// manager and writes results to an output stream.
type Console struct {
	manager      *cart.Manager
	in           *bufio.Scanner
	out          io.Writer
	actions      metric.Int64Counter
	newReference func() string
}

// New creates a Console over manager.
func New(manager *cart.Manager, in io.Reader, out io.Writer, opts ...Option) (*Console, error) {
	o := options{
		meterProvider: otel.GetMeterProvider(),
		newReference:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	actions, err := o.meterProvider.Meter(meterName).Int64Counter("kart.console.actions",
		metric.WithDescription("Menu actions performed, by action and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create actions counter")
	}

	return &Console{
		manager:      manager,
		in:           bufio.NewScanner(in),
		out:          out,
		actions:      actions,
		newReference: o.newReference,
	}, nil
}

// Run shows the menu until the user exits or input ends. Only storage faults
// and input read errors are returned; everything else is reported to the user.
func (c *Console) Run(ctx context.Context) error {
	for {
		c.println(menu)
		choice, ok := c.prompt("Enter your choice: ")
		if !ok {
			c.println("\nGoodbye!")
			return c.in.Err()
		}

		var err error
		switch choice {
		case "1":
			c.listProducts(ctx)
		case "2":
			err = c.addItem(ctx)
		case "3":
			c.viewCart(ctx)
		case "4":
			err = c.updateQuantity(ctx)
		case "5":
			err = c.removeItem(ctx)
		case "6":
			c.checkout(ctx)
		case "7":
			c.println("Goodbye!")
			return nil
		default:
			c.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) listProducts(ctx context.Context) {
	c.record(ctx, "list_products", true)

	c.println("\nAvailable products:")
	n := 0
	for line := range c.manager.ListProducts() {
		c.println(line)
		n++
	}
	if n == 0 {
		c.println("No products available.")
	}
}

func (c *Console) addItem(ctx context.Context) error {
	id, ok := c.prompt("Enter product ID: ")
	if !ok {
		return nil
	}
	qty, ok := c.promptQuantity()
	if !ok {
		return nil
	}

	added, err := c.manager.AddItem(ctx, id, qty)
	if err != nil {
		return errors.Wrap(err, "add item")
	}
	c.record(ctx, "add_item", added)

	if !added {
		c.println("Could not add item: unknown product, invalid quantity or insufficient stock.")
		return nil
	}
	p, _ := c.manager.Product(id)
	c.printf("Added %d x %s to cart.\n", qty, p.Name())
	return nil
}

func (c *Console) viewCart(ctx context.Context) {
	c.record(ctx, "view_cart", true)

	if c.manager.IsEmpty() {
		c.println("\nYour cart is empty.")
		return
	}
	c.println("\nYour cart:")
	for line := range c.manager.ListCart() {
		c.println(line)
	}
	c.printf("Total: %s\n", product.FormatPrice(c.manager.Total()))
}

func (c *Console) updateQuantity(ctx context.Context) error {
	id, ok := c.prompt("Enter product ID: ")
	if !ok {
		return nil
	}
	qty, ok := c.promptQuantity()
	if !ok {
		return nil
	}

	updated, err := c.manager.UpdateQuantity(ctx, id, qty)
	if err != nil {
		return errors.Wrap(err, "update quantity")
	}
	c.record(ctx, "update_quantity", updated)

	if !updated {
		c.println("Could not update quantity: item not in cart, quantity unchanged or insufficient stock.")
		return nil
	}
	c.println("Quantity updated.")
	return nil
}

func (c *Console) removeItem(ctx context.Context) error {
	id, ok := c.prompt("Enter product ID: ")
	if !ok {
		return nil
	}

	removed, err := c.manager.RemoveItem(ctx, id)
	if err != nil {
		return errors.Wrap(err, "remove item")
	}
	c.record(ctx, "remove_item", removed)

	if !removed {
		c.println("Item not found in cart.")
		return nil
	}
	c.println("Item removed from cart.")
	return nil
}

// checkout only acknowledges the request; the cart is left as is.
func (c *Console) checkout(ctx context.Context) {
	c.record(ctx, "checkout", true)

	ref := c.newReference()
	zctx.From(ctx).Info("Checkout acknowledged",
		zap.String("reference", ref),
		zap.Int("lines", c.manager.Len()),
		zap.String("total", c.manager.Total().StringFixed(2)),
	)
	c.printf("Checkout acknowledged (reference %s). Total: %s\n", ref, product.FormatPrice(c.manager.Total()))
}

// promptQuantity reads a whole number. Malformed input is reported and
// yields false.
func (c *Console) promptQuantity() (int, bool) {
	s, ok := c.prompt("Enter quantity: ")
	if !ok {
		return 0, false
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		c.println("Invalid quantity. Please enter a whole number.")
		return 0, false
	}
	return qty, true
}

// prompt writes msg and reads one trimmed line. It reports false at end of
// input.
func (c *Console) prompt(msg string) (string, bool) {
	_, _ = io.WriteString(c.out, msg)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) record(ctx context.Context, action string, ok bool) {
	c.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("ok", ok),
	))
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
