// Package checkout submits a cart as an order: it re-validates the cart
// against the live catalog, marks the items sold and hands a text summary
// to a messaging deep link. There is no server-side order record.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/logger"
	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
	"github.com/ghuser/storefront/services/storefront/cart"
	"github.com/ghuser/storefront/services/storefront/catalogclient"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("invalid customer details")
	// ErrCartChanged means some lines were no longer available; the cart has
	// been trimmed and nothing was marked sold. Resubmit to order the rest.
	ErrCartChanged = errors.New("cart changed, some items are no longer available")
	// ErrHandoff means the items were marked sold but the summary could not
	// be handed to the messenger.
	ErrHandoff = errors.New("order hand-off failed")
)

// Customer holds the contact details sent with an order.
type Customer struct {
	Name     string `json:"name"              validate:"required,max=100"`
	Phone    string `json:"phone"             validate:"required,phone"`
	Location string `json:"location"          validate:"required,max=200"`
	Hostel   string `json:"hostel,omitempty" validate:"max=100"`
}

// Order is the client-local record of a submitted cart.
type Order struct {
	ID       uuid.UUID   `json:"id"`
	Lines    []cart.Line `json:"lines"`
	Total    string      `json:"total"`
	Customer Customer    `json:"customer"`
	PlacedAt time.Time   `json:"placedAt"`
}

// Catalog is the part of the catalog API checkout needs.
type Catalog interface {
	ListForUsers(ctx context.Context) ([]catalogclient.Item, error)
	MarkUnavailable(ctx context.Context, ids []uuid.UUID) error
}

// Messenger delivers a finished order.
type Messenger interface {
	Send(ctx context.Context, link, summary string) error
}

// Flow runs order submission.
type Flow struct {
	cart      *cart.Cart
	catalog   Catalog
	history   *History
	messenger Messenger
	recipient string
	log       logger.Logger
	now       func() time.Time
}

// NewFlow wires a Flow. recipient is the messaging address orders are sent to.
func NewFlow(c *cart.Cart, catalog Catalog, history *History, messenger Messenger, recipient string, log logger.Logger) *Flow {
	return &Flow{
		cart:      c,
		catalog:   catalog,
		history:   history,
		messenger: messenger,
		recipient: recipient,
		log:       log,
		now:       time.Now,
	}
}

// Submit orders the whole cart or nothing:
//  1. Validate the customer and require a non-empty cart.
//  2. Re-fetch the catalog. Unavailable lines abort with ErrCartChanged
//     after the cart is trimmed to the available ones.
//  3. Mark every line sold, clear the cart and record the order.
//  4. Hand the summary to the messenger. A failed hand-off returns the order
//     with ErrHandoff; the items stay sold.
func (f *Flow) Submit(ctx context.Context, customer Customer) (*Order, error) {
	customer = trimCustomer(customer)
	if err := pkgvalidator.Validate(&customer); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCustomer, describe(err))
	}

	lines, err := f.cart.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	available, err := f.catalog.ListForUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate cart: %w", err)
	}
	kept, dropped := cart.Reconcile(lines, available)
	if len(dropped) > 0 {
		if err := f.cart.Save(ctx, kept); err != nil {
			return nil, err
		}
		names := make([]string, len(dropped))
		for i, l := range dropped {
			names[i] = l.Name
		}
		return nil, fmt.Errorf("%w: %s", ErrCartChanged, strings.Join(names, ", "))
	}

	if err := f.catalog.MarkUnavailable(ctx, cart.IDs(lines)); err != nil {
		return nil, fmt.Errorf("mark items sold: %w", err)
	}

	order := &Order{
		ID:       uuid.New(),
		Lines:    lines,
		Total:    cart.Total(lines).String(),
		Customer: customer,
		PlacedAt: f.now().UTC(),
	}

	if err := f.cart.Clear(ctx); err != nil {
		f.log.ErrorContext(ctx, "cart not cleared after order", "order_id", order.ID, "error", err)
	}
	if err := f.history.Append(ctx, *order); err != nil {
		f.log.WarnContext(ctx, "order history not updated", "order_id", order.ID, "error", err)
	}

	summary := Summary(*order)
	if err := f.messenger.Send(ctx, DeepLink(f.recipient, summary), summary); err != nil {
		return order, fmt.Errorf("%w: %w", ErrHandoff, err)
	}
	f.log.InfoContext(ctx, "order submitted", "order_id", order.ID, "lines", len(lines), "total", order.Total)
	return order, nil
}

func trimCustomer(c Customer) Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Location = strings.TrimSpace(c.Location)
	c.Hostel = strings.TrimSpace(c.Hostel)
	return c
}

func describe(err error) string {
	fields := pkgvalidator.FormatValidationErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, name := range []string{"name", "phone", "location", "hostel"} {
		if msg, ok := fields[name]; ok {
			parts = append(parts, name+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}
