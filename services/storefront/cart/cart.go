// Package cart is the storefront's client-side cart: a local list of lines
// derived from catalog snapshots and kept honest by reconciling against the
// live catalog.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/services/storefront/catalogclient"
	"github.com/ghuser/storefront/services/storefront/localstore"
)

var (
	ErrAlreadyInCart   = errors.New("item is already in the cart")
	ErrItemUnavailable = errors.New("item is no longer available")
	ErrNotInCart       = errors.New("item is not in the cart")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Policy decides what adding an item that is already in the cart does.
type Policy string

const (
	// PolicyReject refuses duplicates; every line has quantity 1.
	PolicyReject Policy = "reject"
	// PolicyIncrement bumps the existing line's quantity.
	PolicyIncrement Policy = "increment"
)

// ParsePolicy maps "reject" and "increment" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyReject, PolicyIncrement:
		return p, nil
	default:
		return "", fmt.Errorf("unknown cart policy %q", s)
	}
}

// Line is one cart entry.
type Line struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
}

// Subtotal is price × quantity. Unparseable prices count as zero.
func (l Line) Subtotal() decimal.Decimal {
	p, err := decimal.NewFromString(l.Price)
	if err != nil {
		return decimal.Zero
	}
	return p.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// IDs returns the item ids of lines in order.
func IDs(lines []Line) []uuid.UUID {
	out := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		out[i] = l.ID
	}
	return out
}

// Reconcile splits lines into those whose item is in available and those
// whose item is not. kept is always a subset of lines, in the same order.
func Reconcile(lines []Line, available []catalogclient.Item) (kept, dropped []Line) {
	live := make(map[uuid.UUID]bool, len(available))
	for _, it := range available {
		if it.Purchasable() {
			live[it.ID] = true
		}
	}
	kept = make([]Line, 0, len(lines))
	for _, l := range lines {
		if live[l.ID] {
			kept = append(kept, l)
		} else {
			dropped = append(dropped, l)
		}
	}
	return kept, dropped
}

// Storage persists JSON values under string keys. *localstore.Store implements it.
type Storage interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Put(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// Catalog is the part of the catalog API the cart reads.
type Catalog interface {
	ListForUsers(ctx context.Context) ([]catalogclient.Item, error)
	GetOne(ctx context.Context, id uuid.UUID) (*catalogclient.Item, error)
}

// Cart owns the persisted cart. It is the only writer of localstore.KeyCart.
type Cart struct {
	store   Storage
	catalog Catalog
	policy  Policy
	log     logger.Logger
}

func New(store Storage, catalog Catalog, policy Policy, log logger.Logger) *Cart {
	if policy == "" {
		policy = PolicyReject
	}
	return &Cart{store: store, catalog: catalog, policy: policy, log: log}
}

// Lines returns the persisted cart without contacting the catalog.
func (c *Cart) Lines(ctx context.Context) ([]Line, error) {
	var lines []Line
	if _, err := c.store.Get(ctx, localstore.KeyCart, &lines); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return lines, nil
}

// Save replaces the persisted cart with lines.
func (c *Cart) Save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	if err := c.store.Put(ctx, localstore.KeyCart, lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// View reconciles the cart against the live catalog, persists the result
// and returns it. If the catalog cannot be reached the persisted cart is
// returned unfiltered.
func (c *Cart) View(ctx context.Context) ([]Line, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return nil, err
	}
	available, err := c.catalog.ListForUsers(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "cart validation skipped, catalog unreachable", "error", err)
		return lines, nil
	}

	kept, dropped := Reconcile(lines, available)
	if len(dropped) > 0 {
		c.log.InfoContext(ctx, "cart lines no longer available", "dropped", len(dropped))
		if err := c.Save(ctx, kept); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

// Add puts the item into the cart using a fresh catalog read. Deleted and
// sold items cannot be added.
func (c *Cart) Add(ctx context.Context, id uuid.UUID) (Line, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return Line{}, err
	}

	if i := indexOf(lines, id); i >= 0 {
		if c.policy == PolicyReject {
			return lines[i], ErrAlreadyInCart
		}
		lines[i].Quantity++
		if err := c.Save(ctx, lines); err != nil {
			return Line{}, err
		}
		return lines[i], nil
	}

	item, err := c.catalog.GetOne(ctx, id)
	if errors.Is(err, catalogclient.ErrNotFound) {
		return Line{}, fmt.Errorf("%w: %s", ErrItemUnavailable, id)
	}
	if err != nil {
		return Line{}, fmt.Errorf("fetch item: %w", err)
	}
	if !item.Purchasable() {
		return Line{}, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}

	line := Line{ID: item.ID, Name: item.Name, Price: item.Price, Size: item.Size, Quantity: 1}
	if err := c.Save(ctx, append(lines, line)); err != nil {
		return Line{}, err
	}
	return line, nil
}

// Remove drops the item's line. Removing an absent item is a no-op.
func (c *Cart) Remove(ctx context.Context, id uuid.UUID) error {
	lines, err := c.Lines(ctx)
	if err != nil {
		return err
	}
	i := indexOf(lines, id)
	if i < 0 {
		return nil
	}
	return c.Save(ctx, slices.Delete(lines, i, i+1))
}

// SetQuantity changes a line's quantity. Only the increment policy allows
// quantities other than 1.
func (c *Cart) SetQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	if qty < 1 || (c.policy == PolicyReject && qty != 1) {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	lines, err := c.Lines(ctx)
	if err != nil {
		return err
	}
	i := indexOf(lines, id)
	if i < 0 {
		return ErrNotInCart
	}
	lines[i].Quantity = qty
	return c.Save(ctx, lines)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, localstore.KeyCart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func indexOf(lines []Line, id uuid.UUID) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ID == id })
}
