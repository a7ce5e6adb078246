package checkout

import (
	"context"
	"fmt"

	"github.com/ghuser/storefront/services/storefront/cart"
	"github.com/ghuser/storefront/services/storefront/localstore"
)

// History is the client-local order log stored under localstore.KeyOrderHistory.
type History struct {
	store cart.Storage
}

func NewHistory(store cart.Storage) *History {
	return &History{store: store}
}

// List returns past orders, oldest first.
func (h *History) List(ctx context.Context) ([]Order, error) {
	var orders []Order
	if _, err := h.store.Get(ctx, localstore.KeyOrderHistory, &orders); err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	return orders, nil
}

// Append adds o to the end of the log.
func (h *History) Append(ctx context.Context, o Order) error {
	orders, err := h.List(ctx)
	if err != nil {
		return err
	}
	if err := h.store.Put(ctx, localstore.KeyOrderHistory, append(orders, o)); err != nil {
		return fmt.Errorf("save order history: %w", err)
	}
	return nil
}

func (h *History) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx, localstore.KeyOrderHistory); err != nil {
		return fmt.Errorf("clear order history: %w", err)
	}
	return nil
}
