package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// ListFilter narrows a catalog listing. Deleted items are never listed.
type ListFilter struct {
	OnlyAvailable bool // user listing: exclude sold items
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ItemRepository interface {
	// Save inserts a new Item. Returns ErrItemAlreadyExists when a live item
	// with the same (name, price, size) already exists.
	Save(ctx context.Context, item *models.Item) error

	// GetByID returns the Item regardless of its deleted flag.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// FindLiveDuplicate returns the non-deleted item sharing item's
	// (name, price, size), or nil when there is none.
	FindLiveDuplicate(ctx context.Context, item *models.Item) (*models.Item, error)

	// List returns non-deleted items newest-first.
	List(ctx context.Context, filter ListFilter) ([]*models.Item, error)

	// Update persists name, price, size and image of an existing Item.
	Update(ctx context.Context, item *models.Item) error

	// SoftDelete sets deleted=true. Deleting an already deleted item is a no-op.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// MarkUnavailable sets available=false on every item in ids, deleted ones
	// included, and returns the ids that changed. Unknown ids are ignored.
	MarkUnavailable(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}
