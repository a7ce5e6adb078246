// Package memory is an in-process ItemRepository. It honours the same
// contract as the PostgreSQL store and backs service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
	"github.com/ghuser/storefront/services/catalog/domain/repositories"
)

// ItemRepository keeps items in a map guarded by a mutex. Returned items are
// copies, so callers can mutate them freely.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.Item
}

// NewItemRepository returns an empty repository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[uuid.UUID]models.Item)}
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

func (r *ItemRepository) Save(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.liveDuplicateLocked(item) != nil {
		return catalogdomain.ErrItemAlreadyExists
	}
	r.items[item.ID] = *item
	return nil
}

func (r *ItemRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, catalogdomain.ErrItemNotFound
	}
	return &item, nil
}

func (r *ItemRepository) FindLiveDuplicate(_ context.Context, item *models.Item) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveDuplicateLocked(item), nil
}

func (r *ItemRepository) List(_ context.Context, filter repositories.ListFilter) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Item
	for _, item := range r.items {
		if !item.VisibleToAdmins() {
			continue
		}
		if filter.OnlyAvailable && !item.VisibleToUsers() {
			continue
		}
		item := item
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (r *ItemRepository) Update(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ID]
	if !ok {
		return catalogdomain.ErrItemNotFound
	}
	if !stored.Deleted {
		if dup := r.liveDuplicateLocked(item); dup != nil && dup.ID != item.ID {
			return catalogdomain.ErrItemAlreadyExists
		}
	}
	stored.Name, stored.Price, stored.Size, stored.Image = item.Name, item.Price, item.Size, item.Image
	r.items[item.ID] = stored
	return nil
}

func (r *ItemRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return catalogdomain.ErrItemNotFound
	}
	item.Remove()
	r.items[id] = item
	return nil
}

func (r *ItemRepository) MarkUnavailable(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := r.items[id]
		if !ok || !item.MarkSold() {
			continue
		}
		r.items[id] = item
		changed = append(changed, id)
	}
	return changed, nil
}

func (r *ItemRepository) liveDuplicateLocked(item *models.Item) *models.Item {
	for _, stored := range r.items {
		if stored.Deleted || stored.ID == item.ID {
			continue
		}
		if stored.SameIdentity(item) {
			dup := stored
			return &dup
		}
	}
	return nil
}
