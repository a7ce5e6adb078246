package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// Watermill topics published by the catalog.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicItemCreated).
const (
	TopicItemCreated   = "catalog.item.created"
	TopicItemUpdated   = "catalog.item.updated"
	TopicItemDeleted   = "catalog.item.deleted"
	TopicItemsSold     = "catalog.items.sold"
	TopicMediaOrphaned = "catalog.media.orphaned"
)

// EventVersion is the schema version of every catalog event; increment on breaking changes.
const EventVersion = 1

// ItemSnapshot is the item state carried by created/updated events.
type ItemSnapshot struct {
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Image     string    `json:"image"`
	Available bool      `json:"available"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotOf copies the wire-relevant state of item.
func SnapshotOf(item *models.Item) ItemSnapshot {
	return ItemSnapshot{
		ItemID:    item.ID,
		Name:      item.Name.String(),
		Price:     item.Price.String(),
		Size:      item.Size.String(),
		Image:     item.Image,
		Available: item.Available,
		Deleted:   item.Deleted,
		CreatedAt: item.CreatedAt,
	}
}

// ItemCreatedEvent is published after a new Item is persisted.
type ItemCreatedEvent struct {
	EventID    uuid.UUID    `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemUpdatedEvent is published after an Item's fields or image changed.
type ItemUpdatedEvent struct {
	EventID    uuid.UUID    `json:"event_id"`
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemDeletedEvent is published after an Item was soft-deleted.
type ItemDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemsSoldEvent lists the items an order submission marked unavailable.
// Only ids whose availability actually changed are included.
type ItemsSoldEvent struct {
	EventID    uuid.UUID   `json:"event_id"`
	Version    int         `json:"version"`
	ItemIDs    []uuid.UUID `json:"item_ids"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// MediaOrphanedEvent reports a media object that could not be removed
// inline and must be cleaned up in the background.
type MediaOrphanedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	URL        string    `json:"url"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
