package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/workflows"
	catalogevents "github.com/ghuser/storefront/services/catalog/domain/events"
)

// itemCache is the part of *cache.ItemCache the worker maintains.
type itemCache interface {
	SetIfUnchanged(ctx context.Context, item *cache.CachedItem, stamp cache.Stamp) error
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// cleanupStarter is implemented by *workflows.TemporalClient.
type cleanupStarter interface {
	StartMediaCleanup(ctx context.Context, in workflows.MediaCleanupInput) error
}

type subscription struct {
	topic  string
	handle events.HandlerFunc
}

// subscriptions lists every catalog topic the worker consumes. Cache topics
// are skipped when itemCache is nil. Handlers must be idempotent: EventBus
// retries each message and redelivers it after a Nack. Events newer than
// catalogevents.EventVersion are acknowledged without being handled.
func subscriptions(c itemCache, cleanup cleanupStarter, log logger.Logger) []subscription {
	var subs []subscription
	if c != nil {
		subs = append(subs,
			subscription{catalogevents.TopicItemCreated, handleItemCreated(c, log)},
			subscription{catalogevents.TopicItemUpdated, handleItemUpdated(c)},
			subscription{catalogevents.TopicItemDeleted, handleItemDeleted(c)},
			subscription{catalogevents.TopicItemsSold, handleItemsSold(c)},
		)
	}
	if cleanup != nil {
		subs = append(subs, subscription{catalogevents.TopicMediaOrphaned, handleMediaOrphaned(cleanup, log)})
	}
	for i := range subs {
		subs[i].handle = events.RequireVersion(catalogevents.EventVersion, log, subs[i].handle)
	}
	return subs
}

// handleItemCreated warms the read-model cache so the first GetOne after a
// create is served from Redis. The snapshot is written only while the item
// has never been invalidated: a create delivered after the item's sale,
// update or delete is dropped. Warming is best-effort.
func handleItemCreated(c itemCache, log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt catalogevents.ItemCreatedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		s := evt.Item
		err := c.SetIfUnchanged(ctx, &cache.CachedItem{
			ID:        s.ItemID,
			Name:      s.Name,
			Price:     s.Price,
			Size:      s.Size,
			Image:     s.Image,
			Available: s.Available,
			Deleted:   s.Deleted,
			CreatedAt: s.CreatedAt,
		}, 0)
		switch {
		case errors.Is(err, cache.ErrStale):
			log.InfoContext(ctx, "item changed since creation, not warming", "item_id", s.ItemID)
			return nil
		case err != nil:
			log.WarnContext(ctx, "cache warm failed for item.created", "item_id", s.ItemID, "error", err)
			return nil
		}
		log.InfoContext(ctx, "cache warmed", "item_id", s.ItemID)
		return nil
	}
}

// handleItemUpdated drops the entry instead of writing the snapshot: an
// update and a sale of the same item may be delivered out of order, and a
// late snapshot must not resurrect a sold item.
func handleItemUpdated(c itemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt catalogevents.ItemUpdatedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		return invalidate(ctx, c, evt.Item.ItemID)
	}
}

func handleItemDeleted(c itemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt catalogevents.ItemDeletedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		return invalidate(ctx, c, evt.ItemID)
	}
}

func handleItemsSold(c itemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt catalogevents.ItemsSoldEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		return invalidate(ctx, c, evt.ItemIDs...)
	}
}

// handleMediaOrphaned hands the object to a MediaCleanupWorkflow. Reports for
// the same URL share a workflow id, so redelivery is harmless.
func handleMediaOrphaned(cleanup cleanupStarter, log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt catalogevents.MediaOrphanedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		if evt.URL == "" {
			log.WarnContext(ctx, "media.orphaned without url, skipping", "item_id", evt.ItemID)
			return nil
		}
		return cleanup.StartMediaCleanup(ctx, workflows.MediaCleanupInput{
			ItemID: evt.ItemID.String(),
			URL:    evt.URL,
			Reason: evt.Reason,
		})
	}
}

func invalidate(ctx context.Context, c itemCache, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("invalidate %d cached items: %w", len(ids), err)
	}
	return nil
}
