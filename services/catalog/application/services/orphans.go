package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogevents "github.com/ghuser/storefront/services/catalog/domain/events"
)

// JSONPublisher publishes a JSON payload outside of any transaction.
// *events.EventBus implements it.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, topic string, eventID uuid.UUID, version int, payload any) error
}

// EventOrphanReporter reports orphaned media as catalog.media.orphaned events;
// the worker turns them into cleanup workflows.
type EventOrphanReporter struct {
	pub JSONPublisher
}

func NewEventOrphanReporter(pub JSONPublisher) *EventOrphanReporter {
	return &EventOrphanReporter{pub: pub}
}

func (r *EventOrphanReporter) ReportOrphan(ctx context.Context, itemID uuid.UUID, url, reason string) error {
	evt := catalogevents.MediaOrphanedEvent{
		EventID:    uuid.New(),
		Version:    catalogevents.EventVersion,
		ItemID:     itemID,
		URL:        url,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	return r.pub.PublishJSON(ctx, catalogevents.TopicMediaOrphaned, evt.EventID, evt.Version, evt)
}
