package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/events"
	"github.com/ghuser/storefront/services/catalog/domain/models"
)

func TestItemCreatedEvent_JSONFieldNames(t *testing.T) {
	evt := events.ItemCreatedEvent{
		EventID: uuid.New(),
		Version: events.EventVersion,
		Item: events.ItemSnapshot{
			ItemID:    uuid.New(),
			Name:      "Shirt",
			Price:     "500",
			Size:      "M",
			Image:     "https://media.example.com/a.jpg",
			Available: true,
			CreatedAt: time.Now().UTC(),
		},
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}
	for _, field := range []string{"event_id", "version", "item", "occurred_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}

	item, ok := raw["item"].(map[string]any)
	if !ok {
		t.Fatalf("item is not an object: %s", data)
	}
	for _, field := range []string{"item_id", "name", "price", "size", "image", "available", "deleted", "created_at"} {
		if _, ok := item[field]; !ok {
			t.Errorf("expected item field %q not found in: %s", field, data)
		}
	}
	if item["price"] != "500" {
		t.Errorf("price must travel as text, got %v", item["price"])
	}
}

func TestItemsSoldEvent_Decode(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	data := []byte(`{"event_id":"550e8400-e29b-41d4-a716-446655440001","version":1,` +
		`"item_ids":["550e8400-e29b-41d4-a716-446655440000"],"occurred_at":"2025-01-15T12:00:00Z"}`)

	var evt events.ItemsSoldEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if len(evt.ItemIDs) != 1 || evt.ItemIDs[0] != id {
		t.Fatalf("unexpected ids: %v", evt.ItemIDs)
	}
	if !evt.OccurredAt.Equal(time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected occurred_at: %v", evt.OccurredAt)
	}
}

func TestTopics_AreDistinctAndNamespaced(t *testing.T) {
	topics := []string{
		events.TopicItemCreated,
		events.TopicItemUpdated,
		events.TopicItemDeleted,
		events.TopicItemsSold,
		events.TopicMediaOrphaned,
	}
	seen := map[string]bool{}
	for _, topic := range topics {
		if len(topic) < len("catalog.") || topic[:len("catalog.")] != "catalog." {
			t.Errorf("topic %q is not in the catalog namespace", topic)
		}
		if seen[topic] {
			t.Errorf("duplicate topic %q", topic)
		}
		seen[topic] = true
	}
}

func TestSnapshotOf(t *testing.T) {
	item := models.NewItem("Shirt", models.MustPrice("499.90"), "M", "https://media.example.com/a.jpg")
	item.MarkSold()

	snap := events.SnapshotOf(item)
	if snap.ItemID != item.ID || snap.Name != "Shirt" || snap.Size != "M" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Price != "499.9" {
		t.Errorf("price: got %q", snap.Price)
	}
	if snap.Available || snap.Deleted {
		t.Errorf("flags: available=%v deleted=%v", snap.Available, snap.Deleted)
	}
}
