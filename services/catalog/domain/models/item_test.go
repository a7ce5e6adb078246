package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newShirt() *Item {
	return NewItem("Shirt", MustPrice("500"), "M", "https://media.example.com/shirt.jpg")
}

func TestNewItem(t *testing.T) {
	before := time.Now().UTC()
	item := newShirt()
	after := time.Now().UTC()

	if item.ID == uuid.Nil {
		t.Fatal("expected non-zero ID")
	}
	if !item.Available || item.Deleted {
		t.Fatalf("expected available and not deleted, got available=%v deleted=%v", item.Available, item.Deleted)
	}
	if item.State() != StateActive {
		t.Fatalf("expected active, got %s", item.State())
	}
	if item.CreatedAt.Before(before) || item.CreatedAt.After(after) {
		t.Fatalf("CreatedAt %v not between %v and %v", item.CreatedAt, before, after)
	}
	if newShirt().ID == item.ID {
		t.Fatal("expected unique IDs")
	}
}

func TestItem_Lifecycle(t *testing.T) {
	t.Run("active to sold", func(t *testing.T) {
		item := newShirt()
		if !item.MarkSold() {
			t.Fatal("expected first MarkSold to change the item")
		}
		if item.MarkSold() {
			t.Fatal("expected second MarkSold to be a no-op")
		}
		if item.State() != StateSold || item.VisibleToUsers() || !item.VisibleToAdmins() {
			t.Fatalf("unexpected visibility for sold item: %+v", item)
		}
	})

	t.Run("sold to removed", func(t *testing.T) {
		item := newShirt()
		item.MarkSold()
		item.Remove()
		if item.State() != StateRemoved || item.VisibleToAdmins() {
			t.Fatalf("expected removed and hidden, got %s", item.State())
		}
	})

	t.Run("removed stays removed when sold", func(t *testing.T) {
		item := newShirt()
		item.Remove()
		if !item.MarkSold() {
			t.Fatal("expected the availability flag to be cleared")
		}
		if item.Available || item.State() != StateRemoved {
			t.Fatalf("expected removed with available=false, got %s available=%v", item.State(), item.Available)
		}
		if item.MarkSold() {
			t.Fatal("expected second MarkSold to be a no-op")
		}
	})
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ItemState
		want     bool
	}{
		{StateActive, StateSold, true},
		{StateActive, StateRemoved, true},
		{StateSold, StateRemoved, true},
		{StateSold, StateActive, false},
		{StateRemoved, StateActive, false},
		{StateRemoved, StateSold, false},
		{StateRemoved, StateRemoved, true},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestItem_ApplyAndIdentity(t *testing.T) {
	item := newShirt()
	other := NewItem("Shirt", MustPrice("500.00"), "M", "")
	if !item.SameIdentity(other) {
		t.Fatal("500 and 500.00 must be the same identity")
	}

	name := ItemName("Polo")
	item.Apply(Patch{Name: &name})
	if item.Name != "Polo" || item.Size != "M" {
		t.Fatalf("unexpected item after patch: %+v", item)
	}
	if item.SameIdentity(other) {
		t.Fatal("renamed item must not share identity")
	}
	if !(Patch{}).IsEmpty() || (Patch{Name: &name}).IsEmpty() {
		t.Fatal("IsEmpty mismatch")
	}
}
