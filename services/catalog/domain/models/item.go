package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the catalog aggregate. The catalog store is the single source of
// truth for it; clients only ever hold derived copies.
type Item struct {
	ID        uuid.UUID
	Name      ItemName
	Price     Price
	Size      ItemSize
	Image     string // media URL; empty only before the first upload completes
	Available bool
	Deleted   bool
	CreatedAt time.Time
}

// NewItem constructs an Active item with a generated ID and current timestamp.
func NewItem(name ItemName, price Price, size ItemSize, image string) *Item {
	return &Item{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Size:      size,
		Image:     image,
		Available: true,
		CreatedAt: time.Now().UTC(),
	}
}

// State derives the lifecycle state from the availability and deletion flags.
func (i *Item) State() ItemState {
	switch {
	case i.Deleted:
		return StateRemoved
	case !i.Available:
		return StateSold
	default:
		return StateActive
	}
}

// MarkSold clears the availability flag. An Active item becomes Sold; a
// Removed item stays Removed with the flag cleared. Reports whether the flag
// changed.
func (i *Item) MarkSold() bool {
	if !i.Available {
		return false
	}
	i.Available = false
	return true
}

// Remove soft-deletes the item. The record itself is kept.
func (i *Item) Remove() {
	i.Deleted = true
}

// VisibleToAdmins reports whether admin listings include the item.
func (i *Item) VisibleToAdmins() bool {
	return !i.Deleted
}

// VisibleToUsers reports whether user listings include the item.
func (i *Item) VisibleToUsers() bool {
	return i.State() == StateActive
}

// SameIdentity reports whether other has the same (name, price, size) triple,
// the key used for duplicate detection on create.
func (i *Item) SameIdentity(other *Item) bool {
	return i.Name == other.Name && i.Price.Equal(other.Price.Decimal) && i.Size == other.Size
}

// Patch holds the optional fields of an update. Nil fields are left unchanged.
type Patch struct {
	Name  *ItemName
	Price *Price
	Size  *ItemSize
	Image *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Size == nil && p.Image == nil
}

// Apply copies every set field of p onto the item.
func (i *Item) Apply(p Patch) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Price != nil {
		i.Price = *p.Price
	}
	if p.Size != nil {
		i.Size = *p.Size
	}
	if p.Image != nil {
		i.Image = *p.Image
	}
}
