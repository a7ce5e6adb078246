package models

// ItemState is the availability lifecycle of an Item.
//
//	Active ──MarkSold──▶ Sold
//	Active ──Remove────▶ Removed
//	Sold   ──Remove────▶ Removed
//
// There is no restocking or undelete, so Sold and Removed are never left
// except Sold → Removed.
type ItemState string

const (
	StateActive  ItemState = "active"
	StateSold    ItemState = "sold"
	StateRemoved ItemState = "removed"
)

// CanTransition reports whether from → to is a legal lifecycle step.
// Staying in the same state is always allowed so repeated calls are idempotent.
func CanTransition(from, to ItemState) bool {
	if from == to {
		return true
	}
	switch from {
	case StateActive:
		return to == StateSold || to == StateRemoved
	case StateSold:
		return to == StateRemoved
	default:
		return false
	}
}
