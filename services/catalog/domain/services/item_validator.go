// Package services contains stateless domain services for the catalog bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// ValidateName enforces business rules for ItemName beyond the structural
// constraints enforced by the ItemName constructor (length 1..255).
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
func ValidateName(name models.ItemName) error {
	s := name.String()

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("item name must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("item name must not contain control characters")
		}
	}

	return nil
}

// ValidateItemForCreation performs cross-field validation on a fully-constructed
// Item before it is persisted. It assumes the Item was built via models.NewItem
// and adds the checks that span multiple fields.
func ValidateItemForCreation(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}

	if item.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}

	if err := ValidateName(item.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	if item.Size.String() == "" {
		return fmt.Errorf("size must be set")
	}

	if item.Image == "" {
		return fmt.Errorf("image must be uploaded before the item is saved")
	}

	if item.Deleted || !item.Available {
		return fmt.Errorf("new items must start active, got %s", item.State())
	}

	return nil
}

// ValidatePatch checks the fields an update would change.
func ValidatePatch(p models.Patch) error {
	if p.Name != nil {
		if err := ValidateName(*p.Name); err != nil {
			return fmt.Errorf("invalid name: %w", err)
		}
	}
	if p.Image != nil && *p.Image == "" {
		return fmt.Errorf("image must not be cleared")
	}
	return nil
}
