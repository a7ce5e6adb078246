package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ItemName
		wantErr bool
	}{
		{"valid name", "Valid Item Name", false},
		{"valid name with special chars", "T-Shirt (Kids) #2", false},
		{"leading whitespace", " Name", true},
		{"trailing whitespace", "Name ", true},
		{"tab character (control)", "Name\tName", true},
		{"newline character (control)", "Name\nName", true},
		{"null byte (control)", "Name\x00", true},
		{"DEL character", "Name\x7F", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateItemForCreation(t *testing.T) {
	valid := func() *models.Item {
		return models.NewItem("Shirt", models.MustPrice("500"), "M", "https://media.example.com/a.jpg")
	}

	t.Run("nil item returns error", func(t *testing.T) {
		if err := ValidateItemForCreation(nil); err == nil {
			t.Fatal("expected error for nil item")
		}
	})

	t.Run("valid item returns nil", func(t *testing.T) {
		if err := ValidateItemForCreation(valid()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*models.Item)
	}{
		{"zero ID", func(i *models.Item) { i.ID = uuid.Nil }},
		{"control chars in name", func(i *models.Item) { i.Name = "name\x00control" }},
		{"missing size", func(i *models.Item) { i.Size = "" }},
		{"missing image", func(i *models.Item) { i.Image = "" }},
		{"already sold", func(i *models.Item) { i.Available = false }},
		{"already removed", func(i *models.Item) { i.Deleted = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mutate(item)
			if err := ValidateItemForCreation(item); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	bad := models.ItemName("bad\nname")
	empty := ""
	image := "https://media.example.com/b.jpg"

	if err := ValidatePatch(models.Patch{}); err != nil {
		t.Fatalf("empty patch: unexpected error %v", err)
	}
	if err := ValidatePatch(models.Patch{Image: &image}); err != nil {
		t.Fatalf("image patch: unexpected error %v", err)
	}
	if err := ValidatePatch(models.Patch{Name: &bad}); err == nil {
		t.Fatal("expected error for control character in name")
	}
	if err := ValidatePatch(models.Patch{Image: &empty}); err == nil {
		t.Fatal("expected error for cleared image")
	}
}
