package models

import (
	"strings"
	"testing"
)

func TestNewItemName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ItemName
		wantErr bool
	}{
		{"single character", "a", "a", false},
		{"normal name", "Denim Shirt", "Denim Shirt", false},
		{"surrounding whitespace trimmed", "  Shirt \t", "Shirt", false},
		{"255 runes", strings.Repeat("é", 255), ItemName(strings.Repeat("é", 255)), false},
		{"empty", "", "", true},
		{"only whitespace", "   ", "", true},
		{"256 characters", strings.Repeat("x", 256), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewItemName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewItemName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewItemSize(t *testing.T) {
	if s, err := NewItemSize(" XL "); err != nil || s.String() != "XL" {
		t.Fatalf("expected XL, got %q (%v)", s, err)
	}
	if _, err := NewItemSize(" "); err == nil {
		t.Fatal("expected error for blank size")
	}
	if _, err := NewItemSize(strings.Repeat("x", 65)); err == nil {
		t.Fatal("expected error for oversized size")
	}
}
