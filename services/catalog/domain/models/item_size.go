package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ItemSize is a free-form size label ("M", "42", "500ml").
type ItemSize string

const maxItemSizeLength = 64

// NewItemSize trims s and constructs a valid ItemSize.
func NewItemSize(s string) (ItemSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("item size is required")
	}
	if utf8.RuneCountInString(s) > maxItemSizeLength {
		return "", fmt.Errorf("item size must not exceed %d characters", maxItemSizeLength)
	}
	return ItemSize(s), nil
}

func (s ItemSize) String() string {
	return string(s)
}
