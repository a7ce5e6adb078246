package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a non-negative amount with at most two decimal places.
// It travels as text ("500", "499.99") and is stored as NUMERIC(12,2).
type Price struct {
	decimal.Decimal
}

const priceScale = 2

// ParsePrice parses s into a Price. Blank, non-numeric, negative and
// sub-cent values are rejected.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Price{}, fmt.Errorf("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("price %q is not a number", s)
	}
	return NewPrice(d)
}

// NewPrice validates d as a Price.
func NewPrice(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return Price{}, fmt.Errorf("price must not be negative")
	}
	if !d.Equal(d.Round(priceScale)) {
		return Price{}, fmt.Errorf("price must have at most %d decimal places", priceScale)
	}
	return Price{Decimal: d}, nil
}

// MustPrice is ParsePrice for literals; it panics on invalid input.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the price without trailing zeros ("500", "499.5").
func (p Price) String() string {
	return p.Decimal.String()
}
