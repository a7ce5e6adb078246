package domain

import "errors"

// Sentinel errors for the catalog domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoItemsAvailable indicates a listing matched no items.
	ErrNoItemsAvailable = errors.New("no items available")

	// ErrItemAlreadyExists indicates a live item with the same name, price and size exists.
	ErrItemAlreadyExists = errors.New("item already available")

	// ErrInvalidItem indicates missing or malformed item input.
	ErrInvalidItem = errors.New("invalid item")

	// ErrMediaUpstream indicates the media host rejected or failed an upload.
	ErrMediaUpstream = errors.New("media upload failed")
)
