package cart

import "github.com/ghuser/storefront/services/storefront/catalogclient"

// DefaultPageSize is how many items a Feed reveals per page.
const DefaultPageSize = 10

// Feed pages through a catalog snapshot that was fetched in one request.
type Feed struct {
	items    []catalogclient.Item
	shown    int
	pageSize int
}

func NewFeed(pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{pageSize: pageSize}
}

// Reset replaces the snapshot (a refresh) and shows the first page.
func (f *Feed) Reset(items []catalogclient.Item) {
	f.items = items
	f.shown = min(f.pageSize, len(items))
}

// Next reveals one more page and reports whether anything was added.
func (f *Feed) Next() bool {
	if !f.HasMore() {
		return false
	}
	f.shown = min(f.shown+f.pageSize, len(f.items))
	return true
}

// Visible returns the revealed prefix of the snapshot.
func (f *Feed) Visible() []catalogclient.Item {
	return f.items[:f.shown]
}

func (f *Feed) HasMore() bool {
	return f.shown < len(f.items)
}
