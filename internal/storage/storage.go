package storage

import "github.com/bonghwa-tools/bonghwa-scraper/internal/types"

// Sink is an optional extra backend that receives the filtered records
// of a category page on top of the flat-file outputs.
type Sink interface {
	// Store persists one category's filtered records.
	Store(page types.CategoryPage, records []types.ListingRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}
