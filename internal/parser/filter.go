package parser

import "github.com/bonghwa-tools/bonghwa-scraper/internal/types"

// FilterByCategory returns the subsequence of records whose category
// label equals the expected label, preserving input order. Empty input
// yields an empty (non-nil) output.
func FilterByCategory(records []types.ListingRecord, label string) []types.ListingRecord {
	filtered := make([]types.ListingRecord, 0, len(records))
	for _, rec := range records {
		if rec.Category == label {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
