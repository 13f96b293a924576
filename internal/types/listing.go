package types

// ListingRecord is one structured row extracted from a category page.
type ListingRecord struct {
	// Category is the short label from the row's left column (e.g. "아파트임대").
	Category string `json:"category"`

	// Description is the remaining left-column text with the
	// "<category> : " prefix stripped.
	Description string `json:"description"`

	// Phone holds the phone number(s) found in the right column,
	// comma-separated when a row lists more than one.
	Phone string `json:"phone"`

	// IsNew reports whether the row carries the freshly-posted marker icon.
	IsNew bool `json:"new"`
}

// CategoryPage pairs a category listing page with the label its
// records are expected to carry. Fixed at configuration time.
type CategoryPage struct {
	ID            int    `mapstructure:"id"             yaml:"id"`
	ExpectedLabel string `mapstructure:"expected_label" yaml:"expected_label"`
	URL           string `mapstructure:"url"            yaml:"url"`
}
